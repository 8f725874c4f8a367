package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuality(t *testing.T) {
	tests := map[string]int{
		"":       0,
		"best":   0,
		"BEST":   0,
		"1080p":  1080,
		"720":    720,
		" 480P ": 480,
		"hd":     0,
		"-360":   0,
		"4k":     0,
		"0p":     0,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseQuality(in), "quality %q", in)
	}
}

func TestDownloadFormatVideoWithCap(t *testing.T) {
	f := DownloadFormat(true, ParseQuality("1080p"))

	assert.Equal(t,
		"bv*[height<=1080][ext=mp4][vcodec^=avc1]+ba[ext=m4a]/b[height<=1080][ext=mp4]/bv*[height<=1080]+ba/b[height<=1080]/best",
		f)
	assert.True(t, strings.HasSuffix(f, "/best"))
}

func TestDownloadFormatVideoWithoutCap(t *testing.T) {
	for _, q := range []string{"", "best"} {
		f := DownloadFormat(true, ParseQuality(q))
		assert.NotContains(t, f, "height")
		assert.True(t, strings.HasPrefix(f, "bv*[ext=mp4][vcodec^=avc1]+ba[ext=m4a]"))
		assert.True(t, strings.HasSuffix(f, "/best"))
	}
}

func TestDownloadFormatNonVideo(t *testing.T) {
	assert.Equal(t, BestFormat, DownloadFormat(false, 0))
	assert.Equal(t, BestFormat, DownloadFormat(false, 720))
}
