package media

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// InfoFormat is the format preference sent with metadata-only lookups.
	InfoFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best"
	// BestFormat requests the best single original file.
	BestFormat = "best"
	// VideoContainer is the post-download target container for video content.
	VideoContainer = "mp4"
)

// ParseQuality turns a free-form quality hint ("1080", "720p", "best") into a
// vertical resolution cap. Zero means no cap.
func ParseQuality(quality string) int {
	q := strings.ToLower(strings.TrimSpace(quality))
	if q == "" || q == "best" {
		return 0
	}
	q = strings.TrimSuffix(q, "p")
	height, err := strconv.Atoi(q)
	if err != nil || height <= 0 {
		return 0
	}
	return height
}

// DownloadFormat builds the format selector for a download. Video content walks
// from an mp4/avc1 pairing down to "best"; everything else takes the best original.
func DownloadFormat(isVideo bool, maxHeight int) string {
	if !isVideo {
		return BestFormat
	}
	h := ""
	if maxHeight > 0 {
		h = fmt.Sprintf("[height<=%d]", maxHeight)
	}
	selectors := []string{
		"bv*" + h + "[ext=mp4][vcodec^=avc1]+ba[ext=m4a]",
		"b" + h + "[ext=mp4]",
		"bv*" + h + "+ba",
		"b" + h,
		BestFormat,
	}
	return strings.Join(selectors, "/")
}
