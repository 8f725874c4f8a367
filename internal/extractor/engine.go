// Package extractor wraps the external media-extraction engine (yt-dlp) behind
// a small interface. The gateway never looks inside the engine: it hands over a
// Request and gets back metadata or a file on disk.
package extractor

import (
	"context"
	"sort"
	"strings"
)

// Header is a single extra HTTP header sent by the engine to the source site.
type Header struct {
	Name  string
	Value string
}

// Request is the engine configuration for one invocation.
type Request struct {
	URL               string
	Format            string
	Headers           []Header
	OutputTemplate    string
	RestrictFilenames bool
	// RecodeVideo names a target container for a post-download conversion; empty disables it.
	RecodeVideo string
	Progress    func(Progress)
}

// Progress is a throttled download progress report.
type Progress struct {
	Status          string
	DownloadedBytes int
	TotalBytes      int
	Percent         float64
	Filename        string
}

// Metadata is the read-only projection of what the engine reports about a URL.
// Pointer fields are nil when the source site does not supply them.
type Metadata struct {
	ID          string
	Title       *string
	Duration    *float64
	Thumbnail   *string
	Uploader    *string
	Description *string
	HasVideo    bool
}

// Output describes the result of a download invocation.
type Output struct {
	// Filename is the path the engine reported for the downloaded media, if any.
	Filename string
}

// Engine is the extraction engine contract.
type Engine interface {
	Inspect(ctx context.Context, req Request) (*Metadata, error)
	Download(ctx context.Context, req Request) (*Output, error)
}

// IsVideoCodec reports whether an engine codec string names an actual video stream.
func IsVideoCodec(codec string) bool {
	codec = strings.TrimSpace(strings.ToLower(codec))
	return codec != "" && codec != "none"
}

// HeadersFromMap converts a header map into a stable, name-sorted slice.
func HeadersFromMap(m map[string]string) []Header {
	headers := make([]Header, 0, len(m))
	for k, v := range m {
		headers = append(headers, Header{Name: k, Value: v})
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].Name < headers[j].Name })
	return headers
}
