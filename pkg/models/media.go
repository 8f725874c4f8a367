package models

// MediaRequest is the body of POST /info and POST /download
type MediaRequest struct {
	URL     string `json:"url" binding:"required,http_url"`
	Quality string `json:"quality"` // target height, e.g. "1080p"; "best" or junk means no cap
}

// MediaInfo is the metadata projection returned by POST /info.
// Fields stay null when the source does not report them.
type MediaInfo struct {
	Title       *string  `json:"title"`
	Duration    *float64 `json:"duration"`
	Thumbnail   *string  `json:"thumbnail"`
	Uploader    *string  `json:"uploader"`
	Description *string  `json:"description"`
	Message     string   `json:"message"`
}

// DownloadResponse is returned by POST /download
type DownloadResponse struct {
	File        string `json:"file"`
	Path        string `json:"path"`
	DownloadURL string `json:"download_url"`
	Message     string `json:"message"`
	JobID       string `json:"job_id"`
	Renamed     bool   `json:"renamed"`
}

// StatusResponse is returned by GET /
type StatusResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
