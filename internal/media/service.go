// Package media implements the gateway's two operations on top of the
// extraction engine: metadata lookup and download into an isolated job
// directory, plus the filename policy used to serve the results.
package media

import (
	"context"
	"time"

	"media-gateway/internal/extractor"
	"media-gateway/internal/metrics"

	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// JobEvent reports a state change (or progress, when Progress is set) of a download job.
type JobEvent struct {
	JobID    string
	URL      string
	Quality  string
	Title    string
	IsVideo  bool
	Status   Status
	File     string
	Path     string
	Error    string
	Progress *extractor.Progress
}

// Observer receives job events. Implementations must not block for long.
type Observer interface {
	JobUpdated(ev JobEvent)
}

// DownloadResult describes a finished download.
type DownloadResult struct {
	JobID string
	// File is the name to request from the file endpoint.
	File    string
	Path    string
	Renamed bool
}

type Service struct {
	engine    extractor.Engine
	workspace *Workspace
	userAgent string
	observers []Observer
}

func NewService(engine extractor.Engine, workspace *Workspace, userAgent string, observers ...Observer) *Service {
	return &Service{
		engine:    engine,
		workspace: workspace,
		userAgent: userAgent,
		observers: observers,
	}
}

func (s *Service) Workspace() *Workspace { return s.workspace }

func (s *Service) headers(sourceURL string) []extractor.Header {
	h := map[string]string{"User-Agent": s.userAgent}
	if sourceURL != "" {
		h["Referer"] = sourceURL
	}
	return extractor.HeadersFromMap(h)
}

// Info looks up metadata without downloading anything.
func (s *Service) Info(ctx context.Context, url string) (*extractor.Metadata, error) {
	md, err := s.engine.Inspect(ctx, extractor.Request{
		URL:     url,
		Format:  InfoFormat,
		Headers: s.headers(url),
	})
	if err != nil {
		log.Warn().Str("op", "media/info").Str("url", url).Err(err).Msg("metadata lookup failed")
		return nil, newError(KindUpstream, "Failed to fetch info", err)
	}
	return md, nil
}

// Download fetches url into a fresh job directory and promotes the result
// into the base directory.
func (s *Service) Download(ctx context.Context, url, quality string) (*DownloadResult, error) {
	md, err := s.Info(ctx, url)
	if err != nil {
		return nil, err
	}

	job, err := s.workspace.NewJob()
	if err != nil {
		return nil, newError(KindInternal, "Failed to allocate job", err)
	}
	ev := JobEvent{JobID: job.ID, URL: url, Quality: quality, IsVideo: md.HasVideo, Status: StatusPending}
	if md.Title != nil {
		ev.Title = *md.Title
	}
	s.notify(ev)

	progressEv := ev
	progressEv.Status = StatusDownloading
	req := extractor.Request{
		URL:               url,
		Format:            DownloadFormat(md.HasVideo, ParseQuality(quality)),
		Headers:           s.headers(url),
		OutputTemplate:    job.OutputTemplate(BaseName(md.Title, md.ID)),
		RestrictFilenames: true,
		Progress: func(p extractor.Progress) {
			pe := progressEv
			pe.Progress = &p
			s.notify(pe)
		},
	}
	if md.HasVideo {
		req.RecodeVideo = VideoContainer
	}

	logger := log.With().Str("op", "media/download").Str("job_id", job.ID).Logger()
	logger.Info().Str("url", url).Str("format", req.Format).Bool("video", md.HasVideo).Msg("download started")
	ev.Status = StatusDownloading
	s.notify(ev)

	start := time.Now()
	out, err := s.engine.Download(ctx, req)
	metrics.ObserveDownload(md.HasVideo, err == nil, time.Since(start))
	if err != nil {
		logger.Warn().Err(err).Msg("download failed")
		return nil, s.fail(ev, newError(KindUpstream, "Download failed", err))
	}

	reported := ""
	if out != nil {
		reported = out.Filename
	}
	path, err := s.workspace.LocateOutput(job, reported)
	if err != nil {
		logger.Error().Err(err).Msg("engine reported success without output")
		return nil, s.fail(ev, err)
	}

	name, final, moved := s.workspace.Promote(job, path)
	logger.Info().Str("file", name).Bool("renamed", moved).Msg("download ready")

	ev.Status = StatusCompleted
	ev.File = name
	ev.Path = final
	s.notify(ev)

	return &DownloadResult{JobID: job.ID, File: name, Path: final, Renamed: moved}, nil
}

func (s *Service) fail(ev JobEvent, err error) error {
	ev.Status = StatusFailed
	ev.Error = err.Error()
	s.notify(ev)
	return err
}

func (s *Service) notify(ev JobEvent) {
	for _, o := range s.observers {
		o.JobUpdated(ev)
	}
}
