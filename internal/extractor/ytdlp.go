package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog/log"
)

const progressInterval = 500 * time.Millisecond

// YTDLP runs yt-dlp through go-ytdlp.
type YTDLP struct {
	executable string
}

// NewYTDLP returns an engine using the given yt-dlp binary, or the one on PATH
// when executable is empty.
func NewYTDLP(executable string) *YTDLP {
	return &YTDLP{executable: executable}
}

type installStep struct {
	name    string
	install func(ctx context.Context) (string, error)
}

// Merging and recoding video needs ffmpeg and ffprobe next to yt-dlp.
var installSteps = []installStep{
	{"yt-dlp", func(ctx context.Context) (string, error) {
		r, err := ytdlp.Install(ctx, nil)
		if err != nil {
			return "", err
		}
		return r.Executable, nil
	}},
	{"ffmpeg", func(ctx context.Context) (string, error) {
		r, err := ytdlp.InstallFFmpeg(ctx, nil)
		if err != nil {
			return "", err
		}
		return r.Executable, nil
	}},
	{"ffprobe", func(ctx context.Context) (string, error) {
		r, err := ytdlp.InstallFFprobe(ctx, nil)
		if err != nil {
			return "", err
		}
		return r.Executable, nil
	}},
}

// EnsureInstalled downloads yt-dlp, ffmpeg and ffprobe into the go-ytdlp cache
// when no usable binary is present.
func EnsureInstalled(ctx context.Context) error {
	return runInstall(ctx, installSteps)
}

func runInstall(ctx context.Context, steps []installStep) error {
	for _, step := range steps {
		executable, err := step.install(ctx)
		if err != nil {
			return fmt.Errorf("error ensuring %s: %w", step.name, err)
		}
		log.Info().Str("op", "extractor/install").Str("executable", executable).Msg(step.name + " available")
	}
	return nil
}

func (y *YTDLP) command(req Request) *ytdlp.Command {
	cmd := ytdlp.New().NoPlaylist().NoWarnings()
	if y.executable != "" {
		cmd = cmd.SetExecutable(y.executable)
	}
	if req.Format != "" {
		cmd = cmd.Format(req.Format)
	}
	// --add-headers holds a single value, so the two headers every request
	// carries go through their dedicated flags.
	var extra []Header
	for _, h := range req.Headers {
		switch {
		case strings.EqualFold(h.Name, "User-Agent"):
			cmd = cmd.UserAgent(h.Value)
		case strings.EqualFold(h.Name, "Referer"):
			cmd = cmd.Referer(h.Value)
		default:
			extra = append(extra, h)
		}
	}
	if len(extra) > 0 {
		cmd = cmd.AddHeaders(extra[0].Name + ":" + extra[0].Value)
		for _, h := range extra[1:] {
			log.Warn().Str("op", "extractor/command").Str("header", h.Name).Msg("header dropped, only one extra header is supported")
		}
	}
	return cmd
}

func (y *YTDLP) inspectCommand(req Request) *ytdlp.Command {
	return y.command(req).DumpJSON().SkipDownload()
}

func (y *YTDLP) downloadCommand(req Request) *ytdlp.Command {
	cmd := y.command(req).PrintJSON().ForceOverwrites().Output(req.OutputTemplate)
	if req.RestrictFilenames {
		cmd = cmd.RestrictFilenames()
	}
	if req.RecodeVideo != "" {
		cmd = cmd.MergeOutputFormat(req.RecodeVideo).RecodeVideo(req.RecodeVideo)
	}
	if req.Progress != nil {
		notify := req.Progress
		cmd = cmd.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			notify(toProgress(update))
		})
	}
	return cmd
}

// Inspect fetches metadata only; no media is written.
func (y *YTDLP) Inspect(ctx context.Context, req Request) (*Metadata, error) {
	cmd := y.inspectCommand(req)

	log.Debug().Str("op", "extractor/inspect").Str("url", req.URL).Str("format", req.Format).Msg("running yt-dlp")
	res, err := cmd.Run(ctx, req.URL)
	if err != nil {
		return nil, engineError(res, err)
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("error parsing yt-dlp output: %w", err)
	}
	if len(infos) == 0 {
		return nil, errors.New("yt-dlp returned no metadata")
	}
	return project(infos[0]), nil
}

// Download fetches the media into the location named by req.OutputTemplate.
func (y *YTDLP) Download(ctx context.Context, req Request) (*Output, error) {
	cmd := y.downloadCommand(req)

	log.Debug().Str("op", "extractor/download").Str("url", req.URL).Str("format", req.Format).
		Str("output", req.OutputTemplate).Msg("running yt-dlp")
	res, err := cmd.Run(ctx, req.URL)
	if err != nil {
		return nil, engineError(res, err)
	}

	out := &Output{}
	if infos, err := res.GetExtractedInfo(); err == nil && len(infos) > 0 && infos[0].Filename != nil {
		out.Filename = *infos[0].Filename
	}
	return out, nil
}

func project(info *ytdlp.ExtractedInfo) *Metadata {
	md := &Metadata{
		ID:          info.ID,
		Title:       info.Title,
		Duration:    info.Duration,
		Thumbnail:   info.Thumbnail,
		Uploader:    info.Uploader,
		Description: info.Description,
	}
	if info.VCodec != nil && IsVideoCodec(*info.VCodec) {
		md.HasVideo = true
	}
	for _, f := range info.Formats {
		if f != nil && f.VCodec != nil && IsVideoCodec(*f.VCodec) {
			md.HasVideo = true
			break
		}
	}
	return md
}

func toProgress(update ytdlp.ProgressUpdate) Progress {
	p := Progress{
		Status:          string(update.Status),
		DownloadedBytes: update.DownloadedBytes,
		TotalBytes:      update.TotalBytes,
		Percent:         percentOf(update.DownloadedBytes, update.TotalBytes),
		Filename:        update.Filename,
	}
	return p
}

func percentOf(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}

// engineError prefers yt-dlp's own "ERROR:" lines over the generic exit status.
func engineError(res *ytdlp.Result, err error) error {
	if res != nil {
		if msg := lastErrorLine(res.Stderr); msg != "" {
			return errors.New(msg)
		}
	}
	return err
}

func lastErrorLine(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	return ""
}
