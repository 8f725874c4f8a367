package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"media-gateway/internal/database"
	"media-gateway/internal/media"
	"media-gateway/internal/metrics"
	internalmodels "media-gateway/internal/models"
	"media-gateway/pkg/models"

	"github.com/gin-gonic/gin"
)

const (
	filesPath       = "/files"
	defaultJobLimit = 50
	maxJobLimit     = 200
)

// JobLister reads persisted job records.
type JobLister interface {
	List(ctx context.Context, limit int) ([]internalmodels.Job, error)
	Get(ctx context.Context, id string) (*internalmodels.Job, error)
}

type MediaHandler struct {
	Service *media.Service
	Jobs    JobLister
}

func NewMediaHandler(service *media.Service, jobs JobLister) *MediaHandler {
	return &MediaHandler{Service: service, Jobs: jobs}
}

// Root is the liveness check.
func (h *MediaHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{OK: true, Message: "media gateway online"})
}

// Info returns metadata for a media URL without downloading it.
func (h *MediaHandler) Info(c *gin.Context) {
	var req models.MediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, "info", err)
		return
	}

	md, err := h.Service.Info(context.WithoutCancel(c.Request.Context()), req.URL)
	if err != nil {
		abortError(c, "info", err)
		return
	}

	metrics.ObserveRequest("info", "ok")
	c.JSON(http.StatusOK, models.MediaInfo{
		Title:       md.Title,
		Duration:    md.Duration,
		Thumbnail:   md.Thumbnail,
		Uploader:    md.Uploader,
		Description: md.Description,
		Message:     "Metadata fetched",
	})
}

// Download fetches the media and answers with a same-origin retrieval URL.
// The engine keeps running if the client goes away.
func (h *MediaHandler) Download(c *gin.Context) {
	var req models.MediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, "download", err)
		return
	}

	res, err := h.Service.Download(context.WithoutCancel(c.Request.Context()), req.URL, req.Quality)
	if err != nil {
		abortError(c, "download", err)
		return
	}

	msg := "Download ready."
	if !res.Renamed {
		msg = "Download ready. Filename normalization failed; serving the file under its original name " + filepath.Base(res.Path) + "."
	}

	metrics.ObserveRequest("download", "ok")
	c.JSON(http.StatusOK, models.DownloadResponse{
		File:        res.File,
		Path:        res.Path,
		DownloadURL: requestOrigin(c) + filesPath + "/" + escapePath(res.File),
		Message:     msg,
		JobID:       res.JobID,
		Renamed:     res.Renamed,
	})
}

// ServeFile streams a file from the base directory as an attachment.
func (h *MediaHandler) ServeFile(c *gin.Context) {
	path, err := h.Service.Workspace().Resolve(c.Param("filename"))
	if err != nil {
		abortError(c, "files", err)
		return
	}
	metrics.ObserveRequest("files", "ok")
	metrics.FilesServed.Inc()
	c.FileAttachment(path, filepath.Base(path))
}

// ListJobs returns recent download jobs, newest first.
func (h *MediaHandler) ListJobs(c *gin.Context) {
	limit := defaultJobLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "limit must be a positive integer", Kind: media.KindValidation.String()})
			return
		}
		limit = min(n, maxJobLimit)
	}

	jobs, err := h.Jobs.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error(), Kind: media.KindInternal.String()})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *MediaHandler) GetJob(c *gin.Context) {
	job, err := h.Jobs.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Job not found", Kind: media.KindNotFound.String()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error(), Kind: media.KindInternal.String()})
		return
	}
	c.JSON(http.StatusOK, job)
}

func abortValidation(c *gin.Context, op string, err error) {
	metrics.ObserveRequest(op, media.KindValidation.String())
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error(), Kind: media.KindValidation.String()})
}

func abortError(c *gin.Context, op string, err error) {
	kind := media.KindOf(err)
	metrics.ObserveRequest(op, kind.String())
	c.AbortWithStatusJSON(statusFor(kind), models.ErrorResponse{Error: err.Error(), Kind: kind.String()})
}

func statusFor(kind media.Kind) int {
	switch kind {
	case media.KindValidation, media.KindUpstream, media.KindTraversal:
		return http.StatusBadRequest
	case media.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// requestOrigin rebuilds scheme://host of the incoming request, honouring
// reverse-proxy headers.
func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := firstValue(c.GetHeader("X-Forwarded-Proto")); p != "" {
		scheme = p
	}
	host := c.Request.Host
	if h := firstValue(c.GetHeader("X-Forwarded-Host")); h != "" {
		host = h
	}
	return scheme + "://" + host
}

func firstValue(header string) string {
	v, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(v)
}

func escapePath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
