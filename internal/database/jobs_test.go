package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"media-gateway/internal/config"
	"media-gateway/internal/extractor"
	"media-gateway/internal/media"
	"media-gateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *JobStore {
	t.Helper()
	db, err := Open(&config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "jobs.db")})
	require.NoError(t, err)
	return NewJobStore(db)
}

func TestJobStoreLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ev := media.JobEvent{JobID: "job-1", URL: "https://example.com/v", Quality: "720p", Title: "Clip", IsVideo: true, Status: media.StatusPending}
	store.JobUpdated(ev)

	job, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", job.Status)
	assert.Equal(t, "video", job.MediaKind)
	assert.Nil(t, job.CompletedAt)

	ev.Status = media.StatusDownloading
	ev.Progress = &extractor.Progress{Percent: 40}
	store.JobUpdated(ev)
	job, err = store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", job.Status, "progress ticks are not persisted")

	ev.Progress = nil
	ev.Status = media.StatusCompleted
	ev.File = "Clip.mp4"
	ev.Path = "/tmp/media_gateway/Clip.mp4"
	store.JobUpdated(ev)

	job, err = store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", job.Status)
	assert.Equal(t, "Clip.mp4", job.File)
	assert.NotNil(t, job.CompletedAt)
}

func TestJobStoreFailedAndMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.JobUpdated(media.JobEvent{JobID: "job-2", URL: "https://example.com/a", Status: media.StatusPending})
	store.JobUpdated(media.JobEvent{JobID: "job-2", Status: media.StatusFailed, Error: "Download failed: boom"})

	job, err := store.Get(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, "failed", job.Status)
	assert.Equal(t, "other", job.MediaKind)
	assert.Equal(t, "Download failed: boom", job.Error)

	_, err = store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobStoreListAndPrune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := models.Job{ID: "old", URL: "https://example.com/old", Status: "completed", CreatedAt: time.Now().Add(-48 * time.Hour)}
	require.NoError(t, store.db.Create(&old).Error)
	store.JobUpdated(media.JobEvent{JobID: "new", URL: "https://example.com/new", Status: media.StatusPending})

	jobs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "new", jobs[0].ID)

	n, err := store.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	jobs, err = store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "new", jobs[0].ID)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
