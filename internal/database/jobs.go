package database

import (
	"context"
	"errors"
	"time"

	"media-gateway/internal/media"
	"media-gateway/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("job not found")

// JobStore persists download job records. It observes media.Service so every
// state change lands in the jobs table; progress ticks are not persisted.
type JobStore struct {
	db *gorm.DB
}

func NewJobStore(db *gorm.DB) *JobStore {
	return &JobStore{db: db}
}

// JobUpdated implements media.Observer. Write failures are logged only.
func (s *JobStore) JobUpdated(ev media.JobEvent) {
	if ev.Progress != nil {
		return
	}
	ctx := context.Background()

	var err error
	if ev.Status == media.StatusPending {
		kind := "other"
		if ev.IsVideo {
			kind = "video"
		}
		err = s.db.WithContext(ctx).Create(&models.Job{
			ID:        ev.JobID,
			URL:       ev.URL,
			Quality:   ev.Quality,
			Title:     ev.Title,
			MediaKind: kind,
			Status:    string(ev.Status),
		}).Error
	} else {
		updates := map[string]any{"status": string(ev.Status)}
		switch ev.Status {
		case media.StatusCompleted:
			updates["file"] = ev.File
			updates["path"] = ev.Path
			updates["completed_at"] = time.Now().UTC()
		case media.StatusFailed:
			updates["error"] = ev.Error
			updates["completed_at"] = time.Now().UTC()
		}
		err = s.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", ev.JobID).Updates(updates).Error
	}
	if err != nil {
		log.Error().Str("op", "database/jobs").Str("job_id", ev.JobID).Err(err).Msg("failed to record job state")
	}
}

// List returns the most recent jobs first.
func (s *JobStore) List(ctx context.Context, limit int) ([]models.Job, error) {
	jobs := []models.Job{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}

func (s *JobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// DeleteOlderThan removes records created before cutoff.
func (s *JobStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.Job{})
	return res.RowsAffected, res.Error
}
