package models

import (
	"time"
)

// Job is the persisted record of one download request
type Job struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"` // job directory token
	URL         string     `gorm:"type:text;not null" json:"url"`
	Quality     string     `gorm:"type:varchar(32)" json:"quality"`
	Title       string     `gorm:"type:text" json:"title"`
	MediaKind   string     `gorm:"type:varchar(16)" json:"media_kind"` // video or other
	Status      string     `gorm:"type:varchar(20);index;default:'pending'" json:"status"`
	File        string     `gorm:"type:varchar(255)" json:"file"`
	Path        string     `gorm:"type:text" json:"path"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Job) TableName() string {
	return "jobs"
}
