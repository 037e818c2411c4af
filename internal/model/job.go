package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Job struct {
	ID        string   `gorm:"type:uuid;primaryKey" json:"id"`
	JobCode   string   `gorm:"type:varchar(64);uniqueIndex;not null" json:"job_code"`
	Name      string   `gorm:"type:varchar(255);not null" json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// JobInput is the editable part of a job, as submitted by the job form.
type JobInput struct {
	JobCode   string   `json:"job_code" validate:"required,max=64"`
	JobName   string   `json:"job_name" validate:"required,max=255"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}
