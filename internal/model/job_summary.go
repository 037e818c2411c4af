package model

import "time"

const (
	UnassignedJobCode = "Unassigned"
	UnassignedJobName = "No Job Assigned"
)

// JobSummary aggregates the vehicles currently on one job. JobID is nil for
// the Unassigned bucket.
type JobSummary struct {
	JobID        *string  `json:"job_id"`
	JobCode      string   `json:"job_code"`
	JobName      string   `json:"job_name"`
	VehicleCount int      `json:"vehicle_count"`
	VehicleNames []string `json:"vehicle_names"`
}

// DashboardState is the result of one load. It is never modified after it
// has been published; a newer load replaces it as a whole.
type DashboardState struct {
	Vehicles    []VehiclePosition `json:"vehicles"`
	Summary     []JobSummary      `json:"summary"`
	LastUpdated *time.Time        `json:"last_updated"`
	Error       string            `json:"error,omitempty"`
}
