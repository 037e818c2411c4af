// Package backend describes the hosted data store the dashboard reads
// vehicle positions from and keeps job records in.
package backend

import (
	"context"
	"errors"

	"fleet-dashboard/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with existing data")
)

type PositionSource interface {
	ListPositions(ctx context.Context) ([]model.VehiclePosition, error)
}

type JobRoster interface {
	ListJobs(ctx context.Context) ([]model.Job, error)
}

type JobStore interface {
	JobRoster
	GetJob(ctx context.Context, id string) (*model.Job, error)
	CreateJob(ctx context.Context, input model.JobInput) (*model.Job, error)
	UpdateJob(ctx context.Context, id string, input model.JobInput) (*model.Job, error)
	DeleteJob(ctx context.Context, id string) error
}

type AssignmentStore interface {
	// ClearJobAssignments detaches every vehicle position from the job.
	ClearJobAssignments(ctx context.Context, jobID string) error
	// RefreshPositions asks the backend to recompute the latest-positions
	// view after job changes.
	RefreshPositions(ctx context.Context) error
}

type VehicleStore interface {
	UpdateVehicleType(ctx context.Context, vehicleID, vehicleType string) error
}

type Backend interface {
	PositionSource
	JobStore
	AssignmentStore
	VehicleStore
}
