package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fleet-dashboard/internal/backend"
	"fleet-dashboard/internal/model"
)

// Backend serves the backend contract straight from Postgres.
type Backend struct {
	positions *VehiclePositionRepository
	jobs      *JobRepository
	vehicles  *VehicleRepository
}

var _ backend.Backend = (*Backend)(nil)

func NewBackend(db *gorm.DB) *Backend {
	return &Backend{
		positions: NewVehiclePositionRepository(db),
		jobs:      NewJobRepository(db),
		vehicles:  NewVehicleRepository(db),
	}
}

func (b *Backend) ListPositions(ctx context.Context) ([]model.VehiclePosition, error) {
	positions, err := b.positions.ListLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", translate(err))
	}
	return positions, nil
}

func (b *Backend) ListJobs(ctx context.Context) ([]model.Job, error) {
	jobs, err := b.jobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", translate(err))
	}
	return jobs, nil
}

func (b *Backend) GetJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := b.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, translate(err))
	}
	return job, nil
}

func (b *Backend) CreateJob(ctx context.Context, input model.JobInput) (*model.Job, error) {
	job := jobFromInput("", input)
	if err := b.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job %s: %w", input.JobCode, translate(err))
	}
	return job, nil
}

func (b *Backend) UpdateJob(ctx context.Context, id string, input model.JobInput) (*model.Job, error) {
	job := jobFromInput(id, input)
	if err := b.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("update job %s: %w", id, translate(err))
	}
	return job, nil
}

func (b *Backend) DeleteJob(ctx context.Context, id string) error {
	if err := b.jobs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, translate(err))
	}
	return nil
}

func (b *Backend) ClearJobAssignments(ctx context.Context, jobID string) error {
	if _, err := b.positions.ClearJob(ctx, jobID); err != nil {
		return fmt.Errorf("clear assignments of job %s: %w", jobID, translate(err))
	}
	return nil
}

func (b *Backend) RefreshPositions(ctx context.Context) error {
	if err := b.positions.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh vehicle positions: %w", translate(err))
	}
	return nil
}

func (b *Backend) UpdateVehicleType(ctx context.Context, vehicleID, vehicleType string) error {
	if err := b.vehicles.UpdateType(ctx, vehicleID, vehicleType); err != nil {
		return fmt.Errorf("update type of vehicle %s: %w", vehicleID, translate(err))
	}
	return nil
}

func jobFromInput(id string, input model.JobInput) *model.Job {
	return &model.Job{
		ID:        id,
		JobCode:   input.JobCode,
		Name:      input.JobName,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	}
}

// translate maps gorm errors onto the backend contract. The database must be
// opened with TranslateError for duplicate keys to be recognised.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", backend.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", backend.ErrConflict, err)
	default:
		return err
	}
}
