package service

import (
	"context"
	"sync"

	"fleet-dashboard/internal/backend"
	"fleet-dashboard/internal/model"
)

func ptr[T any](v T) *T {
	return &v
}

type fakeBackend struct {
	mu sync.Mutex

	positions    []model.VehiclePosition
	positionsErr error
	jobs         []model.Job
	jobsErr      error
	createErr    error
	deleteErr    error
	refreshErr   error

	// afterCreate runs once CreateJob has stored the job.
	afterCreate func()

	calls []string
}

var _ backend.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) ListPositions(ctx context.Context) ([]model.VehiclePosition, error) {
	f.record("ListPositions")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.positions, f.positionsErr
}

func (f *fakeBackend) ListJobs(ctx context.Context) ([]model.Job, error) {
	f.record("ListJobs")
	return f.jobs, f.jobsErr
}

func (f *fakeBackend) GetJob(ctx context.Context, id string) (*model.Job, error) {
	f.record("GetJob " + id)
	for _, j := range f.jobs {
		if j.ID == id {
			job := j
			return &job, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (f *fakeBackend) CreateJob(ctx context.Context, input model.JobInput) (*model.Job, error) {
	f.record("CreateJob " + input.JobCode)
	if f.createErr != nil {
		return nil, f.createErr
	}
	job := model.Job{ID: "0b7e1f0c-1c55-4d57-9a4f-8f4c9bb0b001", JobCode: input.JobCode, Name: input.JobName, Latitude: input.Latitude, Longitude: input.Longitude}
	f.jobs = append(f.jobs, job)
	if f.afterCreate != nil {
		f.afterCreate()
	}
	return &job, nil
}

func (f *fakeBackend) UpdateJob(ctx context.Context, id string, input model.JobInput) (*model.Job, error) {
	f.record("UpdateJob " + id)
	for i, j := range f.jobs {
		if j.ID == id {
			f.jobs[i] = model.Job{ID: id, JobCode: input.JobCode, Name: input.JobName, Latitude: input.Latitude, Longitude: input.Longitude}
			job := f.jobs[i]
			return &job, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (f *fakeBackend) DeleteJob(ctx context.Context, id string) error {
	f.record("DeleteJob " + id)
	return f.deleteErr
}

func (f *fakeBackend) ClearJobAssignments(ctx context.Context, jobID string) error {
	f.record("ClearJobAssignments " + jobID)
	return nil
}

func (f *fakeBackend) RefreshPositions(ctx context.Context) error {
	f.record("RefreshPositions")
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.refreshErr
}

func (f *fakeBackend) UpdateVehicleType(ctx context.Context, vehicleID, vehicleType string) error {
	f.record("UpdateVehicleType " + vehicleID + " " + vehicleType)
	return nil
}
