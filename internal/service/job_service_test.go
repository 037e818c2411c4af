package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-dashboard/internal/backend"
	"fleet-dashboard/internal/model"
)

const (
	existingJobID = "6f1c2d4e-8a3b-4c5d-9e7f-0a1b2c3d4e5f"
	vehicleID     = "2b9d4f7e-1c3a-4e5b-8d6f-7a8b9c0d1e2f"
)

type recordingReloader struct {
	backend *fakeBackend
	err     error
}

func (r *recordingReloader) Reload(ctx context.Context) (*model.DashboardState, error) {
	r.backend.record("Reload")
	return &model.DashboardState{}, r.err
}

func newJobServiceFixture() (*JobService, *fakeBackend, *recordingReloader) {
	f := &fakeBackend{jobs: []model.Job{{ID: existingJobID, JobCode: "J-1", Name: "Civil Site 1"}}}
	r := &recordingReloader{backend: f}
	svc := NewJobService(f, f, f, r, []string{"Civil", "Pipeline"}, zerolog.Nop())
	return svc, f, r
}

func validInput() model.JobInput {
	return model.JobInput{
		JobCode:   "  J-2 ",
		JobName:   "Pipeline North",
		Latitude:  ptr(0.0),
		Longitude: ptr(-119.2),
	}
}

func TestCreateJobRefreshesThenReloads(t *testing.T) {
	svc, f, _ := newJobServiceFixture()

	job, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "J-2", job.JobCode)
	assert.Equal(t, []string{"CreateJob J-2", "RefreshPositions", "Reload"}, f.Calls())
}

func TestCreateJobValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *model.JobInput)
		want   string
	}{
		{"blank code", func(in *model.JobInput) { in.JobCode = "   " }, "job_code is required"},
		{"missing name", func(in *model.JobInput) { in.JobName = "" }, "job_name is required"},
		{"missing latitude", func(in *model.JobInput) { in.Latitude = nil }, "latitude is required"},
		{"latitude out of range", func(in *model.JobInput) { in.Latitude = ptr(90.5) }, "latitude must be <= 90"},
		{"longitude out of range", func(in *model.JobInput) { in.Longitude = ptr(-181.0) }, "longitude must be >= -180"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, f, _ := newJobServiceFixture()
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, f.Calls(), "validation must run before any backend call")
		})
	}
}

func TestCreateJobConflict(t *testing.T) {
	svc, f, _ := newJobServiceFixture()
	f.createErr = backend.ErrConflict

	_, err := svc.Create(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, []string{"CreateJob J-2"}, f.Calls())
}

func TestCreateJobSurvivesRefreshFailure(t *testing.T) {
	svc, f, r := newJobServiceFixture()
	f.refreshErr = errors.New("rpc failed")
	r.err = errors.New("reload failed")

	_, err := svc.Create(context.Background(), validInput())
	assert.NoError(t, err)
	assert.Equal(t, []string{"CreateJob J-2", "RefreshPositions", "Reload"}, f.Calls())
}

func TestUpdateJob(t *testing.T) {
	svc, f, _ := newJobServiceFixture()

	job, err := svc.Update(context.Background(), existingJobID, validInput())
	require.NoError(t, err)
	assert.Equal(t, "Pipeline North", job.Name)
	assert.Equal(t, []string{"UpdateJob " + existingJobID, "RefreshPositions", "Reload"}, f.Calls())

	_, err = svc.Update(context.Background(), "0d8e6c1a-0000-4000-8000-000000000000", validInput())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(context.Background(), "not-a-uuid", validInput())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteJobClearsAssignmentsFirst(t *testing.T) {
	svc, f, _ := newJobServiceFixture()

	require.NoError(t, svc.Delete(context.Background(), existingJobID))
	assert.Equal(t, []string{
		"ClearJobAssignments " + existingJobID,
		"DeleteJob " + existingJobID,
		"RefreshPositions",
		"Reload",
	}, f.Calls())
}

func TestDeleteJobNotFound(t *testing.T) {
	svc, f, _ := newJobServiceFixture()
	f.deleteErr = backend.ErrNotFound

	err := svc.Delete(context.Background(), existingJobID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, f.Calls(), "RefreshPositions")
}

func TestGetJob(t *testing.T) {
	svc, _, _ := newJobServiceFixture()

	job, err := svc.Get(context.Background(), existingJobID)
	require.NoError(t, err)
	assert.Equal(t, "J-1", job.JobCode)

	_, err = svc.Get(context.Background(), "UNASSIGNED")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateVehicleType(t *testing.T) {
	svc, f, _ := newJobServiceFixture()

	require.NoError(t, svc.UpdateVehicleType(context.Background(), vehicleID, " pipeline"))
	assert.Equal(t, []string{"UpdateVehicleType " + vehicleID + " Pipeline", "Reload"}, f.Calls())

	err := svc.UpdateVehicleType(context.Background(), vehicleID, "Electrical")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Civil, Pipeline")

	err = svc.UpdateVehicleType(context.Background(), " ", "Civil")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateVehicleTypeRejectsMalformedID(t *testing.T) {
	svc, f, _ := newJobServiceFixture()

	err := svc.UpdateVehicleType(context.Background(), "truck-7", "Civil")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "vehicle id must be a UUID")
	assert.Empty(t, f.Calls())
}

func TestCreateJobReloadOutlivesCallerCancellation(t *testing.T) {
	f := &fakeBackend{positions: []model.VehiclePosition{{VehicleID: vehicleID, VehicleName: "Truck 1"}}}
	dashboard := NewDashboardService(f, f, false, zerolog.Nop())
	svc := NewJobService(f, f, f, dashboard, []string{"Civil"}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.afterCreate = cancel

	job, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.NotNil(t, job)

	state := dashboard.State()
	assert.Empty(t, state.Error)
	assert.NotNil(t, state.LastUpdated)
	assert.Len(t, state.Vehicles, 1)
	assert.Equal(t, []string{"CreateJob J-2", "RefreshPositions", "ListPositions"}, f.Calls())
}

func TestUpdateVehicleTypeReloadOutlivesCallerCancellation(t *testing.T) {
	f := &fakeBackend{positions: []model.VehiclePosition{{VehicleID: vehicleID, VehicleName: "Truck 1"}}}
	dashboard := NewDashboardService(f, f, false, zerolog.Nop())
	svc := NewJobService(f, f, f, dashboard, []string{"Civil"}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, svc.UpdateVehicleType(ctx, vehicleID, "civil"))
	state := dashboard.State()
	assert.Empty(t, state.Error)
	assert.NotNil(t, state.LastUpdated)
}
