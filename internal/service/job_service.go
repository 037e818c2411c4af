package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-dashboard/internal/backend"
	"fleet-dashboard/internal/model"
	"fleet-dashboard/internal/utils"
)

const followUpTimeout = time.Minute

type reloader interface {
	Reload(ctx context.Context) (*model.DashboardState, error)
}

// JobService edits jobs and vehicle type tags. Every successful change asks
// the backend to refresh the positions view and then reloads the dashboard.
type JobService struct {
	jobs         backend.JobStore
	assignments  backend.AssignmentStore
	vehicles     backend.VehicleStore
	dashboard    reloader
	vehicleTypes []string
	validate     *validator.Validate
	log          zerolog.Logger
}

func NewJobService(
	jobs backend.JobStore,
	assignments backend.AssignmentStore,
	vehicles backend.VehicleStore,
	dashboard reloader,
	vehicleTypes []string,
	log zerolog.Logger,
) *JobService {
	return &JobService{
		jobs:         jobs,
		assignments:  assignments,
		vehicles:     vehicles,
		dashboard:    dashboard,
		vehicleTypes: vehicleTypes,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		log:          log,
	}
}

func (s *JobService) List(ctx context.Context) ([]model.Job, error) {
	jobs, err := s.jobs.ListJobs(ctx)
	if err != nil {
		return nil, translateBackendError(err)
	}
	return jobs, nil
}

func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	if err := validateID("job", id); err != nil {
		return nil, err
	}
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, translateBackendError(err)
	}
	return job, nil
}

func (s *JobService) Create(ctx context.Context, input model.JobInput) (*model.Job, error) {
	input, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.CreateJob(ctx, input)
	if err != nil {
		return nil, translateBackendError(err)
	}
	s.log.Info().Str("job_id", job.ID).Str("job_code", job.JobCode).Msg("job created")

	s.refresh(ctx)
	return job, nil
}

func (s *JobService) Update(ctx context.Context, id string, input model.JobInput) (*model.Job, error) {
	if err := validateID("job", id); err != nil {
		return nil, err
	}
	input, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.UpdateJob(ctx, id, input)
	if err != nil {
		return nil, translateBackendError(err)
	}
	s.log.Info().Str("job_id", job.ID).Str("job_code", job.JobCode).Msg("job updated")

	s.refresh(ctx)
	return job, nil
}

// Delete detaches the job's vehicles before removing the job itself.
func (s *JobService) Delete(ctx context.Context, id string) error {
	if err := validateID("job", id); err != nil {
		return err
	}

	if err := s.assignments.ClearJobAssignments(ctx, id); err != nil {
		return translateBackendError(err)
	}
	if err := s.jobs.DeleteJob(ctx, id); err != nil {
		return translateBackendError(err)
	}
	s.log.Info().Str("job_id", id).Msg("job deleted")

	s.refresh(ctx)
	return nil
}

// UpdateVehicleType sets the type tag of a vehicle. The tag must be one of
// the configured options; it is stored with the option's spelling.
func (s *JobService) UpdateVehicleType(ctx context.Context, vehicleID, vehicleType string) error {
	if err := validateID("vehicle", vehicleID); err != nil {
		return err
	}
	canonical, ok := s.matchVehicleType(vehicleType)
	if !ok {
		return fmt.Errorf("%w: vehicle type must be one of %s", ErrInvalidInput, strings.Join(s.vehicleTypes, ", "))
	}

	if err := s.vehicles.UpdateVehicleType(ctx, vehicleID, canonical); err != nil {
		return translateBackendError(err)
	}
	s.log.Info().Str("vehicle_id", vehicleID).Str("vehicle_type", canonical).Msg("vehicle type updated")

	ctx, cancel := detach(ctx)
	defer cancel()
	if _, err := s.dashboard.Reload(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		s.log.Warn().Err(err).Msg("reload after vehicle type change failed")
	}
	return nil
}

func (s *JobService) VehicleTypes() []string {
	return append([]string(nil), s.vehicleTypes...)
}

func (s *JobService) matchVehicleType(raw string) (string, bool) {
	raw = utils.NormalizeTag(raw)
	for _, t := range s.vehicleTypes {
		if utils.NormalizeTag(t) == raw {
			return t, true
		}
	}
	return "", false
}

func (s *JobService) normalize(input model.JobInput) (model.JobInput, error) {
	input.JobCode = strings.TrimSpace(input.JobCode)
	input.JobName = strings.TrimSpace(input.JobName)

	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return input, fmt.Errorf("%w: %s", ErrInvalidInput, describeFieldErrors(fieldErrs))
		}
		return input, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return input, nil
}

// refresh runs after a committed change. Its failures are logged only: the
// change itself already succeeded and the next periodic load catches up.
func (s *JobService) refresh(ctx context.Context) {
	ctx, cancel := detach(ctx)
	defer cancel()
	if err := s.assignments.RefreshPositions(ctx); err != nil {
		s.log.Warn().Err(err).Msg("refresh of vehicle positions failed")
	}
	if _, err := s.dashboard.Reload(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		s.log.Warn().Err(err).Msg("reload after job change failed")
	}
}

// detach lets follow-up work outlive the caller, bounded by followUpTimeout.
// A caller hanging up after a committed write must not cancel the shared reload.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), followUpTimeout)
}

func validateID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s id must be a UUID", ErrInvalidInput, kind)
	}
	return nil
}

func describeFieldErrors(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := fieldNames[fe.Field()]
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", field, fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be <= %s", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

var fieldNames = map[string]string{
	"JobCode":   "job_code",
	"JobName":   "job_name",
	"Latitude":  "latitude",
	"Longitude": "longitude",
}

func translateBackendError(err error) error {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, backend.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}
