package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"fleet-dashboard/internal/backend"
	"fleet-dashboard/internal/model"
)

const LoadErrorMessage = "Failed to load latest vehicle positions."

// ErrSuperseded is returned by Reload when a newer reload started before it
// could publish its result.
var ErrSuperseded = fmt.Errorf("%w: reload superseded by a newer one", ErrConflict)

// DashboardService runs the load pipeline and holds the published state.
// A reload cancels the one in flight, so the newest request always wins.
type DashboardService struct {
	positions    backend.PositionSource
	roster       backend.JobRoster
	includeEmpty bool
	log          zerolog.Logger
	now          func() time.Time

	state atomic.Pointer[model.DashboardState]

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	listeners  []func(*model.DashboardState)

	// notifyMu keeps listener calls in publish order.
	notifyMu sync.Mutex
}

func NewDashboardService(positions backend.PositionSource, roster backend.JobRoster, includeEmpty bool, log zerolog.Logger) *DashboardService {
	s := &DashboardService{
		positions:    positions,
		roster:       roster,
		includeEmpty: includeEmpty,
		log:          log,
		now:          time.Now,
	}
	s.state.Store(&model.DashboardState{
		Vehicles: []model.VehiclePosition{},
		Summary:  []model.JobSummary{},
	})
	return s
}

// State returns the last published state. Callers must not modify it.
func (s *DashboardService) State() *model.DashboardState {
	return s.state.Load()
}

// OnPublish registers fn to be called with every newly published state.
func (s *DashboardService) OnPublish(fn func(*model.DashboardState)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Reload fetches positions, classifies them and rebuilds the job summary.
// On failure the previous vehicles and summary stay in place and the state
// carries LoadErrorMessage.
func (s *DashboardService) Reload(ctx context.Context) (*model.DashboardState, error) {
	loadCtx, gen := s.begin(ctx)
	defer s.finish(gen)

	positions, err := s.positions.ListPositions(loadCtx)
	if err == nil {
		vehicles := Enrich(positions)
		var summary []model.JobSummary
		summary, err = BuildSummary(loadCtx, vehicles, s.roster, s.includeEmpty)
		if err == nil {
			now := s.now().UTC()
			next := &model.DashboardState{
				Vehicles:    vehicles,
				Summary:     summary,
				LastUpdated: &now,
			}
			if !s.publish(gen, next) {
				return nil, ErrSuperseded
			}
			s.log.Info().
				Int("vehicles", len(vehicles)).
				Int("jobs", len(summary)).
				Msg("dashboard reloaded")
			return next, nil
		}
	}

	if s.superseded(gen) && errors.Is(err, context.Canceled) {
		return nil, ErrSuperseded
	}

	s.log.Error().Err(err).Msg("dashboard reload failed")
	prev := s.State()
	failed := &model.DashboardState{
		Vehicles:    prev.Vehicles,
		Summary:     prev.Summary,
		LastUpdated: prev.LastUpdated,
		Error:       LoadErrorMessage,
	}
	if !s.publish(gen, failed) {
		return nil, ErrSuperseded
	}
	return failed, fmt.Errorf("reload dashboard: %w", err)
}

func (s *DashboardService) begin(ctx context.Context) (context.Context, uint64) {
	loadCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	s.cancel = cancel
	return loadCtx, s.generation
}

func (s *DashboardService) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *DashboardService) superseded(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation != gen
}

// publish swaps in next unless a newer reload has started meanwhile.
// Listeners must not block; they run in publish order.
func (s *DashboardService) publish(gen uint64, next *model.DashboardState) bool {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return false
	}
	s.state.Store(next)
	listeners := append([]func(*model.DashboardState){}, s.listeners...)
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return true
}
