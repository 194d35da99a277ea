// Package service coordinates roster runs: the synchronous solve path and
// the async job lifecycle QUEUED -> IN_PROGRESS -> {COMPLETED, FAILED,
// CANCELLED} backed by an injected run store.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/repository"
	"github.com/amara/rosterd/internal/roster"
)

// Roster service errors.
var (
	ErrRunNotFound       = errors.New("run not found")
	ErrRunNotCancellable = errors.New("run is not cancellable")
)

// RunStore is the persistence port for async runs.
type RunStore interface {
	Create(ctx context.Context, run *repository.RosterRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.RosterRun, error)
	Update(ctx context.Context, run *repository.RosterRun) error
}

// RosterService runs roster solves.
type RosterService struct {
	store   RunStore
	sem     chan struct{}
	mu      sync.Mutex
	cancels map[uuid.UUID]*atomic.Bool
}

// NewRosterService creates a service with the given store and async worker
// count.
func NewRosterService(store RunStore, workers int) *RosterService {
	if workers < 1 {
		workers = 1
	}
	return &RosterService{
		store:   store,
		sem:     make(chan struct{}, workers),
		cancels: make(map[uuid.UUID]*atomic.Bool),
	}
}

// SolveSync parses and solves an input document synchronously.
func (s *RosterService) SolveSync(ctx context.Context, raw []byte) (*model.Output, error) {
	var in model.Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("invalid input document: %w", err)
	}
	return roster.Run(ctx, &in, roster.RunOptions{
		Cancelled: func() bool { return ctx.Err() != nil },
	})
}

// Submit queues an async run and returns its id. The input document is
// validated lazily by the worker; malformed JSON fails fast here.
func (s *RosterService) Submit(ctx context.Context, raw []byte) (uuid.UUID, error) {
	if !json.Valid(raw) {
		return uuid.Nil, errors.New("invalid input document: not JSON")
	}

	run := &repository.RosterRun{
		ID:          uuid.New(),
		Status:      model.RunStatusQueued,
		SubmittedAt: time.Now().UTC(),
		Input:       raw,
	}
	if err := s.store.Create(ctx, run); err != nil {
		return uuid.Nil, err
	}

	flag := &atomic.Bool{}
	s.mu.Lock()
	s.cancels[run.ID] = flag
	s.mu.Unlock()

	go s.execute(run.ID, raw, flag)

	return run.ID, nil
}

// Get returns the run record for an id.
func (s *RosterService) Get(ctx context.Context, id uuid.UUID) (*repository.RosterRun, error) {
	run, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRosterRunNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

// Cancel requests cooperative cancellation of a queued or running job.
func (s *RosterService) Cancel(ctx context.Context, id uuid.UUID) error {
	run, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if run.Status != model.RunStatusQueued && run.Status != model.RunStatusInProgress {
		return ErrRunNotCancellable
	}

	s.mu.Lock()
	flag, ok := s.cancels[id]
	s.mu.Unlock()
	if !ok {
		return ErrRunNotCancellable
	}
	flag.Store(true)
	return nil
}

// execute is the async worker body for one run.
func (s *RosterService) execute(id uuid.UUID, raw []byte, cancelFlag *atomic.Bool) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	defer func() {
		s.mu.Lock()
		delete(s.cancels, id)
		s.mu.Unlock()
	}()

	ctx := context.Background()
	run, err := s.store.GetByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("run", id.String()).Msg("async run vanished")
		return
	}

	if cancelFlag.Load() {
		s.finish(ctx, run, model.RunStatusCancelled, nil, nil)
		return
	}

	now := time.Now().UTC()
	run.Status = model.RunStatusInProgress
	run.StartedAt = &now
	if err := s.store.Update(ctx, run); err != nil {
		log.Error().Err(err).Str("run", id.String()).Msg("failed to mark run in progress")
		return
	}

	var in model.Input
	if err := json.Unmarshal(raw, &in); err != nil {
		s.finish(ctx, run, model.RunStatusFailed, nil, err)
		return
	}

	out, err := roster.Run(ctx, &in, roster.RunOptions{
		Cancelled: cancelFlag.Load,
	})
	switch {
	case errors.Is(err, roster.ErrCancelled):
		s.finish(ctx, run, model.RunStatusCancelled, nil, nil)
	case err != nil:
		s.finish(ctx, run, model.RunStatusFailed, nil, err)
	default:
		s.finish(ctx, run, model.RunStatusCompleted, out, nil)
	}
}

func (s *RosterService) finish(ctx context.Context, run *repository.RosterRun, status string, out *model.Output, cause error) {
	now := time.Now().UTC()
	run.Status = status
	run.FinishedAt = &now
	if run.StartedAt != nil {
		run.WallTime = now.Sub(*run.StartedAt).Seconds()
	}
	if cause != nil {
		run.Error = cause.Error()
	}
	if out != nil {
		if encoded, err := json.Marshal(out); err == nil {
			run.Result = encoded
			run.WarningCount = len(out.Warnings)
		}
	}
	if err := s.store.Update(ctx, run); err != nil {
		log.Error().Err(err).Str("run", run.ID.String()).Msg("failed to persist run result")
	}

	log.Info().
		Str("run", run.ID.String()).
		Str("status", status).
		Float64("wallTimeSeconds", run.WallTime).
		Msg("roster run finished")
}
