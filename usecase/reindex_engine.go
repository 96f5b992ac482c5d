package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ReindexGuard is the only cross-call shared mutable state of the full
// reindex path: a request-pending flag and a running flag, both atomic.
// TryStart records the request unconditionally and claims the run only
// if no worker holds it; Finish releases the claim on every exit path.
type ReindexGuard struct {
	// requested records that a request arrived, including ones absorbed
	// mid-run; coalescing decisions read only running.
	requested atomic.Bool
	running   atomic.Bool
}

// TryStart marks a reindex as requested and reports whether the caller
// won the right to run it. Losing callers coalesce into the in-flight
// run.
func (g *ReindexGuard) TryStart() bool {
	g.requested.Store(true)
	return g.running.CompareAndSwap(false, true)
}

// Finish clears the running flag so the next request starts fresh.
func (g *ReindexGuard) Finish() {
	g.requested.Store(false)
	g.running.Store(false)
}

// Running reports whether a full reindex worker is active.
func (g *ReindexGuard) Running() bool {
	return g.running.Load()
}

// ReindexTask is the handle of one background full-reindex run. The
// caller may discard it, but tests and the HTTP surface can await
// completion deterministically instead of racing a detached goroutine.
type ReindexTask struct {
	RunID string

	done   chan struct{}
	errors []string
}

// Wait blocks until the run finishes and returns its error messages.
func (t *ReindexTask) Wait() []string {
	<-t.done
	return t.errors
}

// Done exposes the completion channel for select-based callers.
func (t *ReindexTask) Done() <-chan struct{} {
	return t.done
}

// ReindexEngine drives full-corpus reindexing with single-flight
// semantics: at most one worker runs at a time, and requests arriving
// mid-run are absorbed by the in-flight run.
type ReindexEngine struct {
	baseCtx  context.Context
	indexAll *IndexAllResponsesUsecase
	guard    ReindexGuard
	logger   *slog.Logger

	mu      sync.Mutex
	current *ReindexTask
}

// NewReindexEngine builds the engine. Workers execute on baseCtx, so
// only its cancellation (service shutdown) interrupts a run; the
// lifetime of the triggering call is irrelevant.
func NewReindexEngine(baseCtx context.Context, indexAll *IndexAllResponsesUsecase, logger *slog.Logger) *ReindexEngine {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReindexEngine{
		baseCtx:  baseCtx,
		indexAll: indexAll,
		logger:   logger,
	}
}

// RequestFullReindex starts a background run and returns its handle, or
// nil when an in-flight run absorbs the request. The triggering call
// returns immediately either way; the worker runs on the engine's base
// context and keeps going after the caller is gone.
func (e *ReindexEngine) RequestFullReindex() *ReindexTask {
	if !e.guard.TryStart() {
		e.logger.Info("full reindex already running, request coalesced")
		return nil
	}

	task := &ReindexTask{
		RunID: uuid.NewString(),
		done:  make(chan struct{}),
	}
	e.mu.Lock()
	e.current = task
	e.mu.Unlock()

	e.logger.Info("starting full reindex", "run_id", task.RunID)

	go func() {
		defer func() {
			e.guard.Finish()
			close(task.done)
		}()
		task.errors = e.indexAll.Execute(e.baseCtx)
	}()

	return task
}

// Current returns the handle of the most recent run, which may already
// be finished. Coalesced callers await the absorbing run through it.
func (e *ReindexEngine) Current() *ReindexTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Running reports whether a full reindex is in flight.
func (e *ReindexEngine) Running() bool {
	return e.guard.Running()
}
