package scan

import (
	"context"
	"sync"
	"time"

	"github.com/raysh454/vulnx/internal/logging"
)

// Lifecycle owns one session's RequestState. Submit may be called at any
// time; only the most recent submission is allowed to change the state once
// its response arrives.
type Lifecycle struct {
	svc    Service
	logger logging.Logger
	now    func() time.Time

	mu         sync.Mutex
	notifyMu   sync.Mutex // held while observers run; orders deliveries
	state      State
	generation uint64
	observers  map[int]func(State)
	nextObs    int

	inflight sync.WaitGroup
}

// Option customises a Lifecycle.
type Option func(*Lifecycle)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) { l.now = now }
}

func NewLifecycle(svc Service, logger logging.Logger, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		svc:       svc,
		logger:    logger,
		now:       time.Now,
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.state = State{Status: StatusIdle, UpdatedAt: l.now().UTC()}
	return l
}

// Submit moves the state to Pending, discarding any earlier result or error,
// and sends exactly one request to the Service in the background. It returns
// the generation token of the new request.
//
// The caller must have validated req; see Request.Validate. ctx is passed to
// the Service as-is, so callers that answer an HTTP request should detach it
// with context.WithoutCancel.
func (l *Lifecycle) Submit(ctx context.Context, req Request) uint64 {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	sent := req
	l.state = State{
		Status:     StatusPending,
		Generation: gen,
		Request:    &sent,
		UpdatedAt:  l.now().UTC(),
	}
	l.publishLocked()

	l.logger.Info("scan submitted",
		logging.Field{Key: "generation", Value: gen},
		logging.Field{Key: "url", Value: req.URL},
		logging.Field{Key: "mode", Value: string(req.Mode)})

	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		findings, err := l.svc.Scan(ctx, req)
		l.resolve(gen, req, findings, err)
	}()

	return gen
}

func (l *Lifecycle) resolve(gen uint64, req Request, findings []Finding, err error) {
	l.mu.Lock()
	if gen != l.generation {
		current := l.generation
		l.mu.Unlock()
		l.logger.Debug("discarding superseded scan response",
			logging.Field{Key: "generation", Value: gen},
			logging.Field{Key: "current_generation", Value: current})
		return
	}

	next := State{
		Generation: gen,
		Request:    &req,
		UpdatedAt:  l.now().UTC(),
	}
	if err != nil {
		next.Status = StatusFailed
		next.Error = err.Error()
		if next.Error == "" {
			next.Error = "An error occurred"
		}
	} else {
		next.Status = StatusSucceeded
		next.Findings = append(make([]Finding, 0, len(findings)), findings...)
	}
	l.state = next
	l.publishLocked()

	if err != nil {
		l.logger.Warn("scan failed",
			logging.Field{Key: "generation", Value: gen},
			logging.Field{Key: "error", Value: next.Error})
	} else {
		l.logger.Info("scan succeeded",
			logging.Field{Key: "generation", Value: gen},
			logging.Field{Key: "findings", Value: len(next.Findings)})
	}
}

// State returns a copy of the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// Observe registers fn to be called after every applied transition,
// including the move to Pending. Superseded responses never reach fn.
// fn runs on the goroutine that made the transition; it must not block and
// must not call back into the Lifecycle.
// The returned func unregisters fn.
func (l *Lifecycle) Observe(fn func(State)) (cancel func()) {
	l.mu.Lock()
	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.observers, id)
		l.mu.Unlock()
	}
}

// publishLocked must be called with l.mu held; it releases l.mu. Observers
// see transitions in the order they were applied because notifyMu is taken
// before l.mu is released.
func (l *Lifecycle) publishLocked() {
	st := l.state.clone()
	fns := make([]func(State), 0, len(l.observers))
	for _, fn := range l.observers {
		fns = append(fns, fn)
	}
	l.notifyMu.Lock()
	l.mu.Unlock()
	defer l.notifyMu.Unlock()

	for _, fn := range fns {
		fn(st.clone())
	}
}

// Wait blocks until every request issued so far has returned from the
// Service, whether or not its outcome was applied.
func (l *Lifecycle) Wait() {
	l.inflight.Wait()
}
