package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
	ErrCallTimeout     = errors.New("call timed out")
	ErrCallPanicked    = errors.New("call panicked")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// MaxFailures is the number of failures within FailureWindow that trips the breaker
	MaxFailures uint32
	// FailureWindow is the rolling period of the closed state after which failures are forgotten
	FailureWindow time.Duration
	// ResetTimeout is the period of the open state until transitioning to half-open
	ResetTimeout time.Duration
	// CallTimeout bounds every protected call; exceeding it counts as a failure
	CallTimeout time.Duration
	// OnStateChange is called whenever the state changes, with the breaker
	// lock held. It must not call back into the breaker.
	OnStateChange func(name string, from State, to State)
}

// DefaultSettings mirrors the pricer breaker configuration: 3 failures, 5s reset, 1s call timeout.
func DefaultSettings() Settings {
	return Settings{
		MaxFailures:   3,
		FailureWindow: 10 * time.Second,
		ResetTimeout:  5 * time.Second,
		CallTimeout:   time.Second,
	}
}

// Counts holds the statistics for the circuit breaker
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
	Rejections           uint32
}

// Snapshot is a point-in-time view of a breaker, safe to serialize.
type Snapshot struct {
	Name     string    `json:"name"`
	State    string    `json:"state"`
	Counts   Counts    `json:"counts"`
	OpenedAt time.Time `json:"opened_at,omitempty"`
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailure
	outcomeAbandoned
)

// Breaker implements the circuit breaker pattern. One instance is shared by
// every caller of the protected dependency.
type Breaker struct {
	name     string
	settings Settings

	mu         sync.Mutex
	state      State
	counts     Counts
	generation uint64
	expiry     time.Time
	openedAt   time.Time
}

// New creates a new circuit breaker with the given settings
func New(name string, settings Settings) *Breaker {
	defaults := DefaultSettings()
	if settings.MaxFailures == 0 {
		settings.MaxFailures = defaults.MaxFailures
	}
	if settings.FailureWindow == 0 {
		settings.FailureWindow = defaults.FailureWindow
	}
	if settings.ResetTimeout == 0 {
		settings.ResetTimeout = defaults.ResetTimeout
	}

	return &Breaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
		expiry:   time.Now().Add(settings.FailureWindow),
	}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// Settings returns the effective settings
func (b *Breaker) Settings() Settings {
	return b.settings
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, _ := b.currentState(time.Now())
	return state
}

// Counts returns a copy of the internal counts
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.counts
}

// Snapshot returns the state and counts under one lock
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, _ := b.currentState(time.Now())
	snap := Snapshot{
		Name:   b.name,
		State:  state.String(),
		Counts: b.counts,
	}
	if state != StateClosed {
		snap.OpenedAt = b.openedAt
	}
	return snap
}

// Execute runs req if the breaker accepts it. Rejected calls return
// ErrCircuitOpen or ErrTooManyRequests without invoking req. The call runs
// under CallTimeout and is abandoned when it expires; the result is then
// ErrCallTimeout. When ctx itself ends the call is abandoned without being
// counted against the dependency.
func (b *Breaker) Execute(ctx context.Context, req func(context.Context) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	generation, err := b.beforeRequest()
	if err != nil {
		return nil, err
	}

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if b.settings.CallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, b.settings.CallTimeout)
	}
	defer cancel()

	type result struct {
		value    interface{}
		err      error
		panicked interface{}
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if e := recover(); e != nil {
				done <- result{panicked: e}
			}
		}()
		value, err := req(callCtx)
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		if r.panicked != nil {
			b.afterRequest(generation, outcomeFailure)
			panic(r.panicked)
		}
		if r.err == nil {
			b.afterRequest(generation, outcomeSuccess)
			return r.value, nil
		}
		if ctx.Err() != nil {
			b.afterRequest(generation, outcomeAbandoned)
			return nil, ctx.Err()
		}
		b.afterRequest(generation, outcomeFailure)
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %v", ErrCallTimeout, b.settings.CallTimeout, r.err)
		}
		return nil, r.err

	case <-callCtx.Done():
		if ctx.Err() != nil {
			b.afterRequest(generation, outcomeAbandoned)
			return nil, ctx.Err()
		}
		b.afterRequest(generation, outcomeFailure)
		return nil, fmt.Errorf("%w after %s", ErrCallTimeout, b.settings.CallTimeout)
	}
}

// Run executes call through the breaker and never fails: any rejection or
// failure is turned into fallback(err). A panic in call is counted as a
// failure and also turned into fallback.
func Run[T any](ctx context.Context, b *Breaker, call func(context.Context) (T, error), fallback func(error) T) T {
	value, err := b.Execute(ctx, func(ctx context.Context) (v interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrCallPanicked, r)
			}
		}()
		typed, err := call(ctx)
		return typed, err
	})
	if err != nil {
		return fallback(err)
	}

	typed, _ := value.(T)
	return typed
}

// IsRejection reports whether err means the call was never attempted.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}

// beforeRequest is called before a request is executed
func (b *Breaker) beforeRequest() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, generation := b.currentState(time.Now())

	if state == StateOpen {
		b.counts.Rejections++
		return generation, ErrCircuitOpen
	}

	// Only one trial call while half-open.
	if state == StateHalfOpen && b.counts.Requests >= 1 {
		b.counts.Rejections++
		return generation, ErrTooManyRequests
	}

	b.counts.Requests++
	return generation, nil
}

// afterRequest is called after a request is executed
func (b *Breaker) afterRequest(before uint64, result outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state, generation := b.currentState(now)

	if generation != before {
		return
	}

	switch result {
	case outcomeSuccess:
		b.onSuccess(state, now)
	case outcomeFailure:
		b.onFailure(state, now)
	case outcomeAbandoned:
		if b.counts.Requests > 0 {
			b.counts.Requests--
		}
	}
}

// onSuccess handles successful requests
func (b *Breaker) onSuccess(state State, now time.Time) {
	switch state {
	case StateClosed:
		b.counts.TotalSuccesses++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
	case StateHalfOpen:
		b.setState(StateClosed, now)
	}
}

// onFailure handles failed requests
func (b *Breaker) onFailure(state State, now time.Time) {
	switch state {
	case StateClosed:
		b.counts.TotalFailures++
		b.counts.ConsecutiveFailures++
		b.counts.ConsecutiveSuccesses = 0
		if b.counts.TotalFailures >= b.settings.MaxFailures {
			b.setState(StateOpen, now)
		}
	case StateHalfOpen:
		b.setState(StateOpen, now)
	}
}

// currentState returns the current state and generation
func (b *Breaker) currentState(now time.Time) (State, uint64) {
	switch b.state {
	case StateClosed:
		if !b.expiry.IsZero() && !now.Before(b.expiry) {
			// Calls that started in the previous window still count in this one.
			b.resetCounts()
			b.expiry = now.Add(b.settings.FailureWindow)
		}
	case StateOpen:
		if !now.Before(b.expiry) {
			b.setState(StateHalfOpen, now)
		}
	}

	return b.state, b.generation
}

// setState changes the state of the circuit breaker
func (b *Breaker) setState(state State, now time.Time) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state
	b.generation++

	b.resetCounts()

	switch state {
	case StateClosed:
		b.expiry = now.Add(b.settings.FailureWindow)
		b.openedAt = time.Time{}
	case StateOpen:
		b.openedAt = now
		b.expiry = now.Add(b.settings.ResetTimeout)
	case StateHalfOpen:
		b.expiry = time.Time{}
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}

// resetCounts resets the internal counts
func (b *Breaker) resetCounts() {
	b.counts = Counts{}
}
