package pow

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// State tracks a session's progress through the pipeline. Transitions are
// strictly forward; a failed stage is terminal for the session.
type State int

const (
	StateFetched State = iota
	StateDecoded
	StateSolving
	StateSolved
	StateEncoded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetched:
		return "fetched"
	case StateDecoded:
		return "decoded"
	case StateSolving:
		return "solving"
	case StateSolved:
		return "solved"
	case StateEncoded:
		return "encoded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session runs one challenge through decode, solve, and encode. Sessions
// are single-use: retrying means fetching a fresh challenge and opening a
// new session. A Session is not safe for concurrent use.
type Session struct {
	log     *slog.Logger
	workers int

	state State
}

// Result resolves a Start call.
type Result struct {
	Token string
	Err   error
}

type SessionOption func(*Session)

// WithWorkers sets the solver width. Zero means one worker per CPU; one
// forces the sequential solver.
func WithWorkers(n int) SessionOption {
	return func(s *Session) { s.workers = n }
}

func NewSession(log *slog.Logger, opts ...SessionOption) *Session {
	if log == nil {
		log = slog.Default()
	}
	s := &Session{log: log, state: StateFetched}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the session's current stage.
func (s *Session) State() State { return s.state }

// Run takes raw challenge bytes to an encoded solution token. A decode
// failure never reaches the solver; a solve failure never reaches the
// encoder. Run blocks for the duration of the search — callers on a
// cooperative scheduler should use Start instead.
func (s *Session) Run(ctx context.Context, raw []byte) (string, error) {
	if s.state != StateFetched {
		return "", fmt.Errorf("%w: state %s", ErrSessionDone, s.state)
	}

	desc, err := Decode(raw)
	if err != nil {
		s.state = StateFailed
		return "", err
	}
	s.state = StateDecoded
	s.log.Debug("challenge decoded",
		"algorithm", desc.scheme.Name(),
		"difficulty", desc.Difficulty,
		"expires", desc.ExpiresAt,
	)

	s.state = StateSolving
	start := time.Now()
	var sol Solution
	if s.workers == 1 {
		sol, err = Solve(ctx, desc)
	} else {
		sol, err = SolveParallel(ctx, desc, s.workers)
	}
	if err != nil {
		s.state = StateFailed
		return "", err
	}
	s.state = StateSolved
	s.log.Debug("challenge solved", "nonce", sol.Nonce, "elapsed", time.Since(start))

	token := sol.Encode()
	s.state = StateEncoded
	return token, nil
}

// Start runs the session on its own goroutine and resolves the returned
// channel exactly once. The search is CPU-bound; keeping it off the
// caller's goroutine lets event-loop style callers select on the channel
// without starving their scheduler.
func (s *Session) Start(ctx context.Context, raw []byte) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		token, err := s.Run(ctx, raw)
		ch <- Result{Token: token, Err: err}
	}()
	return ch
}
