package shell

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/wailsapp/wails/v2/pkg/logger"

	"github.com/Mavwarf/teamsdesk/internal/config"
	"github.com/Mavwarf/teamsdesk/internal/ipc"
	"github.com/Mavwarf/teamsdesk/internal/logging"
)

// State is the lifecycle stage of the shell.
type State int

const (
	Starting State = iota
	ConfiguringWindow
	LoadingContent
	AuthChallenge
	Ready
	Closed
)

var stateNames = [...]string{
	Starting:          "starting",
	ConfiguringWindow: "configuring-window",
	LoadingContent:    "loading-content",
	AuthChallenge:     "auth-challenge",
	Ready:             "ready",
	Closed:            "closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// allowed lists the legal successors of each state. Closed has none.
var allowed = map[State][]State{
	Starting:          {ConfiguringWindow, Closed},
	ConfiguringWindow: {LoadingContent, Closed},
	LoadingContent:    {LoadingContent, AuthChallenge, Ready, Closed},
	AuthChallenge:     {LoadingContent, Closed},
	Ready:             {LoadingContent, Ready, Closed},
}

// TransitionError reports an illegal state change.
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("shell: illegal transition %s -> %s", e.From, e.To)
}

// eventQueueSize bounds the backlog of undelivered host events.
const eventQueueSize = 256

// Session is the state shared by the shell components for one process
// lifetime. Components receive it at construction.
type Session struct {
	Config config.Config
	Bus    ipc.Bus
	Log    logger.Logger

	events chan func()
	done   chan struct{}
	stop   sync.Once

	mu        sync.Mutex
	state     State
	observers []func(from, to State)
}

func NewSession(cfg config.Config, bus ipc.Bus, log logger.Logger) *Session {
	if bus == nil {
		bus = ipc.NewLocalBus()
	}
	return &Session{
		Config: cfg,
		Bus:    bus,
		Log:    logging.OrNop(log),
		events: make(chan func(), eventQueueSize),
		done:   make(chan struct{}),
		state:  Starting,
	}
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnTransition registers fn to observe every successful state change.
func (s *Session) OnTransition(fn func(from, to State)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Transition moves to the given state, or returns a *TransitionError.
func (s *Session) Transition(to State) error {
	_, err := s.move(func(State) bool { return true }, to)
	return err
}

// transitionIf moves to `to` only when the session is currently in `from`.
func (s *Session) transitionIf(from, to State) bool {
	ok, err := s.move(func(cur State) bool { return cur == from }, to)
	return ok && err == nil
}

func (s *Session) move(when func(State) bool, to State) (bool, error) {
	s.mu.Lock()
	from := s.state
	if !when(from) {
		s.mu.Unlock()
		return false, nil
	}
	if !legal(from, to) {
		s.mu.Unlock()
		return false, &TransitionError{From: from, To: to}
	}
	s.state = to
	observers := append([]func(State, State){}, s.observers...)
	s.mu.Unlock()

	s.Log.Debug(fmt.Sprintf("shell: %s -> %s", from, to))
	for _, fn := range observers {
		fn(from, to)
	}
	return true, nil
}

func legal(from, to State) bool {
	return lo.Contains(allowed[from], to)
}

// Dispatch queues fn to run on the session's event loop. Events run one at
// a time in the order they were dispatched. Events dispatched after the
// session closed or the loop stopped are dropped.
func (s *Session) Dispatch(fn func()) {
	if s.State() == Closed {
		return
	}
	select {
	case s.events <- fn:
	case <-s.done:
	}
}

// Run executes dispatched events until ctx ends or the session closes.
// Once Run returns the loop is stopped for good.
func (s *Session) Run(ctx context.Context) error {
	defer s.stop.Do(func() { close(s.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.events:
			fn()
			if s.State() == Closed {
				return nil
			}
		}
	}
}

// Queued returns a view of the session bus whose Emit is delivered on the
// event loop. Hosts use it for messages arriving from other goroutines.
func (s *Session) Queued() ipc.Bus {
	return queuedBus{s}
}

type queuedBus struct{ s *Session }

func (q queuedBus) On(channel string, h ipc.Handler) { q.s.Bus.On(channel, h) }

func (q queuedBus) Emit(channel string, payload any) {
	q.s.Dispatch(func() { q.s.Bus.Emit(channel, payload) })
}
