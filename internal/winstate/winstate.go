// Package winstate persists and restores main-window geometry per namespace.
package winstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/wailsapp/wails/v2/pkg/logger"

	"github.com/Mavwarf/teamsdesk/internal/logging"
)

// DebounceDelay is how long the store waits after the last move/resize
// before writing.
const DebounceDelay = 500 * time.Millisecond

// State is a window's position and size. A zero Width or Height means
// "let the host pick its default size".
type State struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether the dimensions are non-negative.
func (s State) Valid() bool {
	return s.Width >= 0 && s.Height >= 0
}

// HostSized reports whether no explicit size should be applied.
func (s State) HostSized() bool {
	return s.Width == 0 || s.Height == 0
}

// Geometry is the part of a window the store observes.
type Geometry interface {
	Position() (x, y int)
	Size() (width, height int)
}

// Store loads state at window creation and writes it back as the window
// moves. Reads never fail: a missing or unreadable backend yields defaults.
type Store struct {
	backend Backend
	log     logger.Logger
	delay   func(func())

	mu      sync.Mutex
	tracked map[string]Geometry
	known   map[string]State // last usable geometry per namespace
	pending map[string]State
}

// New wraps backend. A nil backend behaves as permanently unavailable.
func New(backend Backend, log logger.Logger) *Store {
	if backend == nil {
		backend = nullBackend{err: fmt.Errorf("winstate: storage unavailable")}
	}
	return &Store{
		backend: backend,
		log:     logging.OrNop(log),
		delay:   debounce.New(DebounceDelay),
		tracked: make(map[string]Geometry),
		known:   make(map[string]State),
		pending: make(map[string]State),
	}
}

// OpenStore opens the configured backend in dir. When that fails the error
// is logged and the store falls back to defaults for every read.
func OpenStore(kind, dir string, log logger.Logger) *Store {
	b, err := Open(kind, dir)
	if err != nil {
		logging.OrNop(log).Warning(fmt.Sprintf("winstate: %v; window state will not persist", err))
		return New(nullBackend{err: err}, log)
	}
	return New(b, log)
}

// Load returns the stored state for namespace, or defaults when nothing
// usable is stored.
func (s *Store) Load(namespace string, defaults State) State {
	st, err := s.backend.Read(namespace)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Debug(fmt.Sprintf("winstate: read %q: %v", namespace, err))
		}
		return defaults
	}
	if !st.Valid() {
		return defaults
	}
	return st
}

// Track starts persisting w's geometry under namespace and records its
// current geometry. The host calls Changed on every move or resize.
func (s *Store) Track(w Geometry, namespace string) {
	st := snapshot(w)
	s.mu.Lock()
	s.tracked[namespace] = w
	if usable(st) {
		s.known[namespace] = st
	}
	s.mu.Unlock()
}

// Untrack stops sampling the window under namespace. The last recorded
// geometry is still written by Flush. Hosts call it before the window is
// destroyed.
func (s *Store) Untrack(namespace string) {
	s.mu.Lock()
	delete(s.tracked, namespace)
	s.mu.Unlock()
}

// Changed records the current geometry of the window tracked under
// namespace and schedules a debounced write.
func (s *Store) Changed(namespace string) {
	s.mu.Lock()
	w, ok := s.tracked[namespace]
	if !ok {
		s.mu.Unlock()
		return
	}
	st := snapshot(w)
	if !usable(st) {
		s.mu.Unlock()
		return
	}
	s.known[namespace] = st
	s.pending[namespace] = st
	s.mu.Unlock()

	s.delay(s.writePending)
}

// Poll samples the geometry of the window tracked under namespace every
// interval and calls Changed whenever it differs from the previous sample.
// It is for hosts that do not report move and resize events. Poll returns
// when ctx ends.
func (s *Store) Poll(ctx context.Context, namespace string, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	var last State
	seen := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		s.mu.Lock()
		w, ok := s.tracked[namespace]
		s.mu.Unlock()
		if !ok {
			continue
		}
		st := snapshot(w)
		if !usable(st) || (seen && st == last) {
			continue
		}
		// The first sample is the restored geometry; nothing moved yet.
		if seen {
			s.Changed(namespace)
		}
		last, seen = st, true
	}
}

// Flush writes the last recorded geometry of every window synchronously.
// It never queries the windows, so it is safe after they are gone. Call it
// on exit.
func (s *Store) Flush() {
	s.mu.Lock()
	for ns, st := range s.known {
		s.pending[ns] = st
	}
	s.mu.Unlock()
	s.writePending()
}

// Close flushes and releases the backend.
func (s *Store) Close() error {
	s.Flush()
	return s.backend.Close()
}

func (s *Store) writePending() {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]State)
	s.mu.Unlock()

	for ns, st := range pending {
		if err := s.backend.Write(ns, st); err != nil {
			s.log.Warning(fmt.Sprintf("winstate: write %q: %v", ns, err))
		}
	}
}

// usable reports whether st describes a live window. Hosts report a zero
// size once the native window is gone.
func usable(st State) bool {
	return st.Valid() && !st.HostSized()
}

func snapshot(w Geometry) State {
	x, y := w.Position()
	width, height := w.Size()
	return State{X: x, Y: y, Width: width, Height: height}
}
