package winstate

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bep/debounce"
)

type fakeWindow struct {
	mu         sync.Mutex
	x, y, w, h int
}

func (f *fakeWindow) Position() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.x, f.y
}

func (f *fakeWindow) Size() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.w, f.h
}

func (f *fakeWindow) move(x, y, w, h int) {
	f.mu.Lock()
	f.x, f.y, f.w, f.h = x, y, w, h
	f.mu.Unlock()
}

// countingBackend counts writes on top of an in-memory map.
type countingBackend struct {
	mu     sync.Mutex
	states map[string]State
	writes int
}

func newCountingBackend() *countingBackend {
	return &countingBackend{states: make(map[string]State)}
}

func (c *countingBackend) Read(ns string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[ns]
	if !ok {
		return State{}, ErrNotFound
	}
	return st, nil
}

func (c *countingBackend) Write(ns string, st State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[ns] = st
	c.writes++
	return nil
}

func (c *countingBackend) Close() error { return nil }

func (c *countingBackend) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func TestRoundTripFile(t *testing.T) {
	dir := t.TempDir()
	want := State{X: 10, Y: 20, Width: 800, Height: 600}

	b := NewFileBackend(filepath.Join(dir, "window-state.json"))
	if err := b.Write("main", want); err != nil {
		t.Fatal(err)
	}

	s := New(NewFileBackend(filepath.Join(dir, "window-state.json")), nil)
	if got := s.Load("main", State{}); got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestRoundTripSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window-state.db")
	want := State{X: 10, Y: 20, Width: 800, Height: 600}

	b, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Write("main", want); err != nil {
		t.Fatal(err)
	}
	if err := b.Write("main", want); err != nil { // upsert
		t.Fatal(err)
	}
	b.Close()

	b2, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b2.Close() })

	if got := New(b2, nil).Load("main", State{}); got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestNamespacesAreIndependent(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "state.json"))
	b.Write("main", State{Width: 800, Height: 600})
	b.Write("other", State{Width: 300, Height: 200})

	s := New(b, nil)
	if got := s.Load("main", State{}); got.Width != 800 {
		t.Errorf("main = %+v", got)
	}
	if got := s.Load("other", State{}); got.Width != 300 {
		t.Errorf("other = %+v", got)
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	defaults := State{Width: 0, Height: 0}
	dir := t.TempDir()

	tests := []struct {
		name    string
		backend Backend
	}{
		{"missing file", NewFileBackend(filepath.Join(dir, "missing.json"))},
		{"nil backend", nil},
		{"corrupt file", func() Backend {
			p := filepath.Join(dir, "corrupt.json")
			os.WriteFile(p, []byte("not json"), 0644)
			return NewFileBackend(p)
		}()},
		{"negative size", func() Backend {
			b := newCountingBackend()
			b.states["main"] = State{Width: -5, Height: 100}
			return b
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.backend, nil).Load("main", defaults); got != defaults {
				t.Errorf("Load = %+v, want defaults %+v", got, defaults)
			}
		})
	}
}

func TestHostSized(t *testing.T) {
	if !(State{}).HostSized() {
		t.Error("zero state should be host sized")
	}
	if (State{Width: 800, Height: 600}).HostSized() {
		t.Error("explicit size should not be host sized")
	}
}

func TestCorruptFileIsOverwritten(t *testing.T) {
	p := filepath.Join(t.TempDir(), "state.json")
	os.WriteFile(p, []byte("{{{"), 0644)

	b := NewFileBackend(p)
	if err := b.Write("main", State{Width: 1, Height: 2}); err != nil {
		t.Fatal(err)
	}
	st, err := b.Read("main")
	if err != nil || st.Width != 1 {
		t.Errorf("Read = %+v, %v", st, err)
	}
}

func TestChangedIsDebounced(t *testing.T) {
	b := newCountingBackend()
	s := New(b, nil)
	s.delay = debounce.New(20 * time.Millisecond)

	w := &fakeWindow{}
	s.Track(w, "main")
	for i := 1; i <= 10; i++ {
		w.move(i, i, 800+i, 600)
		s.Changed("main")
	}

	deadline := time.Now().Add(2 * time.Second)
	for b.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	if n := b.count(); n != 1 {
		t.Fatalf("writes = %d, want 1", n)
	}
	if got := s.Load("main", State{}); got != (State{X: 10, Y: 10, Width: 810, Height: 600}) {
		t.Errorf("stored = %+v", got)
	}
}

func TestChangedUntrackedIgnored(t *testing.T) {
	b := newCountingBackend()
	s := New(b, nil)
	s.Changed("nobody")
	s.Flush()
	if b.count() != 0 {
		t.Errorf("writes = %d, want 0", b.count())
	}
}

func TestChangedSkipsInvalidGeometry(t *testing.T) {
	b := newCountingBackend()
	s := New(b, nil)
	s.delay = func(f func()) { f() }

	s.Track(&fakeWindow{w: -1, h: 100}, "main")
	s.Changed("main")
	if b.count() != 0 {
		t.Errorf("writes = %d, want 0", b.count())
	}
}

func TestPollReportsMoves(t *testing.T) {
	b := newCountingBackend()
	s := New(b, nil)
	s.delay = func(f func()) { f() }

	w := &fakeWindow{x: 1, y: 1, w: 800, h: 600}
	s.Track(w, "main")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Poll(ctx, "main", 2*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if n := b.count(); n != 0 {
		t.Fatalf("writes before any move = %d", n)
	}

	w.move(50, 60, 1024, 768)
	deadline := time.Now().Add(2 * time.Second)
	for b.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	<-done

	if got := s.Load("main", State{}); got != (State{X: 50, Y: 60, Width: 1024, Height: 768}) {
		t.Errorf("stored = %+v", got)
	}
}

func TestFlushWritesTracked(t *testing.T) {
	b := newCountingBackend()
	s := New(b, nil)

	s.Track(&fakeWindow{x: 5, y: 6, w: 700, h: 500}, "main")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if got := b.states["main"]; got != (State{X: 5, Y: 6, Width: 700, Height: 500}) {
		t.Errorf("stored = %+v", got)
	}
}

func TestFlushKeepsGeometryOfDestroyedWindow(t *testing.T) {
	b := newCountingBackend()
	s := New(b, nil)
	s.delay = func(func()) {}

	w := &fakeWindow{x: 1, y: 2, w: 800, h: 600}
	s.Track(w, "main")
	w.move(40, 30, 1280, 720)
	s.Changed("main")

	// A destroyed native window reports zero geometry.
	w.move(0, 0, 0, 0)
	s.Changed("main")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if got := b.states["main"]; got != (State{X: 40, Y: 30, Width: 1280, Height: 720}) {
		t.Errorf("stored = %+v", got)
	}
}

func TestUntrackStopsSampling(t *testing.T) {
	b := newCountingBackend()
	s := New(b, nil)
	s.delay = func(f func()) { f() }

	w := &fakeWindow{x: 3, y: 4, w: 640, h: 480}
	s.Track(w, "main")
	s.Untrack("main")
	w.move(9, 9, 100, 100)
	s.Changed("main")
	if n := b.count(); n != 0 {
		t.Fatalf("writes after untrack = %d, want 0", n)
	}

	s.Flush()
	if got := b.states["main"]; got != (State{X: 3, Y: 4, Width: 640, Height: 480}) {
		t.Errorf("stored = %+v", got)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open("redis", t.TempDir()); err == nil {
		t.Fatal("expected error for unknown storage kind")
	}
}

func TestOpenStoreFallsBack(t *testing.T) {
	s := OpenStore("redis", t.TempDir(), nil)
	if got := s.Load("main", State{Width: 1, Height: 1}); got != (State{Width: 1, Height: 1}) {
		t.Errorf("Load = %+v", got)
	}
	s.Track(&fakeWindow{w: 10, h: 10}, "main")
	s.Flush() // writes fail and are logged, never panic
}
