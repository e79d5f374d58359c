package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePopup struct {
	mu     sync.Mutex
	closed chan struct{}
	closes int
}

func newFakePopup() *fakePopup { return &fakePopup{closed: make(chan struct{})} }

func (p *fakePopup) Closed() <-chan struct{} { return p.closed }

func (p *fakePopup) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	if p.closes == 1 {
		close(p.closed)
	}
	return nil
}

// dismiss simulates the user closing the window.
func (p *fakePopup) dismiss() { p.Close() }

func (p *fakePopup) closeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

type fakeLauncher struct {
	mu     sync.Mutex
	popups []*fakePopup
	err    error
}

func (l *fakeLauncher) Open(id string, ch Challenge) (Popup, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	p := newFakePopup()
	l.popups = append(l.popups, p)
	return p, nil
}

func (l *fakeLauncher) opened() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.popups)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSubmitInvokesCallbackOnceAndCloses(t *testing.T) {
	l := &fakeLauncher{}
	c := NewController(l, nil)

	var calls int
	var gotUser, gotPass string
	c.PromptForCredentials(Challenge{Host: "teams.example.com"}, func(u, p string) {
		calls++
		gotUser, gotPass = u, p
	})
	if !c.Pending() {
		t.Fatal("expected a pending popup")
	}

	c.Submit("alice", "secret")
	c.Submit("mallory", "other") // no popup pending any more

	if calls != 1 {
		t.Fatalf("callback ran %d times, want 1", calls)
	}
	if gotUser != "alice" || gotPass != "secret" {
		t.Errorf("got %q/%q", gotUser, gotPass)
	}
	if n := l.popups[0].closeCount(); n != 1 {
		t.Errorf("popup closed %d times, want 1", n)
	}
	if c.Pending() {
		t.Error("popup should no longer be pending")
	}
}

func TestSecondChallengeReusesPopup(t *testing.T) {
	l := &fakeLauncher{}
	c := NewController(l, nil)

	f1 := c.Prompt(Challenge{Host: "a"})
	f2 := c.Prompt(Challenge{Host: "b"})
	if f1 != f2 {
		t.Error("second challenge should share the pending future")
	}
	if l.opened() != 1 {
		t.Errorf("opened %d popups, want 1", l.opened())
	}

	c.Submit("u", "p")
	cr, err := f2.Wait(context.Background())
	if err != nil || cr.Username != "u" {
		t.Errorf("Wait = %+v, %v", cr, err)
	}

	// After completion a new challenge opens a fresh popup.
	if f3 := c.Prompt(Challenge{Host: "c"}); f3 == f1 {
		t.Error("expected a new future after completion")
	}
	if l.opened() != 2 {
		t.Errorf("opened %d popups, want 2", l.opened())
	}
}

func TestDismissCancels(t *testing.T) {
	l := &fakeLauncher{}
	c := NewController(l, nil)

	called := false
	c.PromptForCredentials(Challenge{}, func(string, string) { called = true })
	f := c.Prompt(Challenge{})

	l.popups[0].dismiss()

	_, err := f.Wait(context.Background())
	if !errors.Is(err, ErrDismissed) {
		t.Fatalf("Wait err = %v, want ErrDismissed", err)
	}
	waitFor(t, func() bool { return !c.Pending() })
	if called {
		t.Error("callback must not run on dismissal")
	}

	c.Submit("late", "submit")
	if called {
		t.Error("late submit must not reach the callback")
	}
}

func TestLaunchFailureCancelsImmediately(t *testing.T) {
	c := NewController(&fakeLauncher{err: errors.New("no display")}, nil)
	f := c.Prompt(Challenge{})
	select {
	case <-f.Done():
	default:
		t.Fatal("future should be settled")
	}
	if _, err := f.Wait(context.Background()); !errors.Is(err, ErrDismissed) {
		t.Errorf("err = %v", err)
	}
	if c.Pending() {
		t.Error("nothing should be pending")
	}
}

func TestFutureSingleFulfilment(t *testing.T) {
	f := NewFuture()
	var outcomes []string
	f.Then(func(c Credentials, err error) { outcomes = append(outcomes, c.Username) })

	if !f.Resolve(Credentials{Username: "first"}) {
		t.Fatal("first Resolve should win")
	}
	if f.Resolve(Credentials{Username: "second"}) {
		t.Error("second Resolve should be ignored")
	}
	if f.Cancel() {
		t.Error("Cancel after Resolve should be ignored")
	}

	f.Then(func(c Credentials, err error) { outcomes = append(outcomes, "late:"+c.Username) })

	if len(outcomes) != 2 || outcomes[0] != "first" || outcomes[1] != "late:first" {
		t.Errorf("outcomes = %v", outcomes)
	}
}

func TestFutureWaitContext(t *testing.T) {
	f := NewFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
