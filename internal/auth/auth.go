// Package auth runs the credential popup shown for HTTP authentication
// challenges and hands the result back to the waiting request.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/logger"

	"github.com/Mavwarf/teamsdesk/internal/logging"
)

// Popup geometry.
const (
	PopupWidth  = 363
	PopupHeight = 124
)

// ErrDismissed is the outcome of a popup closed without submitting.
var ErrDismissed = errors.New("auth: login popup dismissed without credentials")

// Credentials is a username/password pair.
type Credentials struct {
	Username string
	Password string
}

// Challenge describes who is asking for credentials.
type Challenge struct {
	Host  string
	Realm string
	Proxy bool // 407 from a proxy rather than 401 from the origin
}

// Popup is an open login window.
type Popup interface {
	// Closed is closed when the window goes away, for any reason.
	Closed() <-chan struct{}
	Close() error
}

// Launcher opens login popups.
type Launcher interface {
	Open(id string, ch Challenge) (Popup, error)
}

// Controller keeps at most one popup open. A challenge arriving while a
// popup is pending shares its Future.
type Controller struct {
	launcher Launcher
	log      logger.Logger

	mu      sync.Mutex
	pending *Future
	popup   Popup
	id      string
}

func NewController(l Launcher, log logger.Logger) *Controller {
	return &Controller{launcher: l, log: logging.OrNop(log)}
}

// Prompt returns the Future for the pending popup, opening one if none is
// open. If the popup cannot be opened the Future is already cancelled.
func (c *Controller) Prompt(ch Challenge) *Future {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		c.log.Debug(fmt.Sprintf("auth: reusing popup %s for %s", c.id, ch.Host))
		return c.pending
	}

	f := NewFuture()
	id := uuid.NewString()
	p, err := c.launcher.Open(id, ch)
	if err != nil {
		c.log.Error(fmt.Sprintf("auth: open popup: %v", err))
		f.Cancel()
		return f
	}
	c.log.Info(fmt.Sprintf("auth: popup %s opened for %s (realm %q)", id, ch.Host, ch.Realm))
	c.pending, c.popup, c.id = f, p, id

	go func() {
		<-p.Closed()
		c.finish(f, nil)
	}()
	return f
}

// PromptForCredentials is the callback form of Prompt. onSubmit runs at most
// once, and never when the popup is dismissed.
func (c *Controller) PromptForCredentials(ch Challenge, onSubmit func(username, password string)) {
	c.Prompt(ch).Then(func(cr Credentials, err error) {
		if err == nil {
			onSubmit(cr.Username, cr.Password)
		}
	})
}

// Submit delivers the popup's form submission. It resolves the pending
// Future and closes the popup; with nothing pending it does nothing.
func (c *Controller) Submit(username, password string) {
	c.mu.Lock()
	f := c.pending
	c.mu.Unlock()

	if f == nil {
		c.log.Debug("auth: submit with no popup open, ignored")
		return
	}
	c.finish(f, &Credentials{Username: username, Password: password})
}

// Pending reports whether a popup is open.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Controller) finish(f *Future, cr *Credentials) {
	c.mu.Lock()
	var p Popup
	if c.pending == f {
		p = c.popup
		c.pending, c.popup, c.id = nil, nil, ""
	}
	c.mu.Unlock()

	if cr != nil {
		f.Resolve(*cr)
	} else if f.Cancel() {
		c.log.Info("auth: popup dismissed without credentials")
	}
	if p != nil {
		if err := p.Close(); err != nil {
			c.log.Debug(fmt.Sprintf("auth: close popup: %v", err))
		}
	}
}
