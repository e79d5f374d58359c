// Package shell owns the main window lifecycle: creation, loading the
// configured application, reacting to page events and teardown.
package shell

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pkg/browser"

	"github.com/Mavwarf/teamsdesk/internal/auth"
	"github.com/Mavwarf/teamsdesk/internal/config"
	"github.com/Mavwarf/teamsdesk/internal/ipc"
	"github.com/Mavwarf/teamsdesk/internal/winstate"
)

// ErrDisallowedScriptEvaluation is returned for every attempt to evaluate
// arbitrary script in the rendered page.
var ErrDisallowedScriptEvaluation = errors.New("shell: this app does not support window.eval()")

// StyleOverrides are inserted after every completed load.
var StyleOverrides = []string{
	"#download-mobile-app-button, #download-app-button, #get-app-button { display:none; }",
	".zoetrope { animation-iteration-count: 1 !important; }",
}

// Surface is the native window hosting the page.
type Surface interface {
	Show()
	Focus()
	Navigate(url string)
	SetUserAgent(ua string)
	InsertCSS(css string)
	Send(channel string, payload any)
	Release()
}

// Opener hands URLs to the user's default browser.
type Opener interface {
	OpenExternal(url string) error
}

// BrowserOpener opens URLs with the system browser.
type BrowserOpener struct{}

func (BrowserOpener) OpenExternal(url string) error {
	return browser.OpenURL(url)
}

// Preferences is the security profile of the main window.
type Preferences struct {
	Partition        string // isolated persistent storage
	NodeIntegration  bool   // page access to host APIs
	Plugins          bool
	SafeDialogs      bool
	NativeWindowOpen bool
	DisableEval      bool
}

// WindowOptions describes the main window to create.
type WindowOptions struct {
	X, Y          int
	Width, Height int
	HostSized     bool // no explicit size: let the host choose
	Hidden        bool // shown on first paint
	IconPath      string
	Preferences   Preferences
}

// Controller drives the main window through the session lifecycle.
type Controller struct {
	session *Session
	auth    *auth.Controller
	opener  Opener

	mu      sync.Mutex
	surface Surface
	shown   bool
}

// NewController builds a controller. opener may be nil to use the system
// browser.
func NewController(s *Session, a *auth.Controller, opener Opener) *Controller {
	if opener == nil {
		opener = BrowserOpener{}
	}
	return &Controller{session: s, auth: a, opener: opener}
}

// Create returns the creation record for the main window from the stored
// geometry. A zero stored size leaves sizing to the host.
func (c *Controller) Create(iconPath string, st winstate.State) WindowOptions {
	if err := c.session.Transition(ConfiguringWindow); err != nil {
		c.session.Log.Warning(err.Error())
	}
	opts := WindowOptions{
		X:         st.X,
		Y:         st.Y,
		HostSized: st.HostSized(),
		Hidden:    true,
		IconPath:  iconPath,
		Preferences: Preferences{
			Partition:        c.session.Config.Partition,
			NodeIntegration:  false,
			Plugins:          true,
			SafeDialogs:      true,
			NativeWindowOpen: true,
			DisableEval:      true,
		},
	}
	if !opts.HostSized {
		opts.Width, opts.Height = st.Width, st.Height
	}
	return opts
}

// Attach binds the native window created from Create's options.
func (c *Controller) Attach(s Surface) {
	c.mu.Lock()
	c.surface = s
	c.mu.Unlock()
}

func (c *Controller) current() Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

// LoadTarget applies the configured user agent, then navigates to the
// configured URL.
func (c *Controller) LoadTarget(cfg config.Config) error {
	s := c.current()
	if s == nil {
		return fmt.Errorf("shell: no window attached")
	}
	if err := c.session.Transition(LoadingContent); err != nil {
		return err
	}
	s.SetUserAgent(cfg.SelectedUserAgent())
	s.Navigate(cfg.URL)
	c.session.Log.Info(fmt.Sprintf("shell: loading %s as %s", cfg.URL, cfg.UserAgent))
	return nil
}

// Reload navigates to the configured URL again.
func (c *Controller) Reload() error {
	return c.LoadTarget(c.session.Config)
}

// OnReadyToShow shows the window on its first paint.
func (c *Controller) OnReadyToShow() {
	c.mu.Lock()
	s, first := c.surface, !c.shown
	c.shown = true
	c.mu.Unlock()

	if s != nil && first {
		s.Show()
	}
}

// OnTitleChanged forwards the page title back to the page.
func (c *Controller) OnTitleChanged(title string) {
	if s := c.current(); s != nil {
		s.Send(ipc.ChannelPageTitle, title)
	}
}

// OnNewWindow refuses the in-app window and opens url externally. It
// always reports true (navigation cancelled).
func (c *Controller) OnNewWindow(url string) bool {
	if err := c.opener.OpenExternal(url); err != nil {
		c.session.Log.Warning(fmt.Sprintf("shell: open %s: %v", url, err))
	}
	return true
}

// OnLoadFinished inserts the style overrides and marks the shell ready.
func (c *Controller) OnLoadFinished() {
	s := c.current()
	if s == nil {
		return
	}
	for _, css := range StyleOverrides {
		s.InsertCSS(css)
	}
	if err := c.session.Transition(Ready); err != nil {
		c.session.Log.Debug(err.Error())
	}
}

// OnLogin handles an authentication challenge. The returned Future settles
// with the credentials, or with auth.ErrDismissed if the popup is closed;
// the caller resumes or fails its request from there.
func (c *Controller) OnLogin(ch auth.Challenge) *auth.Future {
	challenged := c.session.transitionIf(LoadingContent, AuthChallenge)
	f := c.auth.Prompt(ch)
	if challenged {
		f.Then(func(auth.Credentials, error) {
			c.session.transitionIf(AuthChallenge, LoadingContent)
		})
	}
	return f
}

// OnClosed releases the window. The session is closed afterwards.
func (c *Controller) OnClosed() {
	c.mu.Lock()
	s := c.surface
	c.surface = nil
	c.mu.Unlock()

	if s != nil {
		s.Release()
	}
	if c.session.State() != Closed {
		if err := c.session.Transition(Closed); err != nil {
			c.session.Log.Warning(err.Error())
		}
	}
}

// Eval always fails: dynamic script evaluation is not allowed in the
// rendered page.
func (c *Controller) Eval(script string) error {
	c.session.Log.Warning(fmt.Sprintf("shell: refused script evaluation (%d bytes)", len(script)))
	return ErrDisallowedScriptEvaluation
}

// Show brings the window up.
func (c *Controller) Show() {
	if s := c.current(); s != nil {
		s.Show()
	}
}

// Focus gives the window input focus.
func (c *Controller) Focus() {
	if s := c.current(); s != nil {
		s.Focus()
	}
}
