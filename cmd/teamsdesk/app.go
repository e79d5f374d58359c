package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/energye/systray"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/Mavwarf/teamsdesk/internal/audio"
	"github.com/Mavwarf/teamsdesk/internal/auth"
	"github.com/Mavwarf/teamsdesk/internal/config"
	"github.com/Mavwarf/teamsdesk/internal/gateway"
	"github.com/Mavwarf/teamsdesk/internal/icon"
	"github.com/Mavwarf/teamsdesk/internal/ipc"
	"github.com/Mavwarf/teamsdesk/internal/logging"
	"github.com/Mavwarf/teamsdesk/internal/menus"
	"github.com/Mavwarf/teamsdesk/internal/mqtt"
	"github.com/Mavwarf/teamsdesk/internal/notify"
	"github.com/Mavwarf/teamsdesk/internal/shell"
	"github.com/Mavwarf/teamsdesk/internal/silent"
	"github.com/Mavwarf/teamsdesk/internal/toast"
	"github.com/Mavwarf/teamsdesk/internal/winstate"
)

// mainNamespace keys the main window's stored geometry.
const mainNamespace = "main"

// pollEvery is how often window geometry is sampled. Wails reports no move
// or resize events.
const pollEvery = time.Second

// Events emitted by the page shim.
const (
	eventTitle     = "shell:title"
	eventLoad      = "shell:load"
	eventNewWindow = "shell:new-window"
	eventCSS       = "shell:css"
	eventEdit      = "shell:edit"
)

// App wires the shell components to the Wails runtime.
type App struct {
	ctx   context.Context
	ready chan struct{} // closed when Wails startup completes

	cfg      config.Config
	dir      string
	log      logger.Logger
	iconPath string

	session *shell.Session
	ctrl    *shell.Controller
	store   *winstate.Store
	gw      *gateway.Gateway
	silent  *silent.Switch
	menus   *menus.Registrar
	window  shell.WindowOptions
	host    *host
}

func newApp(cfg config.Config, dir string, log logger.Logger) (*App, error) {
	a := &App{
		ready:  make(chan struct{}),
		cfg:    cfg,
		dir:    dir,
		log:    log,
		silent: silent.New(dir),
	}

	iconPath, err := icon.EnsureFile(dir)
	if err != nil {
		log.Warning(fmt.Sprintf("icon: %v", err))
	}
	a.iconPath = iconPath

	a.session = shell.NewSession(cfg, ipc.NewLocalBus(), log)
	authCtrl := newAuthController(a.session, &auth.ProcessLauncher{
		Args: []string{"--config-dir", dir},
		Log:  log,
	}, log)
	a.ctrl = shell.NewController(a.session, authCtrl, nil)

	opts := notify.Options{
		IconPath: a.iconPath,
		Sound:    cfg.NotificationSound,
		Silenced: a.silent.Active,
		Play:     audio.Play,
	}
	if cfg.MQTT.Enabled() {
		opts.PublishUnread = mqtt.NewUnreadPublisher(cfg.MQTT).PublishUnread
	}
	notify.NewBridge(toast.System{}, a.ctrl, opts, log).Register(a.session.Bus)

	var firewall *auth.Credentials
	if cfg.HasFirewallCredentials() {
		firewall = &auth.Credentials{Username: cfg.FirewallUsername, Password: cfg.FirewallPassword}
	}
	a.gw, err = gateway.New(gateway.Options{
		Target:     cfg.URL,
		UserAgent:  cfg.SelectedUserAgent(),
		Firewall:   firewall,
		Challenger: a.ctrl,
		Log:        log,
	})
	if err != nil {
		return nil, err
	}

	a.store = winstate.OpenStore(cfg.WindowStateStorage, dir, log)
	a.window = a.ctrl.Create(a.iconPath, a.store.Load(mainNamespace, winstate.State{}))

	a.menus = &menus.Registrar{
		Config: cfg,
		Opener: shell.BrowserOpener{},
		DND:    a.silent,
		Log:    log,
	}
	return a, nil
}

// newAuthController builds the login popup controller for s. Popup output
// is relayed on the synchronous session bus: the credentials must reach
// Submit before the popup's exit settles the prompt.
func newAuthController(s *shell.Session, l *auth.ProcessLauncher, log logger.Logger) *auth.Controller {
	log = logging.OrNop(log)
	l.Bus = s.Bus
	c := auth.NewController(l, log)
	s.Bus.On(ipc.ChannelSubmitForm, func(payload any) {
		var m ipc.SubmitFormMessage
		if err := ipc.Decode(payload, &m); err != nil {
			log.Warning(fmt.Sprintf("auth: %v", err))
			return
		}
		c.Submit(m.Username, m.Password)
	})
	return c
}

// options is the Wails application built from the window creation record.
func (a *App) options() *options.App {
	w := a.window
	o := &options.App{
		Title:                    notify.Title,
		StartHidden:              w.Hidden,
		AssetServer:              &assetserver.Options{Handler: a.gw},
		OnStartup:                a.startup,
		OnDomReady:               a.domReady,
		OnBeforeClose:            a.beforeClose,
		OnShutdown:               a.shutdown,
		Logger:                   a.log,
		LogLevel:                 logger.INFO,
		EnableDefaultContextMenu: a.cfg.WebDebug,
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId:               "teamsdesk-" + w.Preferences.Partition,
			OnSecondInstanceLaunch: func(options.SecondInstanceData) { a.ShowWindow() },
		},
		Windows: &windows.Options{
			WebviewUserDataPath: a.partitionDir(),
		},
		Linux: &linux.Options{
			ProgramName: "teamsdesk",
		},
	}
	if !w.HostSized {
		o.Width, o.Height = w.Width, w.Height
	}
	if data, err := icon.PNG(256); err == nil {
		o.Linux.Icon = data
	}
	if a.cfg.WebDebug {
		o.Debug = options.Debug{OpenInspectorOnStartup: true}
	}
	return o
}

// partitionDir maps the storage partition to a webview profile directory.
// "persist:" partitions survive restarts; others live in a scratch dir.
func (a *App) partitionDir() string {
	p := a.window.Preferences.Partition
	if name, ok := strings.CutPrefix(p, "persist:"); ok {
		return filepath.Join(a.dir, "Partitions", name)
	}
	return filepath.Join(a.dir, "Partitions", "temp-"+p)
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.host = newHost(ctx, a.gw)
	a.ctrl.Attach(a.host)

	if !a.window.HostSized {
		wailsRuntime.WindowSetPosition(ctx, a.window.X, a.window.Y)
	}
	a.store.Track(a.host, mainNamespace)
	go a.store.Poll(ctx, mainNamespace, pollEvery)

	inbound := a.session.Queued()
	for _, ch := range []string{ipc.ChannelNotifications, ipc.ChannelNotificationClick} {
		ch := ch
		wailsRuntime.EventsOn(ctx, ch, func(data ...interface{}) {
			inbound.Emit(ch, first(data))
		})
	}
	wailsRuntime.EventsOn(ctx, eventTitle, func(data ...interface{}) {
		title, _ := first(data).(string)
		a.session.Dispatch(func() { a.ctrl.OnTitleChanged(title) })
	})
	wailsRuntime.EventsOn(ctx, eventLoad, func(...interface{}) {
		a.session.Dispatch(a.ctrl.OnLoadFinished)
	})
	wailsRuntime.EventsOn(ctx, eventNewWindow, func(data ...interface{}) {
		url, _ := first(data).(string)
		if url == "" {
			return
		}
		a.session.Dispatch(func() { a.ctrl.OnNewWindow(url) })
	})

	a.menus.Register(a)
	go runTray(a)
	go func() {
		if err := a.session.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Error(fmt.Sprintf("shell: %v", err))
		}
	}()
	a.session.Dispatch(func() {
		if err := a.ctrl.LoadTarget(a.cfg); err != nil {
			a.log.Error(err.Error())
		}
	})
	close(a.ready)
}

func (a *App) domReady(ctx context.Context) {
	a.session.Dispatch(a.ctrl.OnReadyToShow)
}

// beforeClose intercepts the window close event. Shift+close exits fully;
// normal close hides to tray.
func (a *App) beforeClose(ctx context.Context) bool {
	if isShiftHeld() {
		// Last chance to sample the window before it is destroyed.
		a.store.Changed(mainNamespace)
		return false
	}
	wailsRuntime.WindowHide(ctx)
	return true
}

func (a *App) shutdown(ctx context.Context) {
	a.store.Untrack(mainNamespace)
	a.ctrl.OnClosed()
	if err := a.store.Close(); err != nil {
		a.log.Warning(fmt.Sprintf("winstate: %v", err))
	}
	systray.Quit()
}

// ShowWindow brings the main window back, e.g. from the tray.
func (a *App) ShowWindow() {
	<-a.ready
	a.ctrl.Show()
	a.ctrl.Focus()
}

// The methods below make App the menus.Window of the main window.

func (a *App) SetMenu(m *menu.Menu) {
	wailsRuntime.MenuSetApplicationMenu(a.ctx, m)
	wailsRuntime.MenuUpdateApplicationMenu(a.ctx)
}

func (a *App) Reload() {
	a.session.Dispatch(func() {
		if err := a.ctrl.Reload(); err != nil {
			a.log.Warning(err.Error())
		}
	})
}

func (a *App) Edit(command string) {
	wailsRuntime.EventsEmit(a.ctx, eventEdit, command)
}

func (a *App) Minimise() { wailsRuntime.WindowMinimise(a.ctx) }
func (a *App) Maximise() { wailsRuntime.WindowToggleMaximise(a.ctx) }
func (a *App) Quit() { wailsRuntime.Quit(a.ctx) }

func first(data []interface{}) interface{} {
	if len(data) == 0 {
		return nil
	}
	return data[0]
}
