// Package menus builds the application menu of the main window.
package menus

import (
	"fmt"
	"time"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"

	"github.com/Mavwarf/teamsdesk/internal/config"
	"github.com/Mavwarf/teamsdesk/internal/logging"
)

// SilenceFor is how long "Do not disturb" mutes notifications.
const SilenceFor = time.Hour

// Edit commands forwarded to the page.
const (
	Undo      = "undo"
	Redo      = "redo"
	Cut       = "cut"
	Copy      = "copy"
	Paste     = "paste"
	SelectAll = "selectAll"
)

// Window is what the menu acts on.
type Window interface {
	// SetMenu attaches m, or refreshes it after an item changed.
	SetMenu(m *menu.Menu)
	Reload()
	Edit(command string)
	Minimise()
	Maximise()
	Quit()
}

// Opener opens a URL outside the app.
type Opener interface {
	OpenExternal(url string) error
}

// DoNotDisturb is the notification mute switch.
type DoNotDisturb interface {
	Active() bool
	Enable(d time.Duration) error
	Disable() error
}

// Registrar attaches the application menu.
type Registrar struct {
	Config config.Config
	Opener Opener
	DND    DoNotDisturb // optional
	Log    logger.Logger
}

// Register builds the menu and attaches it to w.
func (r *Registrar) Register(w Window) {
	w.SetMenu(r.Build(w))
}

// Build returns the application menu wired to w.
func (r *Registrar) Build(w Window) *menu.Menu {
	log := logging.OrNop(r.Log)
	m := menu.NewMenu()

	app := m.AddSubmenu("App")
	app.AddText("Reload", keys.CmdOrCtrl("r"), func(*menu.CallbackData) { w.Reload() })
	app.AddText("Open in Browser", keys.CmdOrCtrl("shift+o"), func(*menu.CallbackData) {
		if r.Opener == nil {
			return
		}
		if err := r.Opener.OpenExternal(r.Config.URL); err != nil {
			log.Warning(fmt.Sprintf("menus: open %s: %v", r.Config.URL, err))
		}
	})
	if r.DND != nil {
		app.AddSeparator()
		var item *menu.MenuItem
		item = app.AddCheckbox("Do Not Disturb (1 hour)", r.DND.Active(), nil, func(*menu.CallbackData) {
			item.Checked = r.toggleDND(log)
			w.SetMenu(m)
		})
	}
	app.AddSeparator()
	app.AddText("Quit", keys.CmdOrCtrl("q"), func(*menu.CallbackData) { w.Quit() })

	edit := m.AddSubmenu("Edit")
	edit.AddText("Undo", keys.CmdOrCtrl("z"), editCmd(w, Undo))
	edit.AddText("Redo", keys.CmdOrCtrl("shift+z"), editCmd(w, Redo))
	edit.AddSeparator()
	edit.AddText("Cut", keys.CmdOrCtrl("x"), editCmd(w, Cut))
	edit.AddText("Copy", keys.CmdOrCtrl("c"), editCmd(w, Copy))
	edit.AddText("Paste", keys.CmdOrCtrl("v"), editCmd(w, Paste))
	edit.AddText("Select All", keys.CmdOrCtrl("a"), editCmd(w, SelectAll))

	win := m.AddSubmenu("Window")
	win.AddText("Minimize", keys.CmdOrCtrl("m"), func(*menu.CallbackData) { w.Minimise() })
	win.AddText("Zoom", nil, func(*menu.CallbackData) { w.Maximise() })

	return m
}

// toggleDND flips the mute switch and returns the new state.
func (r *Registrar) toggleDND(log logger.Logger) bool {
	if r.DND.Active() {
		if err := r.DND.Disable(); err != nil {
			log.Warning(fmt.Sprintf("menus: do not disturb: %v", err))
		}
	} else if err := r.DND.Enable(SilenceFor); err != nil {
		log.Warning(fmt.Sprintf("menus: do not disturb: %v", err))
	}
	return r.DND.Active()
}

func editCmd(w Window, command string) menu.Callback {
	return func(*menu.CallbackData) { w.Edit(command) }
}
