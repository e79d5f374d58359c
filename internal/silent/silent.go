// Package silent keeps the do-not-disturb switch. While it is on, page
// notifications are not shown.
package silent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Mavwarf/teamsdesk/internal/paths"
)

type state struct {
	Until string `json:"until"`
}

// Switch is the do-not-disturb state persisted in a small JSON file, so it
// survives restarts. A missing or corrupt file means "off".
type Switch struct {
	path string
	now  func() time.Time
}

// New returns the switch stored in dir.
func New(dir string) *Switch {
	return &Switch{path: filepath.Join(dir, paths.SilentFileName), now: time.Now}
}

// Active reports whether do-not-disturb is on.
func (s *Switch) Active() bool {
	_, ok := s.Until()
	return ok
}

// Until returns when do-not-disturb ends and true while it is on.
func (s *Switch) Until() (time.Time, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return time.Time{}, false
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, st.Until)
	if err != nil || s.now().After(t) {
		return time.Time{}, false
	}
	return t, true
}

// Enable turns do-not-disturb on for d.
func (s *Switch) Enable(d time.Duration) error {
	data, err := json.MarshalIndent(state{Until: s.now().Add(d).Format(time.RFC3339)}, "", "  ")
	if err != nil {
		return fmt.Errorf("silent: marshal: %w", err)
	}
	if err := paths.AtomicWrite(s.path, data); err != nil {
		return fmt.Errorf("silent: write: %w", err)
	}
	return nil
}

// Disable turns do-not-disturb off.
func (s *Switch) Disable() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("silent: remove %s: %w", s.path, err)
	}
	return nil
}

// Toggle enables for d when off and disables when on. It returns the new
// state.
func (s *Switch) Toggle(d time.Duration) (bool, error) {
	if s.Active() {
		return false, s.Disable()
	}
	return true, s.Enable(d)
}
