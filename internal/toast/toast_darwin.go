//go:build darwin

package toast

import (
	"fmt"
	"os/exec"

	"github.com/Mavwarf/teamsdesk/internal/escape"
)

// Show displays a macOS notification using osascript. macOS always uses
// the application icon, so icon is ignored.
func Show(title, body, icon string) error {
	bin, err := exec.LookPath("osascript")
	if err != nil {
		return ErrUnavailable
	}
	script := fmt.Sprintf(`display notification "%s" with title "%s"`,
		escape.AppleScript(body), escape.AppleScript(title))
	if out, err := exec.Command(bin, "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("toast failed: %w\n%s", err, out)
	}
	return nil
}
