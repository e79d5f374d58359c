//go:build linux

package toast

import (
	"fmt"
	"os/exec"
)

// Show displays a Linux desktop notification using notify-send.
func Show(title, body, icon string) error {
	bin, err := exec.LookPath("notify-send")
	if err != nil {
		return ErrUnavailable
	}
	args := []string{"--app-name=teamsdesk"}
	if icon != "" {
		args = append(args, "--icon="+icon)
	}
	args = append(args, "--", title, body)
	if out, err := exec.Command(bin, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("toast failed: %w\n%s", err, out)
	}
	return nil
}
