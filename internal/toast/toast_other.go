//go:build !linux && !darwin && !windows

package toast

// Show reports ErrUnavailable on platforms without a supported notifier.
func Show(title, body, icon string) error {
	return ErrUnavailable
}
