// Package toast shows native desktop notifications.
package toast

import "errors"

// ErrUnavailable means the platform has no usable notification facility.
var ErrUnavailable = errors.New("toast: notification facility unavailable")

// System is the platform notifier.
type System struct{}

func (System) Show(title, body, icon string) error {
	return Show(title, body, icon)
}
