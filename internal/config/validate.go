package config

import (
	"fmt"
	"net/url"
)

// Error is a configuration problem that must abort startup.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// builtinSounds mirrors the names in audio.Sounds.
var builtinSounds = map[string]bool{
	"chime":    true,
	"ping":     true,
	"doorbell": true,
}

// Validate checks a resolved configuration. It returns the first problem
// found as an *Error.
func Validate(cfg Config) error {
	if cfg.URL == "" {
		return &Error{Field: "url", Reason: "required"}
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return &Error{Field: "url", Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &Error{Field: "url", Reason: fmt.Sprintf("%q is not an http(s) address", cfg.URL)}
	}
	if u.Host == "" {
		return &Error{Field: "url", Reason: fmt.Sprintf("%q has no host", cfg.URL)}
	}

	switch cfg.UserAgent {
	case UserAgentChrome, UserAgentEdge:
	default:
		return &Error{Field: "user_agent", Reason: fmt.Sprintf("unknown value %q (want chrome or edge)", cfg.UserAgent)}
	}

	switch cfg.WindowStateStorage {
	case StorageFile, StorageSQLite:
	default:
		return &Error{Field: "window_state_storage", Reason: fmt.Sprintf("unknown value %q (want file or sqlite)", cfg.WindowStateStorage)}
	}

	if cfg.NotificationSound != "" && !builtinSounds[cfg.NotificationSound] {
		return &Error{Field: "notification_sound", Reason: fmt.Sprintf("unknown sound %q", cfg.NotificationSound)}
	}

	if cfg.MQTT.Enabled() && cfg.MQTT.Topic == "" {
		return &Error{Field: "mqtt.topic", Reason: "required when mqtt.broker is set"}
	}
	return nil
}
