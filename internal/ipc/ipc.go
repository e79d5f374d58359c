// Package ipc is the message channel between the rendered page and the
// shell process.
package ipc

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// Channel names shared with the page and the login popup.
const (
	ChannelNotifications     = "notifications"
	ChannelNotificationClick = "nativeNotificationClick"
	ChannelSubmitForm        = "submitForm"
	ChannelPageTitle         = "page-title" // shell -> page
)

// Handler receives the payload of one message. The payload is whatever the
// sender emitted, typically a map decoded from JSON.
type Handler func(payload any)

// Bus delivers messages by channel name.
type Bus interface {
	On(channel string, h Handler)
	Emit(channel string, payload any)
}

// NotificationMessage is the payload of ChannelNotifications.
type NotificationMessage struct {
	Count int    `json:"count"`
	Text  string `json:"text"`
}

// SubmitFormMessage is the payload of ChannelSubmitForm.
type SubmitFormMessage struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Decode copies a loosely typed payload into out. Unknown keys are ignored
// and missing keys leave the zero value, so a notification without "count"
// decodes as count 0. JSON text payloads are parsed first.
func Decode(raw any, out any) error {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return decodeJSON([]byte(v), out)
	case []byte:
		return decodeJSON(v, out)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("ipc: decode: %w", err)
	}
	return nil
}

func decodeJSON(data []byte, out any) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("ipc: decode: %w", err)
	}
	return Decode(m, out)
}

// LocalBus is an in-process Bus. Emit runs the channel's handlers
// synchronously, in registration order.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[string][]Handler)}
}

func (b *LocalBus) On(channel string, h Handler) {
	b.mu.Lock()
	b.handlers[channel] = append(b.handlers[channel], h)
	b.mu.Unlock()
}

func (b *LocalBus) Emit(channel string, payload any) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[channel]...)
	b.mu.RUnlock()
	for _, h := range hs {
		h(payload)
	}
}
