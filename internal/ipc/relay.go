package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Envelope carries one message across a process boundary as a single line
// of JSON.
type Envelope struct {
	Channel string `json:"channel"`
	Payload any    `json:"payload,omitempty"`
}

// WriteEnvelope writes one message line to w.
func WriteEnvelope(w io.Writer, channel string, payload any) error {
	data, err := json.Marshal(Envelope{Channel: channel, Payload: payload})
	if err != nil {
		return fmt.Errorf("ipc: marshal: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// Relay reads message lines from r and emits them on bus until r is
// exhausted. Lines that are not envelopes are skipped.
func Relay(r io.Reader, bus Bus) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var env Envelope
		if err := json.Unmarshal(sc.Bytes(), &env); err != nil || env.Channel == "" {
			continue
		}
		bus.Emit(env.Channel, env.Payload)
	}
	return sc.Err()
}
