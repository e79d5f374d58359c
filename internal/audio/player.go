package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	otoCtx     *oto.Context
	otoOnce    sync.Once
	otoInitErr error
)

func getContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return otoCtx, otoInitErr
}

// Play renders the named chime and blocks until playback completes.
func Play(name string) error {
	s, ok := Sounds[name]
	if !ok {
		return fmt.Errorf("audio: unknown sound %q", name)
	}
	ctx, err := getContext()
	if err != nil {
		return fmt.Errorf("audio: init: %w", err)
	}

	player := ctx.NewPlayer(bytes.NewReader(GeneratePCM(s)))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(5 * time.Millisecond)
	}
	return player.Close()
}
