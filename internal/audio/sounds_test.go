package audio

import (
	"testing"
	"time"
)

func TestSoundsHaveNames(t *testing.T) {
	for key, s := range Sounds {
		if s.Name != key {
			t.Errorf("Sounds[%q].Name = %q", key, s.Name)
		}
		if len(s.Segments) == 0 {
			t.Errorf("Sounds[%q] has no segments", key)
		}
	}
}

func TestGeneratePCMLength(t *testing.T) {
	s := Sound{Segments: []ToneSegment{
		{Frequency: 440, Duration: 100 * time.Millisecond, Volume: 0.5},
	}}
	// 44100 * 0.1s = 4410 frames, 4 bytes each
	if got, want := len(GeneratePCM(s)), 4410*4; got != want {
		t.Errorf("len(pcm) = %d, want %d", got, want)
	}
}

func TestGeneratePCMSilence(t *testing.T) {
	s := Sound{Segments: []ToneSegment{
		{Frequency: 0, Duration: 50 * time.Millisecond},
	}}
	pcm := GeneratePCM(s)
	for i := 0; i+1 < len(pcm); i += 2 {
		if sample := int16(pcm[i]) | int16(pcm[i+1])<<8; sample != 0 {
			t.Fatalf("sample at byte %d = %d, want 0", i, sample)
		}
	}
}

func TestPlayUnknownSound(t *testing.T) {
	if err := Play("klaxon"); err == nil {
		t.Fatal("expected error for unknown sound")
	}
}
