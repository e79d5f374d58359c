package audio

import (
	"math"
	"time"
)

// ToneSegment is a single tone burst.
type ToneSegment struct {
	Frequency float64 // 0 = silence
	Duration  time.Duration
	Volume    float64 // 0.0 to 1.0
}

// Sound is a named notification chime built from tone segments.
type Sound struct {
	Name     string
	Segments []ToneSegment
}

const SampleRate = 44100

// Sounds is the registry of chimes selectable as notification_sound.
var Sounds = map[string]Sound{
	"chime": {
		Name: "chime",
		Segments: []ToneSegment{
			{Frequency: 659.25, Duration: 200 * time.Millisecond, Volume: 0.5}, // E5
			{Frequency: 523.25, Duration: 300 * time.Millisecond, Volume: 0.4}, // C5
		},
	},
	"ping": {
		Name: "ping",
		Segments: []ToneSegment{
			{Frequency: 1046.5, Duration: 90 * time.Millisecond, Volume: 0.5}, // C6
		},
	},
	"doorbell": {
		Name: "doorbell",
		Segments: []ToneSegment{
			{Frequency: 783.99, Duration: 180 * time.Millisecond, Volume: 0.5}, // G5
			{Frequency: 0, Duration: 40 * time.Millisecond, Volume: 0},
			{Frequency: 587.33, Duration: 280 * time.Millisecond, Volume: 0.45}, // D5
		},
	},
}

// GeneratePCM renders a sound as stereo 16-bit signed little-endian PCM.
func GeneratePCM(s Sound) []byte {
	total := 0
	for _, seg := range s.Segments {
		total += samplesFor(seg.Duration)
	}
	buf := make([]byte, 0, total*4) // 2 channels x 2 bytes

	fade := SampleRate * 5 / 1000 // 5ms ramp against clicks
	for _, seg := range s.Segments {
		n := samplesFor(seg.Duration)
		for i := 0; i < n; i++ {
			env := 1.0
			switch {
			case i < fade:
				env = float64(i) / float64(fade)
			case i > n-fade:
				env = float64(n-i) / float64(fade)
			}

			var v float64
			if seg.Frequency > 0 {
				t := float64(i) / float64(SampleRate)
				v = math.Sin(2*math.Pi*seg.Frequency*t) * seg.Volume * env
			}

			sample := int16(v * 32767)
			lo, hi := byte(sample), byte(sample>>8)
			buf = append(buf, lo, hi, lo, hi)
		}
	}
	return buf
}

func samplesFor(d time.Duration) int {
	return int(float64(SampleRate) * d.Seconds())
}
