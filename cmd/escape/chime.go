package main

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// chime plays a short two-note bell when the singularity is hit.
type chime struct {
	mixer *beep.Mixer
}

func newChime() (*chime, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return nil, err
	}
	c := &chime{mixer: &beep.Mixer{}}
	speaker.Play(c.mixer)
	return c, nil
}

// Play queues one chime. It returns immediately.
func (c *chime) Play() {
	speaker.Lock()
	c.mixer.Add(beep.Seq(
		beep.Take(sampleRate.N(150*time.Millisecond), newBell(sampleRate, 880)),
		beep.Take(sampleRate.N(350*time.Millisecond), newBell(sampleRate, 1320)),
	))
	speaker.Unlock()
}

func (c *chime) Close() {
	speaker.Lock()
	c.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
}

// bell is a sine tone with an exponential decay.
type bell struct {
	sr   beep.SampleRate
	freq float64
	pos  int
}

func newBell(sr beep.SampleRate, freq float64) *bell {
	return &bell{sr: sr, freq: freq}
}

func (b *bell) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(b.pos) / float64(b.sr)
		v := 0.25 * math.Exp(-6*t) * math.Sin(2*math.Pi*b.freq*t)
		samples[i][0] = v
		samples[i][1] = v
		b.pos++
	}
	return len(samples), true
}

func (b *bell) Err() error { return nil }
