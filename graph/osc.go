package graph

import (
	"math"
	"sync"
)

// Waveform selects an oscillator shape.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Sawtooth
	Square
)

const never = math.MaxInt64

// Osc is a single oscillator with an automatable frequency, so pitch
// envelopes (the kick and tom sweeps) are frequency ramps on Freq. It is
// silent outside its scheduled [start, stop) lifetime and keeps phase only
// while running.
type Osc struct {
	mu         sync.Mutex
	wave       Waveform
	startFrame int64
	stopFrame  int64

	// Freq is the oscillator frequency in Hz, automatable.
	Freq *Param

	ctx     *Context
	phase   float64
	freqBuf []float32
}

// NewOsc creates an oscillator at the given initial frequency. It produces
// nothing until started.
func NewOsc(c *Context, wave Waveform, freq float64) *Osc {
	return &Osc{
		wave:       wave,
		startFrame: never,
		stopFrame:  never,
		Freq:       NewParam(c, freq),
		ctx:        c,
		freqBuf:    make([]float32, MaxBlock),
	}
}

// Start schedules the oscillator to begin producing at clock time at.
func (o *Osc) Start(at float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startFrame = o.ctx.FrameAt(at)
}

// Stop schedules the oscillator to fall silent at clock time at. The earliest
// scheduled stop wins; stopping an already-stopped oscillator is a no-op.
func (o *Osc) Stop(at float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if f := o.ctx.FrameAt(at); f < o.stopFrame {
		o.stopFrame = f
	}
}

func (o *Osc) Render(dst []float32, frame int64) {
	o.mu.Lock()
	start, stop := o.startFrame, o.stopFrame
	o.mu.Unlock()
	if start == never || frame+int64(len(dst)) <= start || frame >= stop {
		return
	}
	n := len(dst)
	o.Freq.Eval(o.freqBuf[:n], frame)
	perFrame := 1 / o.ctx.sampleRate
	for i := 0; i < n; i++ {
		f := frame + int64(i)
		if f < start || f >= stop {
			continue
		}
		dst[i] += sample(o.wave, o.phase)
		o.phase += float64(o.freqBuf[i]) * perFrame
		o.phase -= math.Floor(o.phase)
	}
}

func sample(wave Waveform, phase float64) float32 {
	switch wave {
	case Triangle:
		if phase < 0.5 {
			return float32(4*phase - 1)
		}
		return float32(3 - 4*phase)
	case Sawtooth:
		return float32(2*phase - 1)
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	default:
		return float32(math.Sin(2 * math.Pi * phase))
	}
}
