// Package synth implements the eight drum synthesis engines of the drum
// machine. Each engine builds one Voice per trigger: a fresh chain of graph
// nodes with every envelope and stop already scheduled against the clock, so
// a voice plays and falls silent without anyone attending to it. Engines own
// their voices; an explicit registry sweep reclaims them after their end
// time (there are no cleanup timers).
package synth

import (
	"sync"

	"github.com/korvet-audio/korvet/graph"
)

// epsilon is the floor for exponential ramp targets; ramping to exactly zero
// is undefined.
const epsilon = 0.0001

// chokeFade is how long a choked voice takes to ramp to silence.
const chokeFade = 0.005

// stopMargin pads generator stop times past the envelope tail.
const stopMargin = 0.05

// sweepMargin is how long past its end time a voice stays in the registry
// before a sweep reclaims it.
const sweepMargin = 0.1

// Voice is one triggered drum hit: the node chain built for it, its lifetime
// on the clock, and the capability to stop it early. A voice is owned
// exclusively by the engine that created it and never outlives it.
type Voice struct {
	out  *graph.Gain // chain output, attached to the engine's output stage
	gens []graph.Generator

	mu      sync.Mutex
	start   float64
	end     float64
	stopped bool
}

func newVoice(out *graph.Gain, start, end float64, gens ...graph.Generator) *Voice {
	v := &Voice{out: out, gens: gens, start: start, end: end}
	for _, g := range gens {
		g.Start(start)
		g.Stop(end)
	}
	return v
}

// StartTime returns the clock time the voice was triggered at.
func (v *Voice) StartTime() float64 {
	return v.start
}

// EndTime returns the clock time by which the voice is silent.
func (v *Voice) EndTime() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.end
}

// Stop silences the voice at clock time at: the output level ramps to the
// epsilon floor over the choke fade and every generator is stopped right
// after. This is the early-termination path used by choke groups and
// Dispose; a voice left alone goes silent through its own scheduled
// envelopes instead. Stop is idempotent — the stop-time races between choke,
// dispose and the natural decay are expected and benign.
func (v *Voice) Stop(at float64) {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}
	v.stopped = true
	end := at + 2*chokeFade
	if end < v.end {
		v.end = end
	}
	v.mu.Unlock()

	level := v.out.Level.ValueAt(at)
	if level < epsilon {
		level = epsilon
	}
	v.out.Level.CancelScheduledValues(at)
	v.out.Level.SetValueAtTime(level, at)
	v.out.Level.ExponentialRampToValueAtTime(epsilon, at+chokeFade)
	for _, g := range v.gens {
		g.Stop(at + 2*chokeFade)
	}
}

// expired reports whether the voice is safely past its end at clock time now.
func (v *Voice) expired(now float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now > v.end+sweepMargin
}

// decayEnvelope schedules a one-shot percussive envelope on a gain level:
// jump to peak at t, exponential decay to the epsilon floor by t+decay.
func decayEnvelope(level *graph.Param, peak, t, decay float64) {
	if peak < epsilon {
		peak = epsilon
	}
	if decay <= 0 {
		decay = 0.001
	}
	level.SetValueAtTime(peak, t)
	level.ExponentialRampToValueAtTime(epsilon, t+decay)
}
