package graph

import (
	"math"
	"sort"
	"sync"
)

type rampKind int

const (
	setValue rampKind = iota
	linearRamp
	expRamp
)

type paramEvent struct {
	time  float64
	value float64
	kind  rampKind
}

// Param is a sample-accurate automation parameter: a value with a timeline of
// scheduled events. A set event jumps to its value at its time; a ramp event
// interpolates from the previous event's value and time to its own. All
// methods are safe to call from the control thread while the render goroutine
// evaluates the parameter.
type Param struct {
	mu       sync.Mutex
	def      float64
	events   []paramEvent
	perFrame float64 // seconds per frame
}

// NewParam creates a parameter holding def until the first scheduled event.
func NewParam(c *Context, def float64) *Param {
	return &Param{def: def, perFrame: 1 / c.sampleRate}
}

func (p *Param) insert(e paramEvent) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > e.time })
	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// SetValueAtTime schedules an instant jump to value at time t.
func (p *Param) SetValueAtTime(value, t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.insert(paramEvent{time: t, value: value, kind: setValue})
}

// LinearRampToValueAtTime schedules a linear glide ending at value at time t,
// starting from the previous event on the timeline.
func (p *Param) LinearRampToValueAtTime(value, t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.insert(paramEvent{time: t, value: value, kind: linearRamp})
}

// ExponentialRampToValueAtTime schedules a multiplicative glide ending at
// value at time t. The target and the preceding value must be positive: an
// exponential ramp to or from zero is undefined, so callers floor their
// targets to a small epsilon instead.
func (p *Param) ExponentialRampToValueAtTime(value, t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.insert(paramEvent{time: t, value: value, kind: expRamp})
}

// CancelScheduledValues removes every event scheduled at or after time t.
// The value already reached stays in effect.
func (p *Param) CancelScheduledValues(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.events[:0]
	for _, e := range p.events {
		if e.time < t {
			kept = append(kept, e)
		}
	}
	p.events = kept
}

// ValueAt returns the parameter's value at time t.
func (p *Param) ValueAt(t float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valueAt(t)
}

func (p *Param) valueAt(t float64) float64 {
	// index of the last event at or before t
	last := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > t }) - 1
	if last < 0 {
		if len(p.events) > 0 && p.events[0].kind != setValue {
			// a leading ramp glides from the default value
			return ramp(0, p.def, p.events[0], t)
		}
		return p.def
	}
	if next := last + 1; next < len(p.events) && p.events[next].kind != setValue {
		return ramp(p.events[last].time, p.events[last].value, p.events[next], t)
	}
	return p.events[last].value
}

func ramp(t0, v0 float64, e paramEvent, t float64) float64 {
	if e.time <= t0 {
		return e.value
	}
	frac := (t - t0) / (e.time - t0)
	if e.kind == expRamp && v0 > 0 && e.value > 0 {
		return v0 * math.Pow(e.value/v0, frac)
	}
	return v0 + (e.value-v0)*frac
}

// Eval fills dst with the parameter's per-sample values for frames starting
// at frame.
func (p *Param) Eval(dst []float32, frame int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range dst {
		dst[i] = float32(p.valueAt(float64(frame+int64(i)) * p.perFrame))
	}
}
