package synth

import (
	"sync"

	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
)

// Engine is one drum synthesis engine. The eight kinds share this single
// concrete type — the kind selects a parameter schema and a voice builder
// from closed tables, so the variant set cannot grow by subclassing. An
// engine owns its active voices and its fixed output stage; the output
// connects to exactly one downstream mix node.
type Engine struct {
	kind   korvet.SynthKind
	ctx    *graph.Context
	chokes *chokeRegistry
	out    *graph.Gain

	mu       sync.Mutex
	params   korvet.Params
	voices   []*Voice
	dst      *graph.Gain
	disposed bool
}

func newEngine(ctx *graph.Context, kind korvet.SynthKind, chokes *chokeRegistry) *Engine {
	return &Engine{
		kind:   kind,
		ctx:    ctx,
		chokes: chokes,
		out:    graph.NewGain(ctx, 1),
		params: kind.Defaults(),
	}
}

// Kind returns the engine's synth kind.
func (e *Engine) Kind() korvet.SynthKind { return e.kind }

// Trigger synthesizes one hit: it merges the engine's persistent defaults
// with the per-trigger overrides, snapshots the result by value, builds a
// fresh voice chain with all of its envelopes scheduled at/after when, and
// registers the voice. Later SetParameter calls or map mutations by the
// caller never reach a voice already in flight. velocity is the linear
// 0..1 gain of the hit, already composed from step velocity and track
// volume. Trigger never panics for finite numeric parameters; range
// checking is the caller's contract.
func (e *Engine) Trigger(when, velocity float64, params korvet.Params) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	snapshot := e.params.Merged(params)
	e.mu.Unlock()

	v := voiceBuilders[e.kind](e.ctx, when, velocity, snapshot)
	if group := int(snapshot.Get("chokeGroup", -1)); group >= 0 {
		e.chokes.replace(group, v, when)
	}
	e.mu.Lock()
	e.voices = append(e.voices, v)
	e.mu.Unlock()
	e.out.AddInput(v.out)
	e.Sweep(e.ctx.CurrentTime())
}

// SetParameter sets a persistent default parameter, affecting subsequent
// triggers only.
func (e *Engine) SetParameter(name string, value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params[name] = value
}

// Parameter reads a persistent default parameter, falling back to def when
// the engine has no such key.
func (e *Engine) Parameter(name string, def float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.Get(name, def)
}

// Connect wires the engine's output stage to the destination mix node,
// unwiring any previous destination first so the output feeds exactly one
// downstream node.
func (e *Engine) Connect(dst *graph.Gain) {
	e.mu.Lock()
	prev := e.dst
	e.dst = dst
	e.mu.Unlock()
	if prev != nil {
		prev.RemoveInput(e.out)
	}
	if dst != nil {
		dst.AddInput(e.out)
	}
}

// Disconnect unwires the engine's output from its destination.
func (e *Engine) Disconnect() {
	e.Connect(nil)
}

// Sweep reclaims voices whose end time has safely passed: their chains are
// detached from the output stage and dropped from the registry. The
// scheduler calls this once per pass; Trigger calls it too so an idle
// transport still cannot accumulate voices.
func (e *Engine) Sweep(now float64) {
	e.mu.Lock()
	kept := e.voices[:0]
	var reaped []*Voice
	for _, v := range e.voices {
		if v.expired(now) {
			reaped = append(reaped, v)
		} else {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < len(e.voices); i++ {
		e.voices[i] = nil
	}
	e.voices = kept
	e.mu.Unlock()
	for _, v := range reaped {
		e.out.RemoveInput(v.out)
	}
}

// ActiveVoices returns the number of voices currently tracked.
func (e *Engine) ActiveVoices() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices)
}

// Dispose force-stops every active voice immediately and disconnects the
// output. The engine accepts no further triggers afterwards; terminal.
func (e *Engine) Dispose() {
	now := e.ctx.CurrentTime()
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	voices := e.voices
	e.voices = nil
	e.mu.Unlock()
	for _, v := range voices {
		v.Stop(now)
		e.out.RemoveInput(v.out)
	}
	e.Disconnect()
}

// chokeRegistry tracks the currently sounding voice of each choke group.
// Replacing a group's voice force-stops the previous member at the new
// trigger time; voices in different groups never interact.
type chokeRegistry struct {
	mu     sync.Mutex
	active map[int]*Voice
}

func newChokeRegistry() *chokeRegistry {
	return &chokeRegistry{active: make(map[int]*Voice)}
}

func (c *chokeRegistry) replace(group int, v *Voice, at float64) {
	c.mu.Lock()
	prev := c.active[group]
	c.active[group] = v
	c.mu.Unlock()
	if prev != nil && prev != v {
		prev.Stop(at)
	}
}
