package synth

import (
	"log"

	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
)

// Rack is the full drum kit: one engine per synth kind, each wired into the
// context's master mix node, plus the shared choke registry. The rack is the
// scheduler's dispatch target.
type Rack struct {
	ctx     *graph.Context
	engines map[korvet.SynthKind]*Engine
}

// NewRack creates the eight engines and connects each to the context's
// master gain stage. Each engine connects exactly once, here.
func NewRack(ctx *graph.Context) *Rack {
	r := &Rack{
		ctx:     ctx,
		engines: make(map[korvet.SynthKind]*Engine, korvet.NumTracks),
	}
	chokes := newChokeRegistry()
	for _, kind := range korvet.SynthKinds {
		e := newEngine(ctx, kind, chokes)
		e.Connect(ctx.Master())
		r.engines[kind] = e
	}
	return r
}

// Trigger dispatches a hit to the engine of the given kind. An unknown kind
// is reported and dropped — a misconfigured track must not kill playback of
// the other tracks in the same step.
func (r *Rack) Trigger(kind korvet.SynthKind, when, velocity float64, params korvet.Params) {
	e, ok := r.engines[kind]
	if !ok {
		log.Printf("trigger: unknown synth type %q, skipping", kind)
		return
	}
	e.Trigger(when, velocity, params)
}

// Engine returns the engine for the given kind.
func (r *Rack) Engine(kind korvet.SynthKind) (*Engine, bool) {
	e, ok := r.engines[kind]
	return e, ok
}

// Sweep reclaims expired voices across all engines, in kind order.
func (r *Rack) Sweep(now float64) {
	for _, kind := range korvet.SynthKinds {
		r.engines[kind].Sweep(now)
	}
}

// Dispose force-stops everything and disconnects every engine. Terminal.
func (r *Rack) Dispose() {
	for _, kind := range korvet.SynthKinds {
		r.engines[kind].Dispose()
	}
}
