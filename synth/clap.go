package synth

import (
	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
)

// buildClap layers several band-passed noise bursts, each delayed by the
// spread and slightly louder than the one before — the multi-transient flam
// of palms meeting. The last layer rings out with the full decay; the
// earlier ones are just slapbacks.
//
// Parameters: tone (band Hz), decay (s), layers (burst count), spread
// (inter-layer delay, s).
func buildClap(ctx *graph.Context, when, velocity float64, p korvet.Params) *Voice {
	tone := p.Get("tone", 1100)
	decay := p.Get("decay", 0.14)
	layers := int(p.Get("layers", 4))
	spread := p.Get("spread", 0.011)
	if layers < 1 {
		layers = 1
	}
	if layers > 8 {
		layers = 8
	}

	var (
		bursts []graph.Source
		gens   []graph.Generator
	)
	for i := 0; i < layers; i++ {
		at := when + spread*float64(i)
		layerDecay := 0.025
		if i == layers-1 {
			layerDecay = decay
		}
		noise := graph.NewNoise(ctx)
		noise.Start(at)
		noise.Stop(at + layerDecay + stopMargin)
		bp := graph.NewBiquad(ctx, graph.Bandpass, tone, 4, noise)
		env := graph.NewGain(ctx, 0, bp)
		level := velocity * (0.5 + 0.5*float64(i+1)/float64(layers))
		decayEnvelope(env.Level, level, at, layerDecay)
		bursts = append(bursts, env)
		gens = append(gens, noise)
	}

	out := graph.NewGain(ctx, 1, bursts...)
	end := when + spread*float64(layers-1) + decay + stopMargin
	v := &Voice{out: out, gens: gens, start: when, end: end}
	return v
}
