package synth

import (
	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
)

// buildTom sweeps a sine downward into the fundamental through a resonant
// low-pass, with a very short triangle attack transient on top. sweep sets
// the depth of the pitch drop; its time tracks the decay.
//
// Parameters: pitch (Hz), decay (s), sweep (drop depth 0..1).
func buildTom(ctx *graph.Context, when, velocity float64, p korvet.Params) *Voice {
	pitch := p.Get("pitch", 130)
	decay := p.Get("decay", 0.35)
	sweep := p.Get("sweep", 0.5)

	body := graph.NewOsc(ctx, graph.Sine, pitch*(1+sweep))
	body.Freq.SetValueAtTime(pitch*(1+sweep), when)
	body.Freq.ExponentialRampToValueAtTime(pitch, when+decay*0.5)
	bodyLP := graph.NewBiquad(ctx, graph.Lowpass, pitch*4, 3, body)
	bodyEnv := graph.NewGain(ctx, 0, bodyLP)
	decayEnvelope(bodyEnv.Level, velocity, when, decay)

	attack := graph.NewOsc(ctx, graph.Triangle, pitch*6)
	attackHP := graph.NewBiquad(ctx, graph.Highpass, 1000, 0.7, attack)
	attackEnv := graph.NewGain(ctx, 0, attackHP)
	decayEnvelope(attackEnv.Level, velocity*0.5, when, 0.015)

	out := graph.NewGain(ctx, 1, bodyEnv, attackEnv)
	return newVoice(out, when, when+decay+stopMargin, body, attack)
}
