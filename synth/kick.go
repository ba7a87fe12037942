package synth

import (
	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
)

// buildKick is a two-layer kick: a sub oscillator whose pitch sweeps
// exponentially from 2.5× the fundamental down to the fundamental, plus a
// short square "click" transient, summed and pushed through a soft-clip
// saturation curve.
//
// Parameters: pitch (Hz), decay (s), click (transient amount 0..1), drive
// (saturation amount 0..1).
func buildKick(ctx *graph.Context, when, velocity float64, p korvet.Params) *Voice {
	pitch := p.Get("pitch", 50)
	decay := p.Get("decay", 0.4)
	click := p.Get("click", 0.6)
	drive := p.Get("drive", 0.3)

	body := graph.NewOsc(ctx, graph.Sine, pitch*2.5)
	body.Freq.SetValueAtTime(pitch*2.5, when)
	body.Freq.ExponentialRampToValueAtTime(pitch, when+0.05)
	bodyEnv := graph.NewGain(ctx, 0, body)
	decayEnvelope(bodyEnv.Level, velocity, when, decay)

	clickOsc := graph.NewOsc(ctx, graph.Square, 1800)
	clickEnv := graph.NewGain(ctx, 0, clickOsc)
	decayEnvelope(clickEnv.Level, velocity*click*0.5, when, 0.02)

	mix := graph.NewGain(ctx, 1, bodyEnv, clickEnv)
	shaped := graph.NewShaper(ctx, 0.5+0.45*drive, mix)
	out := graph.NewGain(ctx, 1, shaped)

	return newVoice(out, when, when+decay+stopMargin, body, clickOsc)
}
