package synth

import (
	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
)

// buildRim is a rimshot: a square wave through a high-Q band-pass — the
// resonance scales with the tone so higher tunings ring more metallic — plus
// a short sawtooth click swept downward and high-passed.
//
// Parameters: tone (Hz), decay (s).
func buildRim(ctx *graph.Context, when, velocity float64, p korvet.Params) *Voice {
	tone := p.Get("tone", 1700)
	decay := p.Get("decay", 0.06)

	q := 4 + 8*tone/4000
	if q > 12 {
		q = 12
	}
	body := graph.NewOsc(ctx, graph.Square, tone)
	bodyBP := graph.NewBiquad(ctx, graph.Bandpass, tone, q, body)
	bodyEnv := graph.NewGain(ctx, 0, bodyBP)
	decayEnvelope(bodyEnv.Level, velocity, when, decay)

	click := graph.NewOsc(ctx, graph.Sawtooth, tone*4)
	click.Freq.SetValueAtTime(tone*4, when)
	click.Freq.ExponentialRampToValueAtTime(tone*1.5, when+0.015)
	clickHP := graph.NewBiquad(ctx, graph.Highpass, 2500, 0.7, click)
	clickEnv := graph.NewGain(ctx, 0, clickHP)
	decayEnvelope(clickEnv.Level, velocity*0.6, when, 0.02)

	out := graph.NewGain(ctx, 1, bodyEnv, clickEnv)
	return newVoice(out, when, when+decay+stopMargin, body, click)
}
