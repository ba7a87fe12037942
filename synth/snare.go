package synth

import (
	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
)

// buildSnare mixes a tonal body — an oscillator through a resonant band-pass
// at the tone frequency — with a high-passed noise burst. The two layers
// decay independently; snappy balances how much of the hit is noise.
//
// Parameters: tone (Hz), decay (s), snappy (noise balance 0..1).
func buildSnare(ctx *graph.Context, when, velocity float64, p korvet.Params) *Voice {
	tone := p.Get("tone", 180)
	decay := p.Get("decay", 0.2)
	snappy := p.Get("snappy", 0.7)

	body := graph.NewOsc(ctx, graph.Sine, tone)
	bodyBP := graph.NewBiquad(ctx, graph.Bandpass, tone, 1.5, body)
	bodyEnv := graph.NewGain(ctx, 0, bodyBP)
	decayEnvelope(bodyEnv.Level, velocity*(1-snappy*0.5), when, decay*0.7)

	noise := graph.NewNoise(ctx)
	noiseHP := graph.NewBiquad(ctx, graph.Highpass, 1800, 0.7, noise)
	noiseEnv := graph.NewGain(ctx, 0, noiseHP)
	decayEnvelope(noiseEnv.Level, velocity*snappy, when, decay)

	out := graph.NewGain(ctx, 1, bodyEnv, noiseEnv)
	return newVoice(out, when, when+decay+stopMargin, body, noise)
}
