package synth

import (
	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
)

// buildHiHat runs white noise through three parallel resonant band-passes at
// harmonically related center frequencies, then a high-pass to strip the
// rumble. The three branches each draw their own noise, which decorrelates
// the bands and makes the metallic wash denser. Hats default to choke group
// 0: an open hat (long decay) is cut dead by the next closed hat, like the
// physical instrument.
//
// Parameters: tone (base band Hz), decay (s), chokeGroup (negative disables
// choking).
func buildHiHat(ctx *graph.Context, when, velocity float64, p korvet.Params) *Voice {
	tone := p.Get("tone", 8000)
	decay := p.Get("decay", 0.08)

	nyquistGuard := 0.45 * float64(ctx.SampleRate())
	noise := graph.NewNoise(ctx)
	var bands []graph.Source
	for _, ratio := range [...]float64{1, 1.5, 2.25} {
		freq := tone * ratio
		if freq > nyquistGuard {
			freq = nyquistGuard
		}
		bands = append(bands, graph.NewBiquad(ctx, graph.Bandpass, freq, 8, noise))
	}
	mix := graph.NewGain(ctx, 1, bands...)
	hp := graph.NewBiquad(ctx, graph.Highpass, tone*0.6, 0.7, mix)
	env := graph.NewGain(ctx, 0, hp)
	decayEnvelope(env.Level, velocity, when, decay)

	out := graph.NewGain(ctx, 1, env)
	return newVoice(out, when, when+decay+stopMargin, noise)
}
