package synth

import (
	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
)

// buildPerc is the generic percussion voice behind both perc kinds: a
// triangle fundamental mixed with a sine at a harmonic ratio, band-passed
// with tunable resonance, plus a short noise burst. tone balances the
// oscillator body against the noise. perc1 and perc2 differ only in their
// default parameters.
//
// Parameters: pitch (Hz), ratio (harmonic multiple), tone (osc/noise balance
// 0..1), resonance (band-pass Q), decay (s).
func buildPerc(ctx *graph.Context, when, velocity float64, p korvet.Params) *Voice {
	pitch := p.Get("pitch", 500)
	ratio := p.Get("ratio", 1.5)
	tone := p.Get("tone", 0.5)
	resonance := p.Get("resonance", 6)
	decay := p.Get("decay", 0.15)

	oscA := graph.NewOsc(ctx, graph.Triangle, pitch)
	oscB := graph.NewOsc(ctx, graph.Sine, pitch*ratio)
	oscEnv := graph.NewGain(ctx, 0, oscA, oscB)
	decayEnvelope(oscEnv.Level, velocity*(1-tone), when, decay)
	bp := graph.NewBiquad(ctx, graph.Bandpass, pitch*2, resonance, oscEnv)

	noise := graph.NewNoise(ctx)
	noiseEnv := graph.NewGain(ctx, 0, noise)
	decayEnvelope(noiseEnv.Level, velocity*tone, when, decay*0.3)

	out := graph.NewGain(ctx, 1, bp, noiseEnv)
	return newVoice(out, when, when+decay+stopMargin, oscA, oscB, noise)
}

// voiceBuilders dispatches a trigger to the kind's builder. The table is the
// closed set of synth kinds; the rack refuses kinds not present here.
var voiceBuilders = map[korvet.SynthKind]func(*graph.Context, float64, float64, korvet.Params) *Voice{
	korvet.Kick:  buildKick,
	korvet.Snare: buildSnare,
	korvet.HiHat: buildHiHat,
	korvet.Clap:  buildClap,
	korvet.Rim:   buildRim,
	korvet.Tom:   buildTom,
	korvet.Perc1: buildPerc,
	korvet.Perc2: buildPerc,
}
