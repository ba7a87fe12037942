package synth_test

import (
	"math"
	"testing"

	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
	"github.com/korvet-audio/korvet/synth"
)

const sampleRate = 44100

// renderSeconds pulls the whole graph for the given duration and returns the
// left channel.
func renderSeconds(t *testing.T, ctx *graph.Context, seconds float64) []float32 {
	t.Helper()
	buf := make(korvet.AudioBuffer, int(seconds*sampleRate))
	if err := ctx.Render(buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := make([]float32, len(buf))
	for i, frame := range buf {
		out[i] = frame[0]
	}
	return out
}

// windowRMS measures signal level between two clock times.
func windowRMS(out []float32, from, to float64) float64 {
	lo, hi := int(from*sampleRate), int(to*sampleRate)
	if hi > len(out) {
		hi = len(out)
	}
	var sum float64
	for _, v := range out[lo:hi] {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(hi-lo))
}

func TestEveryKindProducesADecayingHit(t *testing.T) {
	for _, kind := range korvet.SynthKinds {
		t.Run(string(kind), func(t *testing.T) {
			ctx := graph.NewContext(sampleRate, 1)
			rack := synth.NewRack(ctx)
			rack.Trigger(kind, 0, 1, nil)
			out := renderSeconds(t, ctx, 1)
			attack := windowRMS(out, 0, 0.05)
			tail := windowRMS(out, 0.9, 1)
			if attack < 0.005 {
				t.Fatalf("attack rms %v, expected audible output", attack)
			}
			if tail > attack/10 {
				t.Fatalf("tail rms %v vs attack %v, hit should have decayed", tail, attack)
			}
		})
	}
}

func TestTriggerAtFutureTime(t *testing.T) {
	ctx := graph.NewContext(sampleRate, 1)
	rack := synth.NewRack(ctx)
	rack.Trigger(korvet.Snare, 0.25, 1, nil)
	out := renderSeconds(t, ctx, 0.5)
	if got := windowRMS(out, 0, 0.2); got != 0 {
		t.Fatalf("rms %v before the scheduled trigger, want exact silence", got)
	}
	if got := windowRMS(out, 0.25, 0.35); got < 0.005 {
		t.Fatalf("rms %v after the scheduled trigger, expected audible output", got)
	}
}

func TestTriggerSnapshotsParameters(t *testing.T) {
	ctx := graph.NewContext(sampleRate, 1)
	rack := synth.NewRack(ctx)
	engine, _ := rack.Engine(korvet.Kick)
	params := korvet.Params{"decay": 0.8}
	engine.Trigger(0, 1, params)
	// neither mutating the caller's map nor the engine defaults may reach
	// the voice already in flight
	params["decay"] = 0.001
	engine.SetParameter("decay", 0.001)
	out := renderSeconds(t, ctx, 0.6)
	if got := windowRMS(out, 0.2, 0.3); got < 0.01 {
		t.Fatalf("rms %v at 0.2s, the long-decay snapshot should still be sounding", got)
	}
}

func TestSetParameterAffectsSubsequentTriggers(t *testing.T) {
	ctx := graph.NewContext(sampleRate, 1)
	rack := synth.NewRack(ctx)
	engine, _ := rack.Engine(korvet.Kick)
	if got := engine.Parameter("decay", 0); got != 0.4 {
		t.Fatalf("default decay %v, want 0.4", got)
	}
	engine.SetParameter("decay", 0.05)
	if got := engine.Parameter("decay", 0); got != 0.05 {
		t.Fatalf("decay %v after SetParameter, want 0.05", got)
	}
	engine.Trigger(0, 1, nil)
	out := renderSeconds(t, ctx, 0.5)
	attack := windowRMS(out, 0, 0.05)
	later := windowRMS(out, 0.2, 0.3)
	if later > attack/10 {
		t.Fatalf("rms %v at 0.2s vs attack %v, the shortened decay should apply", later, attack)
	}
}

func chokeRun(t *testing.T, secondGroup float64, secondHit bool) float64 {
	t.Helper()
	ctx := graph.NewContext(sampleRate, 1)
	rack := synth.NewRack(ctx)
	rack.Trigger(korvet.HiHat, 0, 1, korvet.Params{"decay": 2, "chokeGroup": 0})
	if secondHit {
		rack.Trigger(korvet.HiHat, 0.2, 1, korvet.Params{"decay": 0.05, "chokeGroup": secondGroup})
	}
	out := renderSeconds(t, ctx, 0.6)
	return windowRMS(out, 0.3, 0.5)
}

func TestChokeGroupCutsPreviousVoice(t *testing.T) {
	open := chokeRun(t, 0, false)
	choked := chokeRun(t, 0, true)
	if choked > open/4 {
		t.Fatalf("rms %v after choke vs %v unchoked, the open hat should have been cut", choked, open)
	}
}

func TestDifferentChokeGroupsDoNotInteract(t *testing.T) {
	open := chokeRun(t, 0, false)
	unrelated := chokeRun(t, 1, true)
	if unrelated < open/2 {
		t.Fatalf("rms %v with an unrelated group vs %v alone, the open hat should keep ringing", unrelated, open)
	}
}

func TestSweepReclaimsExpiredVoices(t *testing.T) {
	ctx := graph.NewContext(sampleRate, 1)
	rack := synth.NewRack(ctx)
	engine, _ := rack.Engine(korvet.Kick)
	engine.Trigger(0, 1, nil) // ends at decay 0.4 plus the stop margin
	if got := engine.ActiveVoices(); got != 1 {
		t.Fatalf("%d active voices, want 1", got)
	}
	engine.Sweep(0.3)
	if got := engine.ActiveVoices(); got != 1 {
		t.Fatalf("%d active voices after an early sweep, want 1", got)
	}
	engine.Sweep(1)
	if got := engine.ActiveVoices(); got != 0 {
		t.Fatalf("%d active voices after the end time passed, want 0", got)
	}
}

func TestDisposeIsTerminal(t *testing.T) {
	ctx := graph.NewContext(sampleRate, 1)
	rack := synth.NewRack(ctx)
	// two hats in one group so dispose stops an already-choked voice again
	rack.Trigger(korvet.HiHat, 0, 1, korvet.Params{"decay": 2, "chokeGroup": 0})
	rack.Trigger(korvet.HiHat, 0, 1, korvet.Params{"decay": 2, "chokeGroup": 0})
	rack.Dispose()
	rack.Dispose() // idempotent
	engine, _ := rack.Engine(korvet.HiHat)
	if got := engine.ActiveVoices(); got != 0 {
		t.Fatalf("%d active voices after dispose, want 0", got)
	}
	engine.Trigger(0, 1, nil)
	if got := engine.ActiveVoices(); got != 0 {
		t.Fatalf("%d active voices, a disposed engine must drop triggers", got)
	}
	out := renderSeconds(t, ctx, 0.2)
	if got := windowRMS(out, 0.1, 0.2); got > 0.001 {
		t.Fatalf("rms %v after dispose, everything should be silent", got)
	}
}

func TestUnknownKindIsDropped(t *testing.T) {
	ctx := graph.NewContext(sampleRate, 1)
	rack := synth.NewRack(ctx)
	rack.Trigger("cowbell", 0, 1, nil) // must not panic
	out := renderSeconds(t, ctx, 0.1)
	if got := windowRMS(out, 0, 0.1); got != 0 {
		t.Fatalf("rms %v, an unknown kind should produce nothing", got)
	}
}
