package graph_test

import (
	"math"
	"testing"

	"github.com/korvet-audio/korvet/graph"
)

const paramTolerance = 1e-9

func TestParamDefault(t *testing.T) {
	c := graph.NewContext(44100, 1)
	p := graph.NewParam(c, 2)
	if got := p.ValueAt(0); got != 2 {
		t.Fatalf("got %v, want the default 2", got)
	}
	if got := p.ValueAt(1000); got != 2 {
		t.Fatalf("got %v, want the default 2", got)
	}
}

func TestParamSetValueAtTime(t *testing.T) {
	c := graph.NewContext(44100, 1)
	p := graph.NewParam(c, 2)
	p.SetValueAtTime(4, 1)
	p.SetValueAtTime(6, 2)
	for _, tc := range []struct{ t, want float64 }{
		{0, 2}, {0.999, 2}, {1, 4}, {1.5, 4}, {2, 6}, {3, 6},
	} {
		if got := p.ValueAt(tc.t); got != tc.want {
			t.Errorf("value at %v: got %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestParamLinearRamp(t *testing.T) {
	c := graph.NewContext(44100, 1)
	p := graph.NewParam(c, 0)
	p.SetValueAtTime(4, 1)
	p.LinearRampToValueAtTime(8, 2)
	for _, tc := range []struct{ t, want float64 }{
		{1, 4}, {1.25, 5}, {1.5, 6}, {1.75, 7}, {2, 8}, {3, 8},
	} {
		if got := p.ValueAt(tc.t); math.Abs(got-tc.want) > paramTolerance {
			t.Errorf("value at %v: got %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestParamExponentialRamp(t *testing.T) {
	c := graph.NewContext(44100, 1)
	p := graph.NewParam(c, 0)
	p.SetValueAtTime(1, 0)
	p.ExponentialRampToValueAtTime(4, 2)
	for _, tc := range []struct{ t, want float64 }{
		{0, 1}, {1, 2}, {2, 4}, {3, 4},
	} {
		if got := p.ValueAt(tc.t); math.Abs(got-tc.want) > paramTolerance {
			t.Errorf("value at %v: got %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestParamLeadingRampGlidesFromDefault(t *testing.T) {
	c := graph.NewContext(44100, 1)
	p := graph.NewParam(c, 2)
	p.LinearRampToValueAtTime(10, 4)
	if got := p.ValueAt(2); math.Abs(got-6) > paramTolerance {
		t.Fatalf("got %v, want 6 halfway up the leading ramp", got)
	}
}

func TestParamCancelScheduledValues(t *testing.T) {
	c := graph.NewContext(44100, 1)
	p := graph.NewParam(c, 0)
	p.SetValueAtTime(3, 1)
	p.LinearRampToValueAtTime(9, 2)
	p.SetValueAtTime(100, 5)
	p.CancelScheduledValues(1.5)
	if got := p.ValueAt(10); got != 3 {
		t.Fatalf("got %v, want 3: cancel should keep the value already reached", got)
	}
	if got := p.ValueAt(1.5); got != 3 {
		t.Fatalf("got %v, want 3: the cancelled ramp should not interpolate", got)
	}
}

func TestParamEval(t *testing.T) {
	sampleRate := 44100
	c := graph.NewContext(sampleRate, 1)
	p := graph.NewParam(c, 0)
	p.LinearRampToValueAtTime(1, 1)
	dst := make([]float32, 3)
	p.Eval(dst, int64(sampleRate/2))
	if got := float64(dst[0]); math.Abs(got-0.5) > 1e-6 {
		t.Fatalf("got %v, want 0.5 halfway up the ramp", got)
	}
	if dst[1] <= dst[0] || dst[2] <= dst[1] {
		t.Fatalf("per-sample values %v should be strictly increasing on a rising ramp", dst)
	}
}
