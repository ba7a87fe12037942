package graph_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
)

// constSource adds a fixed value to every frame.
type constSource float32

func (s constSource) Render(dst []float32, frame int64) {
	for i := range dst {
		dst[i] += float32(s)
	}
}

type panicSource struct{}

func (panicSource) Render(dst []float32, frame int64) {
	panic("boom")
}

// renderBlocks pulls frames from src in blocks, the way the context pulls its
// master node, and returns the concatenated output.
func renderBlocks(src graph.Source, frames int) []float32 {
	out := make([]float32, frames)
	for pos := 0; pos < frames; pos += graph.MaxBlock {
		n := graph.MaxBlock
		if frames-pos < n {
			n = frames - pos
		}
		src.Render(out[pos:pos+n], int64(pos))
	}
	return out
}

func rms(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestContextClock(t *testing.T) {
	c := graph.NewContext(44100, 1)
	if !c.IsInitialized() {
		t.Fatal("fresh context should be initialized")
	}
	if got := c.CurrentTime(); got != 0 {
		t.Fatalf("clock starts at %v, want 0", got)
	}
	buf := make(korvet.AudioBuffer, 441)
	if err := c.Render(buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := c.CurrentTime(); math.Abs(got-0.01) > 1e-9 {
		t.Fatalf("clock at %v after 441 frames, want 0.01", got)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if c.IsInitialized() {
		t.Fatal("closed context should not be initialized")
	}
	if err := c.Render(buf); err == nil {
		t.Fatal("render on a closed context should fail")
	}
}

func TestContextRenderDuplicatesMono(t *testing.T) {
	c := graph.NewContext(44100, 0.5)
	c.Master().AddInput(constSource(0.8))
	buf := make(korvet.AudioBuffer, 16)
	if err := c.Render(buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	for i, frame := range buf {
		if math.Abs(float64(frame[0])-0.4) > 1e-6 {
			t.Fatalf("frame %d: got %v, want 0.8 scaled by the 0.5 master level", i, frame[0])
		}
		if frame[0] != frame[1] {
			t.Fatalf("frame %d: channels differ: %v vs %v", i, frame[0], frame[1])
		}
	}
	c.SetMasterVolume(0.25)
	if err := c.Render(buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if math.Abs(float64(buf[0][0])-0.2) > 1e-6 {
		t.Fatalf("got %v after lowering the master volume, want 0.8*0.25", buf[0][0])
	}
}

func TestContextRenderRecoversPanics(t *testing.T) {
	c := graph.NewContext(44100, 1)
	c.Master().AddInput(panicSource{})
	buf := make(korvet.AudioBuffer, 8)
	if err := c.Render(buf); err == nil {
		t.Fatal("a panicking node should surface as a render error")
	}
}

func TestContextRead(t *testing.T) {
	c := graph.NewContext(44100, 1)
	c.Master().AddInput(constSource(0.25))
	p := make([]byte, 2*8+4) // two frames plus a partial one
	n, err := c.Read(p)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != len(p) {
		t.Fatalf("read %d bytes, want %d", n, len(p))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(p)); got != 0.25 {
		t.Fatalf("first sample %v, want 0.25", got)
	}
	for i := 16; i < len(p); i++ {
		if p[i] != 0 {
			t.Fatal("partial trailing frame should be padded with silence")
		}
	}
	c.Close()
	if _, err := c.Read(p); err == nil {
		t.Fatal("read on a closed context should return EOF")
	}
}

func TestGainMixesAndScales(t *testing.T) {
	c := graph.NewContext(44100, 1)
	g := graph.NewGain(c, 0.5, constSource(1), constSource(1))
	dst := make([]float32, 8)
	dst[0] = 1 // render must add, not overwrite
	g.Render(dst, 0)
	if math.Abs(float64(dst[0])-2) > 1e-6 {
		t.Fatalf("dst[0] = %v, want prior 1 plus mixed 1", dst[0])
	}
	if math.Abs(float64(dst[1])-1) > 1e-6 {
		t.Fatalf("dst[1] = %v, want (1+1)*0.5", dst[1])
	}
}

func TestGainInputSet(t *testing.T) {
	c := graph.NewContext(44100, 1)
	g := graph.NewGain(c, 1)
	src := constSource(1)
	g.AddInput(src)
	if g.NumInputs() != 1 {
		t.Fatalf("got %d inputs, want 1", g.NumInputs())
	}
	g.RemoveInput(src)
	g.RemoveInput(src) // removing an absent input is a no-op
	if g.NumInputs() != 0 {
		t.Fatalf("got %d inputs, want 0", g.NumInputs())
	}
	dst := make([]float32, 4)
	g.Render(dst, 0)
	if dst[0] != 0 {
		t.Fatal("gain with no inputs should render silence")
	}
}

func TestOscSquareLifetime(t *testing.T) {
	c := graph.NewContext(44100, 1)
	o := graph.NewOsc(c, graph.Square, 441)
	out := make([]float32, 100)
	o.Render(out, 0)
	if out[0] != 0 {
		t.Fatal("an unstarted oscillator should be silent")
	}
	o.Start(0)
	o.Render(out, 0)
	// 441 Hz at 44100 Hz is a 100 frame period: 50 high, 50 low
	for i := 0; i < 50; i++ {
		if out[i] != 1 {
			t.Fatalf("frame %d: got %v, want 1 in the high half of the cycle", i, out[i])
		}
	}
	for i := 50; i < 100; i++ {
		if out[i] != -1 {
			t.Fatalf("frame %d: got %v, want -1 in the low half of the cycle", i, out[i])
		}
	}
}

func TestOscStop(t *testing.T) {
	c := graph.NewContext(44100, 1)
	o := graph.NewOsc(c, graph.Square, 441)
	o.Start(0)
	o.Stop(50.0 / 44100)
	o.Stop(80.0 / 44100) // later stop must not extend the earlier one
	out := make([]float32, 100)
	o.Render(out, 0)
	if out[49] != 1 {
		t.Fatal("oscillator should run until its stop time")
	}
	for i := 50; i < 100; i++ {
		if out[i] != 0 {
			t.Fatalf("frame %d: got %v, want silence after stop", i, out[i])
		}
	}
}

func TestOscFrequencyRamp(t *testing.T) {
	c := graph.NewContext(44100, 1)
	o := graph.NewOsc(c, graph.Sine, 880)
	o.Freq.ExponentialRampToValueAtTime(110, 0.05)
	o.Start(0)
	out := renderBlocks(o, 8820) // 0.2 s
	early := rms(out[:2205])
	late := rms(out[2205:])
	if early < 0.5 || late < 0.5 {
		t.Fatalf("sine should keep full level through a frequency ramp, got rms %v then %v", early, late)
	}
	crossEarly := zeroCrossings(out[:2205])
	crossLate := zeroCrossings(out[len(out)-2205:])
	if crossEarly <= crossLate*2 {
		t.Fatalf("downward sweep should slow the oscillation: %d early crossings vs %d late", crossEarly, crossLate)
	}
}

func zeroCrossings(x []float32) int {
	n := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] < 0) != (x[i] < 0) {
			n++
		}
	}
	return n
}

func TestNoiseLifetime(t *testing.T) {
	c := graph.NewContext(44100, 1)
	n := graph.NewNoise(c)
	out := make([]float32, 256)
	n.Render(out, 0)
	for _, v := range out {
		if v != 0 {
			t.Fatal("unstarted noise should be silent")
		}
	}
	n.Start(0)
	n.Render(out, 0)
	nonzero := 0
	for _, v := range out {
		if v != 0 {
			nonzero++
		}
		if v < -1 || v >= 1 {
			t.Fatalf("noise sample %v outside [-1, 1)", v)
		}
	}
	if nonzero < len(out)/2 {
		t.Fatalf("only %d of %d noise samples nonzero", nonzero, len(out))
	}
}

func TestBiquadResponses(t *testing.T) {
	const frames = 8192
	measure := func(kind graph.FilterKind, filterFreq, q, oscFreq float64) float64 {
		c := graph.NewContext(44100, 1)
		o := graph.NewOsc(c, graph.Sine, oscFreq)
		o.Start(0)
		f := graph.NewBiquad(c, kind, filterFreq, q, o)
		out := renderBlocks(f, frames)
		return rms(out[frames/2:]) // skip the settling transient
	}
	if got := measure(graph.Lowpass, 1000, 0.7, 100); got < 0.5 {
		t.Errorf("lowpass should pass well below cutoff, rms %v", got)
	}
	if got := measure(graph.Lowpass, 1000, 0.7, 8000); got > 0.1 {
		t.Errorf("lowpass should attenuate well above cutoff, rms %v", got)
	}
	if got := measure(graph.Highpass, 1000, 0.7, 8000); got < 0.5 {
		t.Errorf("highpass should pass well above cutoff, rms %v", got)
	}
	if got := measure(graph.Highpass, 1000, 0.7, 100); got > 0.1 {
		t.Errorf("highpass should attenuate well below cutoff, rms %v", got)
	}
	if got := measure(graph.Bandpass, 1000, 2, 1000); got < 0.2 {
		t.Errorf("bandpass should pass its center, rms %v", got)
	}
	if got := measure(graph.Bandpass, 1000, 2, 100); got > 0.15 {
		t.Errorf("bandpass should attenuate far below center, rms %v", got)
	}
}

func TestShaper(t *testing.T) {
	c := graph.NewContext(44100, 1)
	dst := make([]float32, 4)
	graph.NewShaper(c, 0.5, constSource(0.3)).Render(dst, 0)
	if dst[0] != 0.3 {
		t.Fatalf("drive 0.5 should be the identity, got %v", dst[0])
	}
	hot := make([]float32, 4)
	graph.NewShaper(c, 0.9, constSource(2)).Render(hot, 0)
	if hot[0] >= 1.2 || hot[0] <= 0 {
		t.Fatalf("high drive should saturate a hot signal toward 1, got %v", hot[0])
	}
}
