// Package graph is the audio rendering substrate of the drum machine: a small
// node graph rendered in blocks, pulled either by the realtime output (see
// the oto package) or by the offline renderer. The graph's frame counter is
// the shared hardware clock of the whole system; every trigger and parameter
// change elsewhere is scheduled against CurrentTime rather than applied
// synchronously, so the render goroutine never waits on the control thread.
package graph

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/korvet-audio/korvet"
)

// MaxBlock is the largest number of frames a node's Render is ever asked to
// produce in one call. Nodes size their scratch buffers to it.
const MaxBlock = 512

// Source is a mono audio node. Render adds the node's output for frames
// [frame, frame+len(dst)) into dst; len(dst) never exceeds MaxBlock. Adding,
// rather than overwriting, is what makes fan-in summing free at every input.
type Source interface {
	Render(dst []float32, frame int64)
}

// Generator is a source with a scheduled lifetime, i.e. an oscillator or a
// noise generator. Stopping twice (or stopping before starting) is benign;
// the earliest scheduled stop wins.
type Generator interface {
	Source
	Start(at float64)
	Stop(at float64)
}

// Context owns the master mix node and the clock. It is created once, feeds
// exactly one sink and renders on whatever goroutine pulls it; all other
// goroutines only schedule future events into the graph.
type Context struct {
	sampleRate float64
	master     *Gain
	frame      atomic.Int64
	closed     atomic.Bool
	block      []float32
	scratch    korvet.AudioBuffer // for Read
}

// NewContext creates a rendering context with the given sample rate and a
// master gain stage at the given level.
func NewContext(sampleRate int, masterLevel float64) *Context {
	c := &Context{
		sampleRate: float64(sampleRate),
		block:      make([]float32, MaxBlock),
	}
	c.master = NewGain(c, masterLevel)
	return c
}

// SampleRate returns the context's sample rate in Hz.
func (c *Context) SampleRate() int { return int(c.sampleRate) }

// Master returns the master mix node. Engine outputs connect here; the node
// is owned by the context and never replaced.
func (c *Context) Master() *Gain { return c.master }

// SetMasterVolume sets the master gain level from the current clock time
// onward; already-scheduled voice envelopes are unaffected.
func (c *Context) SetMasterVolume(level float64) {
	c.master.Level.SetValueAtTime(level, c.CurrentTime())
}

// CurrentTime returns the clock time in seconds: the number of frames
// rendered so far divided by the sample rate. It increases monotonically and
// only advances when audio is pulled.
func (c *Context) CurrentTime() float64 {
	return float64(c.frame.Load()) / c.sampleRate
}

// IsInitialized reports whether the context can render. It turns false only
// after Close.
func (c *Context) IsInitialized() bool {
	return c != nil && !c.closed.Load()
}

// FrameAt converts a clock time in seconds to the nearest frame index.
func (c *Context) FrameAt(t float64) int64 {
	return int64(math.Round(t * c.sampleRate))
}

// Render renders len(buf) stereo frames of the graph into buf, advancing the
// clock. The graph is mono internally; the master output is duplicated to
// both channels. A panicking node abandons the block and surfaces as an
// error instead of killing the puller.
func (c *Context) Render(buf korvet.AudioBuffer) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("render panicked: %v", p)
		}
	}()
	if c.closed.Load() {
		return fmt.Errorf("render on closed context")
	}
	frame := c.frame.Load()
	for len(buf) > 0 {
		n := len(buf)
		if n > MaxBlock {
			n = MaxBlock
		}
		block := c.block[:n]
		for i := range block {
			block[i] = 0
		}
		c.master.Render(block, frame)
		for i, v := range block {
			buf[i][0], buf[i][1] = v, v
		}
		buf = buf[n:]
		frame += int64(n)
		c.frame.Store(frame)
	}
	return nil
}

// Read implements io.Reader over the rendered output as little-endian
// float32 stereo frames, which is the format the realtime player pulls.
// Returns io.EOF once the context is closed.
func (c *Context) Read(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, io.EOF
	}
	frames := len(p) / 8
	if cap(c.scratch) < frames {
		c.scratch = make(korvet.AudioBuffer, frames)
	}
	buf := c.scratch[:frames]
	if err := c.Render(buf); err != nil {
		return 0, err
	}
	n := 0
	for _, frame := range buf {
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(frame[0]))
		binary.LittleEndian.PutUint32(p[n+4:], math.Float32bits(frame[1]))
		n += 8
	}
	// pad a trailing partial frame with silence so the puller never stalls
	for ; n < len(p); n++ {
		p[n] = 0
	}
	return len(p), nil
}

// Close makes the clock stop advancing and further Reads return EOF. It is
// idempotent.
func (c *Context) Close() error {
	c.closed.Store(true)
	return nil
}
