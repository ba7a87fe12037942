package graph

import (
	"sync"

	"github.com/viterin/vek/vek32"
)

// Gain sums its inputs and scales the mix by its Level parameter. It is the
// only node with a mutable input set: voices are attached to engine outputs
// and engine outputs to the master through it, so input changes are guarded
// against the render goroutine.
type Gain struct {
	mu     sync.Mutex
	inputs []Source

	// Level is the gain amount, automatable. Envelopes are Level timelines.
	Level *Param

	buf      []float32
	levelBuf []float32
}

// NewGain creates a gain stage at the given level with the given initial
// inputs.
func NewGain(c *Context, level float64, inputs ...Source) *Gain {
	return &Gain{
		inputs:   inputs,
		Level:    NewParam(c, level),
		buf:      make([]float32, MaxBlock),
		levelBuf: make([]float32, MaxBlock),
	}
}

// AddInput attaches a source to the mix. Safe while rendering.
func (g *Gain) AddInput(s Source) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inputs = append(g.inputs, s)
}

// RemoveInput detaches a source; detaching a source that is not attached is a
// no-op, so disconnect races are benign.
func (g *Gain) RemoveInput(s Source) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, in := range g.inputs {
		if in == s {
			g.inputs = append(g.inputs[:i], g.inputs[i+1:]...)
			return
		}
	}
}

// NumInputs returns the number of attached sources.
func (g *Gain) NumInputs() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inputs)
}

func (g *Gain) Render(dst []float32, frame int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(dst)
	buf := vek32.Zeros_Into(g.buf, n)
	for _, in := range g.inputs {
		in.Render(buf, frame)
	}
	g.Level.Eval(g.levelBuf[:n], frame)
	vek32.Mul_Inplace(buf, g.levelBuf[:n])
	vek32.Add_Inplace(dst, buf)
}
