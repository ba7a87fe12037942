package graph

import "sync"

// Noise is a white noise generator with the same scheduled lifetime semantics
// as Osc.
type Noise struct {
	mu         sync.Mutex
	startFrame int64
	stopFrame  int64
	seed       uint32
	ctx        *Context
}

// NewNoise creates a noise generator. It produces nothing until started.
func NewNoise(c *Context) *Noise {
	return &Noise{startFrame: never, stopFrame: never, seed: 1, ctx: c}
}

// Start schedules the generator to begin producing at clock time at.
func (n *Noise) Start(at float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.startFrame = n.ctx.FrameAt(at)
}

// Stop schedules the generator to fall silent at clock time at; the earliest
// stop wins and double stops are benign.
func (n *Noise) Stop(at float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if f := n.ctx.FrameAt(at); f < n.stopFrame {
		n.stopFrame = f
	}
}

func (n *Noise) Render(dst []float32, frame int64) {
	n.mu.Lock()
	start, stop := n.startFrame, n.stopFrame
	n.mu.Unlock()
	if start == never || frame+int64(len(dst)) <= start || frame >= stop {
		return
	}
	for i := range dst {
		f := frame + int64(i)
		if f < start || f >= stop {
			continue
		}
		dst[i] += n.rand()
	}
}

// rand is a linear congruential generator mapped to [-1, 1).
func (n *Noise) rand() float32 {
	n.seed *= 16007
	return float32(int32(n.seed)) / -2147483648.0
}
