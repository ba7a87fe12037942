package graph

import "math"

// FilterKind selects a biquad response.
type FilterKind int

const (
	Lowpass FilterKind = iota
	Highpass
	Bandpass
)

// Biquad filters a single upstream source. Coefficients are fixed at
// construction; sweeps in the drum voices’ design are frequency ramps on the
// oscillators, never on the filters, so there is no automation here. Only the
// render goroutine touches the filter state.
type Biquad struct {
	in                 Source
	b0, b1, b2, a1, a2 float32
	x1, x2, y1, y2     float32
	buf                []float32
}

// NewBiquad creates a filter of the given kind with center/cutoff frequency
// freq (Hz) and resonance q, fed by in.
func NewBiquad(c *Context, kind FilterKind, freq, q float64, in Source) *Biquad {
	if q < 0.01 {
		q = 0.01
	}
	omega := 2 * math.Pi * freq / c.sampleRate
	sinw, cosw := math.Sincos(omega)
	alpha := sinw / (2 * q)
	var b0, b1, b2 float64
	switch kind {
	case Highpass:
		b0 = (1 + cosw) / 2
		b1 = -(1 + cosw)
		b2 = b0
	case Bandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
	default: // Lowpass
		b0 = (1 - cosw) / 2
		b1 = 1 - cosw
		b2 = b0
	}
	a0 := 1 + alpha
	return &Biquad{
		in:  in,
		b0:  float32(b0 / a0),
		b1:  float32(b1 / a0),
		b2:  float32(b2 / a0),
		a1:  float32(-2 * cosw / a0),
		a2:  float32((1 - alpha) / a0),
		buf: make([]float32, MaxBlock),
	}
}

func (f *Biquad) Render(dst []float32, frame int64) {
	n := len(dst)
	buf := f.buf[:n]
	for i := range buf {
		buf[i] = 0
	}
	f.in.Render(buf, frame)
	for i, x := range buf {
		y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		dst[i] += y
	}
}
