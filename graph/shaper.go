package graph

// Shaper soft-clips a single upstream source through a fixed nonlinear
// transfer curve parameterized by drive. Drive 0.5 is the identity; values
// toward 1 saturate harder.
type Shaper struct {
	in    Source
	drive float32
	buf   []float32
}

// NewShaper creates a waveshaper with the given drive amount in (0, 1), fed
// by in. Out-of-range drives are pinned inside the curve's valid domain.
func NewShaper(c *Context, drive float64, in Source) *Shaper {
	if drive < 0.01 {
		drive = 0.01
	}
	if drive > 0.99 {
		drive = 0.99
	}
	return &Shaper{in: in, drive: float32(drive), buf: make([]float32, MaxBlock)}
}

func (s *Shaper) Render(dst []float32, frame int64) {
	n := len(dst)
	buf := s.buf[:n]
	for i := range buf {
		buf[i] = 0
	}
	s.in.Render(buf, frame)
	for i, v := range buf {
		dst[i] += waveshape(v, s.drive)
	}
}

func waveshape(value, amount float32) float32 {
	absVal := value
	if absVal < 0 {
		absVal = -absVal
	}
	return value * amount / (1 - amount + (2*amount-1)*absVal)
}
