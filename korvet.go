// Package korvet is a step-sequenced drum machine that synthesizes all of its
// percussion sounds in real time from oscillators, noise generators and
// filters; there is no sample playback. The root package holds the pattern
// data model and the small interfaces shared by the subpackages: graph (the
// audio rendering substrate), synth (the drum engines), seq (the look-ahead
// scheduler), oto (realtime playback) and midi (live pad input).
package korvet

import (
	"encoding/binary"
	"io"
	"math"
)

type (
	// AudioBuffer is a buffer of stereo audio samples of L and R channels,
	// normalized to range [-1, 1] but not clamped.
	AudioBuffer [][2]float32

	// AudioContext is an audio output device to which a stream of audio can
	// be played.
	AudioContext interface {
		// Play starts playing the given stream of float32 LE stereo frames
		// and returns as soon as playback has started.
		Play(r io.Reader) CloserWaiter
		Close() error
	}

	// CloserWaiter is the handle to one playing stream: Close stops the
	// playback, Wait blocks until the stream has played to its end.
	CloserWaiter interface {
		io.Closer
		Wait()
	}
)

// Source returns an io.Reader that reads through the buffer as little-endian
// float32 stereo frames. The returned reader does not share state with the
// buffer, so multiple Sources can be read independently.
func (buffer AudioBuffer) Source() io.Reader {
	return &audioBufferReader{buffer: buffer}
}

type audioBufferReader struct {
	buffer AudioBuffer
	pos    int // read position, in bytes from the start of the buffer
}

func (r *audioBufferReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.buffer)*8 {
		return 0, io.EOF
	}
	n := 0
	for n+8 <= len(p) && r.pos < len(r.buffer)*8 {
		frame := r.buffer[r.pos/8]
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(frame[0]))
		binary.LittleEndian.PutUint32(p[n+4:], math.Float32bits(frame[1]))
		n += 8
		r.pos += 8
	}
	return n, nil
}
