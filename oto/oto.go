// Package oto adapts github.com/ebitengine/oto/v3 to the korvet.AudioContext
// interface. The oto player pulls float32 little-endian stereo from the
// io.Reader it is given; the graph context's Read method is that reader, so
// the device's own pull cadence is what advances the audio clock.
package oto

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/korvet-audio/korvet"
)

const (
	sampleRate   = 44100
	channelCount = 2
)

type (
	Context struct {
		ctx *oto.Context
	}
	playback struct {
		player *oto.Player
		once   sync.Once
		err    error
	}
)

// NewContext opens the audio device and blocks until it is ready to play.
func NewContext() (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx}, nil
}

// Play starts pulling audio from r and playing it on the device.
func (c *Context) Play(r io.Reader) korvet.CloserWaiter {
	p := c.ctx.NewPlayer(r)
	p.Play()
	return &playback{player: p}
}

// Close releases the context. oto v3 contexts cannot actually be closed, so
// this only exists to satisfy korvet.AudioContext; the device stays open
// until the process exits.
func (c *Context) Close() error {
	return nil
}

// Wait blocks until the player has drained its source. oto exposes no
// completion signal, so this polls.
func (p *playback) Wait() {
	for p.player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
}

// Close stops playback and releases the player. Idempotent.
func (p *playback) Close() error {
	p.once.Do(func() {
		if err := p.player.Close(); err != nil {
			p.err = fmt.Errorf("cannot close oto player: %w", err)
		}
	})
	return p.err
}
