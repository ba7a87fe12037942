package seq

import (
	"fmt"

	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/graph"
	"github.com/korvet-audio/korvet/synth"
)

const (
	renderSampleRate  = 44100
	renderMasterLevel = 0.9

	// renderTail is rendered after the last step so the final voices decay
	// instead of clicking off at the buffer edge.
	renderTail = 1.0
)

// Render renders the pattern offline for the given number of full cycles and
// returns the audio. The same scheduler drives offline rendering as live
// playback; instead of a ticker, a scheduling pass runs between render
// blocks, so the clock the scheduler reads is the render position itself.
func Render(pattern *korvet.Pattern, cycles int) (korvet.AudioBuffer, error) {
	if err := pattern.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if cycles < 1 {
		cycles = 1
	}
	ctx := graph.NewContext(renderSampleRate, renderMasterLevel)
	defer ctx.Close()
	rack := synth.NewRack(ctx)
	defer rack.Dispose()

	s := NewScheduler(ctx, rack)
	s.pattern = pattern
	s.playing = true
	s.stepsLeft = int64(cycles) * int64(pattern.StepCount)

	seconds := float64(s.stepsLeft)*pattern.SecondsPerStep() + renderTail
	buffer := make(korvet.AudioBuffer, int(seconds*renderSampleRate))
	for pos := 0; pos < len(buffer); {
		s.Pass()
		n := graph.MaxBlock
		if rest := len(buffer) - pos; rest < n {
			n = rest
		}
		if err := ctx.Render(buffer[pos : pos+n]); err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		pos += n
	}
	return buffer, nil
}
