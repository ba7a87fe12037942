// Package seq contains the look-ahead scheduler: the piece that turns the
// audio clock and a pattern into correctly-timed trigger dispatches. A coarse
// periodic tick asks which steps fall due inside a rolling look-ahead window
// and computes each trigger time from an accumulator rather than from the
// wall clock, which keeps timing jitter far below the tick interval.
package seq

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/korvet-audio/korvet"
)

const (
	// tickInterval is the cadence of the polling loop. It bounds scheduling
	// latency, not timing accuracy; trigger times come from the accumulator.
	tickInterval = 25 * time.Millisecond

	// lookAhead is the rolling window: any step due sooner than this gets
	// scheduled on the current pass.
	lookAhead = 0.1

	// visualLead is how far ahead of the audio trigger the step callback
	// fires, so visual and audio feedback are perceived together.
	visualLead = 0.010
)

type (
	// Clock is the shared audio clock, read-only from the scheduler's side.
	Clock interface {
		CurrentTime() float64
		IsInitialized() bool
	}

	// Dispatcher receives the trigger calls. synth.Rack is the real one;
	// tests use a recorder.
	Dispatcher interface {
		Trigger(kind korvet.SynthKind, when, velocity float64, params korvet.Params)
	}

	// Sweeper is implemented by dispatchers with voice registries to reclaim;
	// the scheduler sweeps once per pass so no separate cleanup timers exist
	// anywhere.
	Sweeper interface {
		Sweep(now float64)
	}
)

// Scheduler owns the transport. It never mutates the pattern it is given and
// it never blocks the audio clock: each pass computes, dispatches and
// returns. Stopped → Running on Start, Running → Stopped on Stop; there is
// no pause, stopping always resets the step cursor.
type Scheduler struct {
	clock      Clock
	dispatcher Dispatcher

	mu           sync.Mutex
	pattern      *korvet.Pattern
	onStep       func(step int)
	playing      bool
	currentStep  int
	nextStepTime float64
	stepsLeft    int64 // <0 means loop forever
	stopc        chan struct{}
	rng          *rand.Rand
}

// NewScheduler creates a stopped scheduler reading the given clock and
// dispatching to the given target.
func NewScheduler(clock Clock, dispatcher Dispatcher) *Scheduler {
	return &Scheduler{
		clock:      clock,
		dispatcher: dispatcher,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins playback of the pattern from step 0 at the current clock
// time, invoking onStep (may be nil) ahead of each step's audio. If the
// audio output is not initialized yet this logs and no-ops; initialization
// is the caller's precondition and is not retried here. Starting while
// already running restarts from step 0.
func (s *Scheduler) Start(pattern *korvet.Pattern, onStep func(step int)) {
	if s.clock == nil || !s.clock.IsInitialized() {
		log.Printf("scheduler: audio output not initialized, start skipped")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pattern = pattern
	s.onStep = onStep
	s.currentStep = 0
	s.nextStepTime = s.clock.CurrentTime()
	s.stepsLeft = -1
	if !s.playing {
		s.playing = true
		s.stopc = make(chan struct{})
		go s.loop(s.stopc)
	}
}

// Stop halts scheduling and resets the step cursor to 0. Triggers already
// dispatched for future clock times play out; stopping cancels the future,
// not the past. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return
	}
	s.playing = false
	close(s.stopc)
	s.stopc = nil
	s.currentStep = 0
}

// UpdatePattern publishes a new pattern. The swap is wholesale — the next
// pass reads the new reference, already-dispatched triggers are untouched.
// The scheduler holds at most one pattern reference at a time, so the
// control layer can edit its own copy freely.
func (s *Scheduler) UpdatePattern(pattern *korvet.Pattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pattern = pattern
}

// IsPlaying reports whether the transport is running.
func (s *Scheduler) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// CurrentStep returns the index of the next step to be scheduled.
func (s *Scheduler) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentStep
}

func (s *Scheduler) loop(stopc chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopc:
			return
		case <-ticker.C:
			s.Pass()
		}
	}
}

// Pass advances scheduling by one polling pass: it sweeps the dispatcher's
// voice registries, then schedules every step whose due time falls inside
// the look-ahead window. If ticks were starved the loop catches up by
// scheduling several steps in one pass without re-reading the clock per
// step, preserving tempo over instantaneous responsiveness. The realtime
// ticker calls this; the offline renderer interleaves it with rendering.
func (s *Scheduler) Pass() {
	if sw, ok := s.dispatcher.(Sweeper); ok {
		sw.Sweep(s.clock.CurrentTime())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing || s.pattern == nil {
		return
	}
	horizon := s.clock.CurrentTime() + lookAhead
	for s.nextStepTime < horizon {
		if s.stepsLeft == 0 {
			s.playing = false
			return
		}
		if s.stepsLeft > 0 {
			s.stepsLeft--
		}
		s.scheduleStep(s.currentStep, s.nextStepTime)
		s.nextStepTime += s.pattern.SecondsPerStep()
		s.currentStep = (s.currentStep + 1) % s.pattern.StepCount
	}
}

// scheduleStep dispatches every track of one due step. Tracks are processed
// in pattern order and solo/mute state is read once for the whole step, so
// same-time triggers are deterministically ordered. Called with s.mu held.
func (s *Scheduler) scheduleStep(index int, due float64) {
	p := s.pattern
	stepTime := due
	// swing shifts odd-indexed steps only: the classic shuffle
	if index%2 == 1 && p.Swing > 0 {
		stepTime += p.SecondsPerStep() * p.Swing * 0.5
	}
	s.notifyStep(index, stepTime)
	anySolo := false
	for i := range p.Tracks {
		if p.Tracks[i].Solo {
			anySolo = true
			break
		}
	}
	for i := range p.Tracks {
		track := &p.Tracks[i]
		step := track.Steps[index]
		if !step.Active || track.Mute || (anySolo && !track.Solo) {
			continue
		}
		if s.rng.Float64() >= step.Probability {
			continue
		}
		when := stepTime + clampMicro(step.MicroTiming)/1000
		velocity := float64(step.Velocity) / 127 * track.Volume
		s.dispatcher.Trigger(track.Kind, when, velocity, track.Params.Merged(step.Params))
	}
}

// notifyStep fires the UI callback slightly before the step's audio time.
// Best effort: it runs on its own timer goroutine, never delays scheduling,
// and a panicking callback is swallowed at this boundary.
func (s *Scheduler) notifyStep(index int, stepTime float64) {
	if s.onStep == nil {
		return
	}
	onStep := s.onStep
	lead := stepTime - s.clock.CurrentTime() - visualLead
	if lead < 0 {
		lead = 0
	}
	time.AfterFunc(time.Duration(lead*float64(time.Second)), func() {
		defer func() {
			if p := recover(); p != nil {
				log.Printf("scheduler: step callback panicked: %v", p)
			}
		}()
		onStep(index)
	})
}

func clampMicro(ms float64) float64 {
	if ms < -20 {
		return -20
	}
	if ms > 20 {
		return 20
	}
	return ms
}
