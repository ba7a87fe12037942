package korvet

import (
	"fmt"
)

type (
	// Pattern is one full drum pattern: exactly NumTracks tracks, each with
	// StepCount steps. Patterns are owned and mutated by the control layer
	// only; the scheduler consumes a published Pattern strictly read-only, so
	// hand it a Copy if you intend to keep editing.
	Pattern struct {
		BPM       int     `json:"bpm" yaml:"bpm"`
		Swing     float64 `json:"swing" yaml:"swing"`
		StepCount int     `json:"stepCount" yaml:"stepCount"`
		Tracks    []Track `json:"tracks" yaml:"tracks"`
	}

	// Track is one row of the pattern, bound to a single synth kind for its
	// whole lifetime. Params holds the track-level default synthesis
	// parameters, merged under any per-step overrides at trigger time.
	Track struct {
		Kind   SynthKind `json:"synthType" yaml:"synthType"`
		Volume float64   `json:"volume" yaml:"volume"`
		Mute   bool      `json:"mute" yaml:"mute"`
		Solo   bool      `json:"solo" yaml:"solo"`
		Params Params    `json:"synthParams" yaml:"synthParams,flow"`
		Steps  []Step    `json:"steps" yaml:"steps"`
	}

	// Step is one slot in a track's sequence. Velocity is MIDI-style 0..127.
	// Probability is the chance [0,1] that an active step fires when due.
	// MicroTiming shifts the trigger by the given milliseconds, -20..+20.
	// Params, when non-nil, overrides the track parameters key by key for
	// this step's trigger only.
	Step struct {
		Active      bool    `json:"active" yaml:"active"`
		Velocity    int     `json:"velocity" yaml:"velocity"`
		Probability float64 `json:"probability" yaml:"probability"`
		MicroTiming float64 `json:"microTiming" yaml:"microTiming"`
		Params      Params  `json:"parameters,omitempty" yaml:"parameters,omitempty,flow"`
	}

	// Params maps synthesis parameter names to values. Values are plain
	// numbers; each synth kind documents its own keys in Defaults.
	Params map[string]float64

	// SynthKind identifies one of the eight drum synthesis engines. The set
	// is closed: every kind carries its own parameter schema in the defaults
	// table and a voice builder in the synth package, dispatched through the
	// one Trigger capability.
	SynthKind string
)

const (
	Kick  SynthKind = "kick"
	Snare SynthKind = "snare"
	HiHat SynthKind = "hihat"
	Clap  SynthKind = "clap"
	Rim   SynthKind = "rim"
	Tom   SynthKind = "tom"
	Perc1 SynthKind = "perc1"
	Perc2 SynthKind = "perc2"
)

// NumTracks is the fixed number of tracks in a pattern, one per synth kind.
const NumTracks = 8

const (
	MinBPM = 60
	MaxBPM = 300
)

// SynthKinds lists every valid kind, in pattern track order.
var SynthKinds = [NumTracks]SynthKind{Kick, Snare, HiHat, Clap, Rim, Tom, Perc1, Perc2}

// Valid reports whether k is one of the eight known kinds.
func (k SynthKind) Valid() bool {
	_, ok := synthDefaults[k]
	return ok
}

// Defaults returns a copy of the kind's default parameter map. Unknown kinds
// give an empty map.
func (k SynthKind) Defaults() Params {
	return synthDefaults[k].Copy()
}

// synthDefaults is the parameter schema of each kind. All times are seconds,
// frequencies Hz, everything else a unitless 0..1 amount unless noted.
var synthDefaults = map[SynthKind]Params{
	Kick:  {"pitch": 50, "decay": 0.4, "click": 0.6, "drive": 0.3},
	Snare: {"tone": 180, "decay": 0.2, "snappy": 0.7},
	HiHat: {"tone": 8000, "decay": 0.08, "chokeGroup": 0},
	Clap:  {"tone": 1100, "decay": 0.14, "layers": 4, "spread": 0.011},
	Rim:   {"tone": 1700, "decay": 0.06},
	Tom:   {"pitch": 130, "decay": 0.35, "sweep": 0.5},
	Perc1: {"pitch": 500, "ratio": 1.5, "tone": 0.5, "resonance": 6, "decay": 0.15},
	Perc2: {"pitch": 250, "ratio": 2.7, "tone": 0.4, "resonance": 8, "decay": 0.25},
}

// Copy returns a copy of the parameter map; nil stays nil.
func (p Params) Copy() Params {
	if p == nil {
		return nil
	}
	ret := make(Params, len(p))
	for k, v := range p {
		ret[k] = v
	}
	return ret
}

// Get returns the value of name, or def when the map has no such key (or is
// nil).
func (p Params) Get(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Merged returns a new map with over's entries written over p's, key by key.
// Neither input is mutated.
func (p Params) Merged(over Params) Params {
	ret := make(Params, len(p)+len(over))
	for k, v := range p {
		ret[k] = v
	}
	for k, v := range over {
		ret[k] = v
	}
	return ret
}

// NewPattern returns a pattern with the default track per kind and all steps
// inactive, at the given step count (16 or 32).
func NewPattern(bpm, stepCount int) *Pattern {
	p := &Pattern{BPM: bpm, StepCount: stepCount}
	for _, kind := range SynthKinds {
		steps := make([]Step, stepCount)
		for i := range steps {
			steps[i] = Step{Velocity: 100, Probability: 1}
		}
		p.Tracks = append(p.Tracks, Track{
			Kind:   kind,
			Volume: 0.8,
			Params: Params{},
			Steps:  steps,
		})
	}
	return p
}

// Copy makes a deep copy of the pattern.
func (p *Pattern) Copy() *Pattern {
	tracks := make([]Track, len(p.Tracks))
	for i, t := range p.Tracks {
		tracks[i] = t.Copy()
	}
	return &Pattern{BPM: p.BPM, Swing: p.Swing, StepCount: p.StepCount, Tracks: tracks}
}

// Copy makes a deep copy of the track.
func (t *Track) Copy() Track {
	steps := make([]Step, len(t.Steps))
	for i, s := range t.Steps {
		steps[i] = s
		steps[i].Params = s.Params.Copy()
	}
	return Track{
		Kind:   t.Kind,
		Volume: t.Volume,
		Mute:   t.Mute,
		Solo:   t.Solo,
		Params: t.Params.Copy(),
		Steps:  steps,
	}
}

// SecondsPerStep is the unswung duration of one step at the pattern's tempo,
// at 16th note resolution.
func (p *Pattern) SecondsPerStep() float64 {
	return 60.0 / float64(p.BPM) / 4
}

// Validate checks the invariants the scheduler and engines assume: exactly
// NumTracks tracks, a step count of 16 or 32 matched by every track, a BPM
// within bounds, swing within [0,1] and only known synth kinds. Whatever
// constructs or deserializes a pattern must call this before publishing it;
// the scheduler itself never re-validates.
func (p *Pattern) Validate() error {
	if p.BPM < MinBPM || p.BPM > MaxBPM {
		return fmt.Errorf("bpm %d out of range [%d, %d]", p.BPM, MinBPM, MaxBPM)
	}
	if p.Swing < 0 || p.Swing > 1 {
		return fmt.Errorf("swing %v out of range [0, 1]", p.Swing)
	}
	if p.StepCount != 16 && p.StepCount != 32 {
		return fmt.Errorf("step count %d, expected 16 or 32", p.StepCount)
	}
	if len(p.Tracks) != NumTracks {
		return fmt.Errorf("pattern has %d tracks, expected %d", len(p.Tracks), NumTracks)
	}
	for i, t := range p.Tracks {
		if !t.Kind.Valid() {
			return fmt.Errorf("track %d: unknown synth type %q", i, t.Kind)
		}
		if t.Volume < 0 || t.Volume > 1 {
			return fmt.Errorf("track %d: volume %v out of range [0, 1]", i, t.Volume)
		}
		if len(t.Steps) != p.StepCount {
			return fmt.Errorf("track %d: %d steps, expected %d", i, len(t.Steps), p.StepCount)
		}
		for j, s := range t.Steps {
			if s.Velocity < 0 || s.Velocity > 127 {
				return fmt.Errorf("track %d step %d: velocity %d out of range [0, 127]", i, j, s.Velocity)
			}
			if s.Probability < 0 || s.Probability > 1 {
				return fmt.Errorf("track %d step %d: probability %v out of range [0, 1]", i, j, s.Probability)
			}
			if s.MicroTiming < -20 || s.MicroTiming > 20 {
				return fmt.Errorf("track %d step %d: microTiming %v out of range [-20, 20] ms", i, j, s.MicroTiming)
			}
		}
	}
	return nil
}
