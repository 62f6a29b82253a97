package types

import "time"

// Height bounds in CSS pixels.
const (
	// PlaceholderHeight is displayed before any measurement commits.
	PlaceholderHeight float64 = 150
	// FallbackHeight is displayed when the measurement probe cannot be injected.
	FallbackHeight float64 = 600
	// MaxFrameHeight clamps runaway growth from buggy probes.
	MaxFrameHeight float64 = 8000
)

// SampleSource identifies where a height sample originated.
type SampleSource string

const (
	SourceProbe    SampleSource = "probe_message"
	SourceObserver SampleSource = "host_observer"
	SourcePeriodic SampleSource = "periodic_probe"
)

// HeightSample is a single height observation for a mounted instance.
type HeightSample struct {
	Source SampleSource `json:"source"`
	Value  float64      `json:"value"`
	At     time.Time    `json:"at"`
}
