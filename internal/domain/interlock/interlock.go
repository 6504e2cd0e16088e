package interlock

const (
	// DefaultThreshold is the minimum RoadRunner signal accepted as "in motion".
	DefaultThreshold = 1.0
	// SequencerRunningCode is the sequencer play status reported while playing.
	SequencerRunningCode = 2
	// MinStepCount is the sequencer step the scan must pass before the
	// sequencer counts as running. It covers the gap between the sequencer
	// starting and the RoadRunner scan beginning.
	MinStepCount = 25
)

// Config holds the immutable parameters of the decision.
type Config struct {
	// Threshold is the minimum acceptable intensity; values at or below it trip.
	Threshold float64
	// RunningCode is the sequencer status code meaning "playing".
	RunningCode int
	// MinStepCount is the step count the sequencer must exceed.
	MinStepCount int
}

// DefaultConfig returns the configuration observed at the hutch with the given threshold.
func DefaultConfig(threshold float64) Config {
	return Config{
		Threshold:    threshold,
		RunningCode:  SequencerRunningCode,
		MinStepCount: MinStepCount,
	}
}

// Readings is the snapshot of inputs sampled for one evaluation.
type Readings struct {
	// SignalValue is the RoadRunner analog input.
	SignalValue float64 `json:"signal_value"`
	// SequencerStatus is the sequencer play status code.
	SequencerStatus int `json:"sequencer_status"`
	// SequencerStep is the current sequencer step.
	SequencerStep int `json:"sequencer_step"`
	// Enabled allows the filter to move when true.
	Enabled bool `json:"enabled"`
}

// SequencerRunning reports whether the sequencer is playing past its startup steps.
func (c Config) SequencerRunning(r Readings) bool {
	return r.SequencerStatus == c.RunningCode && r.SequencerStep > c.MinStepCount
}

// SignalPresent reports whether the RoadRunner signal is above the threshold.
func (c Config) SignalPresent(r Readings) bool {
	return r.SignalValue > c.Threshold
}

// Evaluate returns the next trip state and the filter action for the readings.
//
// A present signal clears both trips and retracts the filter. A missing
// signal while the sequencer runs is a hard trip and inserts the filter.
// A missing signal with the sequencer idle only raises the soft trip and
// leaves the hard trip as it was.
func (c Config) Evaluate(prev State, r Readings) (State, Action) {
	switch {
	case c.SignalPresent(r):
		return State{}, ActionRemove
	case c.SequencerRunning(r):
		return State{HardTrip: true}, ActionBlock
	default:
		return State{SoftTrip: true, HardTrip: prev.HardTrip}, ActionNone
	}
}
