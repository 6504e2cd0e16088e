package interlock

// State holds the two trip flags published by the watch.
type State struct {
	// SoftTrip is the advisory alarm: no signal, sequencer idle.
	SoftTrip bool `json:"soft_trip"`
	// HardTrip is the protective alarm: no signal while the sequencer runs.
	HardTrip bool `json:"hard_trip"`
}

// Phase is the coarse state of the watch derived from the trip flags.
type Phase int

// Phases of the watch. A set hard trip takes precedence over the soft trip.
const (
	PhaseClear Phase = iota
	PhaseSoftTripped
	PhaseHardTripped
)

// String returns the phase name used in logs and on the status endpoint.
func (p Phase) String() string {
	switch p {
	case PhaseClear:
		return "clear"
	case PhaseSoftTripped:
		return "soft_tripped"
	case PhaseHardTripped:
		return "hard_tripped"
	default:
		return "unknown"
	}
}

// Phase derives the coarse phase from the flags.
func (s State) Phase() Phase {
	switch {
	case s.HardTrip:
		return PhaseHardTripped
	case s.SoftTrip:
		return PhaseSoftTripped
	default:
		return PhaseClear
	}
}

// Flags returns the trip flags as the 0/1 values written to the status PVs.
func (s State) Flags() (soft, hard int) {
	return boolToFlag(s.SoftTrip), boolToFlag(s.HardTrip)
}

func boolToFlag(b bool) int {
	if b {
		return 1
	}

	return 0
}

// Action is the command the watch issues to the filter after an evaluation.
type Action int

// Filter actions.
const (
	// ActionNone leaves the filter where it is.
	ActionNone Action = iota
	// ActionRemove retracts the filter from the beam.
	ActionRemove
	// ActionBlock inserts the filter into the beam.
	ActionBlock
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionRemove:
		return "remove"
	case ActionBlock:
		return "block"
	default:
		return "unknown"
	}
}
