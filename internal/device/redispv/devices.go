package redispv

import (
	"context"
	"fmt"

	"github.com/oshokin/roadrunner/internal/domain/interlock"
)

// PV name suffixes used by the block watch.
const (
	SuffixSoftTrip  = ":SOFT_TRIP"
	SuffixHardTrip  = ":HARD_TRIP"
	SuffixEnable    = ":ENABLE"
	SuffixPlayState = ":PLSTAT"
	SuffixCurStep   = ":CURSTP"
	SuffixFilterGo  = ":GO"
)

// Filter positions written to the filter command PV.
const (
	FilterIn  = "IN"
	FilterOut = "OUT"
)

// Signal is a single numeric process variable.
type Signal struct {
	bus  *Bus
	name string
}

// Signal returns the PV called name.
func (b *Bus) Signal(name string) *Signal {
	return &Signal{bus: b, name: name}
}

// Name returns the PV name.
func (s *Signal) Name() string {
	return s.name
}

// Value reads the current value.
func (s *Signal) Value(ctx context.Context) (float64, error) {
	return s.bus.GetFloat(ctx, s.name)
}

// OnChange registers handler for value changes.
func (s *Signal) OnChange(handler func()) {
	s.bus.OnChange(s.name, handler)
}

// Status writes the trip flags to the notepad PVs under prefix.
type Status struct {
	bus    *Bus
	prefix string
}

// NewStatus returns the trip flag writer for prefix.
func NewStatus(bus *Bus, prefix string) *Status {
	return &Status{bus: bus, prefix: prefix}
}

// Publish writes both trip flags as 0 or 1.
func (s *Status) Publish(ctx context.Context, state interlock.State) error {
	soft, hard := state.Flags()

	if err := s.bus.Put(ctx, s.prefix+SuffixSoftTrip, soft); err != nil {
		return fmt.Errorf("publish soft trip: %w", err)
	}

	if err := s.bus.Put(ctx, s.prefix+SuffixHardTrip, hard); err != nil {
		return fmt.Errorf("publish hard trip: %w", err)
	}

	return nil
}

// Filter moves an attenuator blade by writing its command PV.
type Filter struct {
	bus  *Bus
	name string
}

// NewFilter returns the actuator for the filter with base name.
func NewFilter(bus *Bus, name string) *Filter {
	return &Filter{bus: bus, name: name}
}

// Block inserts the filter.
func (f *Filter) Block(ctx context.Context) error {
	return f.bus.Put(ctx, f.name+SuffixFilterGo, FilterIn)
}

// Remove retracts the filter.
func (f *Filter) Remove(ctx context.Context) error {
	return f.bus.Put(ctx, f.name+SuffixFilterGo, FilterOut)
}
