package watch

import (
	"context"
	"errors"
	"sync"

	"github.com/oshokin/roadrunner/internal/domain/interlock"
)

var (
	errTestRead    = errors.New("test read error")
	errTestMove    = errors.New("test move error")
	errTestPublish = errors.New("test publish error")
)

// fakeSignal is an in-memory Signal whose Set fires the change handlers.
type fakeSignal struct {
	mu sync.Mutex
	// value is returned by Value.
	value float64
	// err is returned by Value when set.
	err error
	// handlers are the registered change handlers.
	handlers []func()
}

func (s *fakeSignal) Value(context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value, s.err
}

func (s *fakeSignal) OnChange(handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers = append(s.handlers, handler)
}

// Set stores the value and notifies the handlers.
func (s *fakeSignal) Set(value float64) {
	s.mu.Lock()
	s.value = value
	handlers := append([]func(){}, s.handlers...)
	s.mu.Unlock()

	for _, handler := range handlers {
		handler()
	}
}

// fakeActuator records filter commands.
type fakeActuator struct {
	mu sync.Mutex
	// calls lists "block" and "remove" in call order.
	calls []string
	// err is returned by every command when set.
	err error
}

func (a *fakeActuator) Block(context.Context) error {
	return a.record("block")
}

func (a *fakeActuator) Remove(context.Context) error {
	return a.record("remove")
}

func (a *fakeActuator) record(call string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls = append(a.calls, call)

	return a.err
}

// Calls returns a copy of the recorded commands.
func (a *fakeActuator) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.calls...)
}

// fakeStatus records published trip states.
type fakeStatus struct {
	mu sync.Mutex
	// published lists every published state.
	published []interlock.State
	// err is returned by Publish when set.
	err error
}

func (s *fakeStatus) Publish(_ context.Context, state interlock.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.published = append(s.published, state)

	return s.err
}

// Count returns the number of publishes.
func (s *fakeStatus) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.published)
}

// Last returns the most recent published state.
func (s *fakeStatus) Last() interlock.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.published) == 0 {
		return interlock.State{}
	}

	return s.published[len(s.published)-1]
}

// rig bundles a monitor with its fakes.
type rig struct {
	monitor   *Monitor
	ai        *fakeSignal
	seqStatus *fakeSignal
	seqStep   *fakeSignal
	enable    *fakeSignal
	actuator  *fakeActuator
	status    *fakeStatus
}

// newRig builds a monitor with threshold 2.5 and the signal at 5, like the hutch fixture.
func newRig(opts ...Option) (*rig, error) {
	r := &rig{
		ai:        &fakeSignal{value: 5},
		seqStatus: new(fakeSignal),
		seqStep:   new(fakeSignal),
		enable:    new(fakeSignal),
		actuator:  new(fakeActuator),
		status:    new(fakeStatus),
	}

	signals := Signals{
		Intensity:       r.ai,
		SequencerStatus: r.seqStatus,
		SequencerStep:   r.seqStep,
		Enable:          r.enable,
	}

	m, err := NewMonitor(interlock.DefaultConfig(2.5), signals, r.actuator, r.status, opts...)
	if err != nil {
		return nil, err
	}

	r.monitor = m

	return r, nil
}
