package watch

import (
	"errors"
	"fmt"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning indicates another block watch process owns the filter.
var ErrAlreadyRunning = errors.New("block watch is already running")

// processLister returns the running processes, ps.Processes in production.
type processLister func() ([]ps.Process, error)

// ensureSingleInstance fails when a process other than pid runs the same executable.
// Two watches would fight over the same filter and trip PVs.
func ensureSingleInstance(list processLister, executable string, pid int) error {
	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == pid {
			continue
		}

		if process.Executable() != executable {
			continue
		}

		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, process.Pid())
	}

	return nil
}
