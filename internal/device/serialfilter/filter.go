// Package serialfilter drives an attenuator filter controller over a serial line.
//
// The controller accepts the ASCII commands "IN" and "OUT" terminated by CRLF.
package serialfilter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// Controller commands.
const (
	commandIn  = "IN\r\n"
	commandOut = "OUT\r\n"
)

// errClosed is returned after Close.
var errClosed = errors.New("serial filter is closed")

// Filter sends insert and retract commands to the controller.
type Filter struct {
	// port is the open serial line.
	port io.WriteCloser
	// mu serializes writes and Close.
	mu sync.Mutex
	// closed is set by Close.
	closed bool
}

// Open opens the serial device at name with 8N1 framing.
func Open(name string, baud int) (*Filter, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}

	return New(port), nil
}

// New wraps an already open port.
func New(port io.WriteCloser) *Filter {
	return &Filter{port: port}
}

// Block inserts the filter.
func (f *Filter) Block(ctx context.Context) error {
	return f.send(ctx, commandIn)
}

// Remove retracts the filter.
func (f *Filter) Remove(ctx context.Context) error {
	return f.send(ctx, commandOut)
}

// Close closes the serial line.
func (f *Filter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true

	return f.port.Close()
}

func (f *Filter) send(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return errClosed
	}

	if _, err := io.WriteString(f.port, command); err != nil {
		return fmt.Errorf("write %q: %w", command, err)
	}

	return nil
}
