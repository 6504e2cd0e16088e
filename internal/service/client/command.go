package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oshokin/roadrunner/internal/config"
	"github.com/oshokin/roadrunner/internal/domain/chip"
	"github.com/oshokin/roadrunner/internal/logger"
	"github.com/oshokin/roadrunner/internal/service/common"
)

// ErrRejected is returned when the server answered with a failure response.
var ErrRejected = errors.New("request rejected")

// errAssignment is returned for an argument that is not key=value.
var errAssignment = errors.New("expected key=value")

// Options controls a single chip-client invocation.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Address overrides the configured chip programmer address.
	Address string
	// Request is the request to send.
	Request chip.Request
	// Output receives the reply, os.Stdout when nil.
	Output io.Writer
}

// Run sends opts.Request and prints the result as JSON.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "chip-client")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Configure(cfg.LogLevel); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	address := cfg.Programmer.Address
	if opts.Address != "" {
		address = opts.Address
	}

	clientOptions := []common.Option{common.WithCallTimeout(cfg.Timeout)}

	if actor, err := common.DetectActor(); err != nil {
		logger.WarnKV(ctx, "Failed to detect actor", "error", err)
	} else {
		clientOptions = append(clientOptions, common.WithActor(actor))
	}

	c, err := common.Dial(ctx, address, clientOptions...)
	if err != nil {
		return err
	}

	defer func() {
		_ = c.Close()
	}()

	logger.DebugKV(ctx, "Sending request", "address", address, "command", string(opts.Request.Command))

	resp, err := c.Do(ctx, opts.Request)
	if err != nil {
		return err
	}

	return Print(opts.Output, resp)
}

// Print writes the result of a successful response, or returns the failure message.
func Print(w io.Writer, resp chip.Response) error {
	if !resp.Success {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}

	if w == nil {
		w = os.Stdout
	}

	if resp.Result == nil {
		_, err := fmt.Fprintln(w, resp.Message)

		return err
	}

	encoded, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = fmt.Fprintln(w, string(encoded))

	return err
}

// ParseAssignments turns "key=value" arguments into a mapping.
// Values are parsed as JSON, falling back to a plain string.
func ParseAssignments(args []string) (map[string]any, error) {
	info := make(map[string]any, len(args))

	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", errAssignment, arg)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}

		info[key] = value
	}

	return info, nil
}
