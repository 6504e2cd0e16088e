package programmer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/oshokin/roadrunner/internal/domain/chip"
	"github.com/oshokin/roadrunner/internal/logger"
	"github.com/oshokin/roadrunner/internal/metrics"
)

// handler executes one command against the store.
type handler func(ctx context.Context, store *chip.Store, payload any) (any, error)

// unknownCommandLabel is the metric label for commands outside the table.
const unknownCommandLabel = "unknown"

// handlers is the command table.
//
//nolint:gochecknoglobals // Read-only dispatch table.
var handlers = map[chip.Command]handler{
	chip.CommandGet:    get,
	chip.CommandPut:    put,
	chip.CommandPost:   post,
	chip.CommandDelete: del,
}

// Dispatcher serializes requests against a single store.
type Dispatcher struct {
	// store holds the chip parameters.
	store *chip.Store
	// metrics records request outcomes.
	metrics metrics.Collector
	// mu guarantees one request at a time touches the store.
	mu sync.Mutex
}

// NewDispatcher wraps store. A nil collector disables metrics.
func NewDispatcher(store *chip.Store, collector metrics.Collector) *Dispatcher {
	if collector == nil {
		collector = metrics.Noop()
	}

	return &Dispatcher{
		store:   store,
		metrics: collector,
	}
}

// Dispatch executes req and always returns a response.
// Failures, including panics in a handler, become failure responses.
func (d *Dispatcher) Dispatch(ctx context.Context, req chip.Request) (resp chip.Response) {
	ctx = logger.WithFields(ctx, "request_id", uuid.NewString(), "command", string(req.Command))

	logger.DebugKV(ctx, "Received request", "payload", req.Payload)

	h, ok := handlers[req.Command]

	// Label values stay within the command table.
	label := unknownCommandLabel
	if ok {
		label = string(req.Command)
	}

	defer func() {
		if r := recover(); r != nil {
			resp = chip.Failed(fmt.Errorf("request %s panicked: %v", req.Command, r))
		}

		if !resp.Success {
			logger.ErrorKV(ctx, "Request failed", "error", resp.Message)
		}

		d.metrics.IncRequest(label, resp.Success)

		logger.DebugKV(ctx, "Sending response", "success", resp.Success, "result", resp.Result)
	}()

	if !ok {
		return chip.Failed(fmt.Errorf("%w: %q", chip.ErrUnrecognizedCommand, req.Command))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	result, err := h(ctx, d.store, req.Payload)
	if err != nil {
		return chip.Failed(err)
	}

	return chip.Succeeded(req.Command, result)
}

// get returns the value stored under a key.
func get(ctx context.Context, store *chip.Store, payload any) (any, error) {
	key, err := keyPayload(payload)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Retrieving parameter", "key", key)

	return store.Get(key)
}

// put overwrites existing parameters.
func put(ctx context.Context, store *chip.Store, payload any) (any, error) {
	info, err := mappingPayload(payload)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Updating stored values", "count", len(info))

	return nil, store.Put(info)
}

// post adds new parameters.
func post(ctx context.Context, store *chip.Store, payload any) (any, error) {
	info, err := mappingPayload(payload)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Adding parameters", "count", len(info))

	return nil, store.Post(info)
}

// del removes a parameter.
func del(ctx context.Context, store *chip.Store, payload any) (any, error) {
	key, err := keyPayload(payload)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Destroying stored parameter", "key", key)

	return nil, store.Delete(key)
}

func keyPayload(payload any) (string, error) {
	key, ok := payload.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected a key, got %T", chip.ErrInvalidPayload, payload)
	}

	return key, nil
}

func mappingPayload(payload any) (map[string]any, error) {
	info, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a mapping, got %T", chip.ErrInvalidPayload, payload)
	}

	return info, nil
}

// Keys returns the store index.
func (d *Dispatcher) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.store.Keys()
}
