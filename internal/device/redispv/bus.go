package redispv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	backend "github.com/redis/go-redis/v9"

	"github.com/oshokin/roadrunner/internal/logger"
)

// ErrNoValue is returned when a PV has never been written.
var ErrNoValue = errors.New("process variable has no value")

// Bus reads, writes and watches process variables stored in Redis.
type Bus struct {
	// client is the Redis connection shared by every PV.
	client *backend.Client
	// mu protects handlers.
	mu sync.RWMutex
	// handlers maps PV names to their change handlers.
	handlers map[string][]func()
}

// New connects a bus to the Redis server at address.
func New(address string) *Bus {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr: address,
	}))
}

// NewFromClient creates a bus on top of an existing client.
func NewFromClient(client *backend.Client) *Bus {
	return &Bus{
		client:   client,
		handlers: make(map[string][]func()),
	}
}

// Ping checks the connection to Redis.
func (b *Bus) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	return nil
}

// Close releases the Redis connection.
func (b *Bus) Close() error {
	return b.client.Close()
}

// Get reads the raw value of the PV.
func (b *Bus) Get(ctx context.Context, name string) (string, error) {
	value, err := b.client.Get(ctx, name).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", fmt.Errorf("%w: %s", ErrNoValue, name)
		}

		return "", fmt.Errorf("get %s: %w", name, err)
	}

	return value, nil
}

// GetFloat reads the PV as a number.
func (b *Bus) GetFloat(ctx context.Context, name string) (float64, error) {
	raw, err := b.Get(ctx, name)
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}

	return value, nil
}

// Put writes the PV and announces the change to subscribers.
func (b *Bus) Put(ctx context.Context, name string, value any) error {
	payload := fmt.Sprint(value)

	pipe := b.client.TxPipeline()
	pipe.Set(ctx, name, payload, 0)
	pipe.Publish(ctx, name, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}

	return nil
}

// OnChange registers handler for changes of the PV.
// Handlers registered after Watch started take effect on the next Watch.
func (b *Bus) OnChange(name string, handler func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], handler)
}

// Watch subscribes to every PV with a handler and dispatches change
// notifications until ctx is cancelled.
func (b *Bus) Watch(ctx context.Context) error {
	b.mu.RLock()

	channels := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		channels = append(channels, name)
	}

	b.mu.RUnlock()

	if len(channels) == 0 {
		<-ctx.Done()
		return nil
	}

	pubsub := b.client.Subscribe(ctx, channels...)

	defer func() {
		_ = pubsub.Close()
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("subscribe: %w", err)
	}

	logger.DebugKV(ctx, "Watching process variables", "channels", channels)

	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			b.notify(msg.Channel)
		}
	}
}

// notify runs the handlers registered for name.
func (b *Bus) notify(name string) {
	b.mu.RLock()
	handlers := b.handlers[name]
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler()
	}
}
