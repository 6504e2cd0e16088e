//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/roadrunner/internal/api/grpc/programmer"
	"github.com/oshokin/roadrunner/internal/config"
	"github.com/oshokin/roadrunner/internal/domain/chip"
)

// Client wraps the chip programmer gRPC client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the chip programmer.
	conn *grpc.ClientConn
	// api sends raw dispatch calls.
	api dispatcher

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor tags every call, empty to send none.
	actor string
}

// dispatcher is the slice of the transport client used here.
type dispatcher interface {
	Dispatch(ctx context.Context, in *structpb.ListValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor tags calls with the given "user@host" actor.
func WithActor(actor string) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the chip programmer.
// A "*" host is dialled on the loopback interface.
// Note: this uses insecure transport credentials; deploy on a trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	target, err := DialTarget(address)
	if err != nil {
		return nil, err
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial chip programmer: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// DialTarget turns a bind address into an address a client can dial.
func DialTarget(address string) (string, error) {
	parsed, err := chip.ParseAddress(address)
	if err != nil {
		return "", err
	}

	if parsed.Host == "*" || parsed.Host == "" {
		parsed.Host = "127.0.0.1"
	}

	return parsed.String(), nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Do sends one request. Transport failures are returned as errors,
// rejected requests come back as a response with Success unset.
func (c *Client) Do(ctx context.Context, req chip.Request) (chip.Response, error) {
	in, err := api.EncodeRequest(req)
	if err != nil {
		return chip.Response{}, fmt.Errorf("encode %s request: %w", req.Command, err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if c.actor != "" {
		callCtx = metadata.AppendToOutgoingContext(callCtx, api.ActorMetadataKey, c.actor)
	}

	out, err := c.api.Dispatch(callCtx, in)
	if err != nil {
		return chip.Response{}, fmt.Errorf("dispatch %s: %w", req.Command, err)
	}

	resp, err := api.DecodeResponse(out)
	if err != nil {
		return chip.Response{}, fmt.Errorf("decode %s response: %w", req.Command, err)
	}

	return resp, nil
}

// Get reads the value stored under key.
func (c *Client) Get(ctx context.Context, key string) (chip.Response, error) {
	return c.Do(ctx, chip.Request{Command: chip.CommandGet, Payload: key})
}

// Put overwrites existing parameters.
func (c *Client) Put(ctx context.Context, info map[string]any) (chip.Response, error) {
	return c.Do(ctx, chip.Request{Command: chip.CommandPut, Payload: info})
}

// Post adds new parameters.
func (c *Client) Post(ctx context.Context, info map[string]any) (chip.Response, error) {
	return c.Do(ctx, chip.Request{Command: chip.CommandPost, Payload: info})
}

// Delete removes a parameter.
func (c *Client) Delete(ctx context.Context, key string) (chip.Response, error) {
	return c.Do(ctx, chip.Request{Command: chip.CommandDelete, Payload: key})
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
