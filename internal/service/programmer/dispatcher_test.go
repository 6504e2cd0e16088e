package programmer

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/roadrunner/internal/domain/chip"
	"github.com/oshokin/roadrunner/internal/metrics"
)

// newTestDispatcher returns a dispatcher over a fresh store.
func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	address, err := chip.ParseAddress("*:5556")
	require.NoError(t, err)

	return NewDispatcher(chip.NewStore(address), nil)
}

// TestDispatch_Protocol replays the client session of the chip programmer acceptance test.
func TestDispatch_Protocol(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(t)
	ctx := context.Background()

	steps := []struct {
		name    string
		request chip.Request
		success bool
		result  any
	}{
		{"seeded index", chip.Request{Command: chip.CommandGet, Payload: "keys"}, true, []any{"address", "keys"}},
		{"post", chip.Request{Command: chip.CommandPost, Payload: map[string]any{"value": 0.0}}, true, nil},
		{"get posted", chip.Request{Command: chip.CommandGet, Payload: "value"}, true, 0.0},
		{"index grows", chip.Request{Command: chip.CommandGet, Payload: "keys"}, true, []any{"address", "keys", "value"}},
		{"duplicate post", chip.Request{Command: chip.CommandPost, Payload: map[string]any{"value": 0.0}}, false, map[string]any{}},
		{"put", chip.Request{Command: chip.CommandPut, Payload: map[string]any{"value": 2.0}}, true, nil},
		{"get updated", chip.Request{Command: chip.CommandGet, Payload: "value"}, true, 2.0},
		{"put unknown", chip.Request{Command: chip.CommandPut, Payload: map[string]any{"param": 2.0}}, false, map[string]any{}},
		{"delete", chip.Request{Command: chip.CommandDelete, Payload: "value"}, true, nil},
		{"get deleted", chip.Request{Command: chip.CommandGet, Payload: "value"}, false, map[string]any{}},
		{"index shrinks", chip.Request{Command: chip.CommandGet, Payload: "keys"}, true, []any{"address", "keys"}},
		{"unknown command", chip.Request{Command: "COMMAND", Payload: "value"}, false, map[string]any{}},
	}

	for _, step := range steps {
		resp := d.Dispatch(ctx, step.request)

		require.Equal(t, step.success, resp.Success, step.name)

		if diff := cmp.Diff(step.result, resp.Result); diff != "" {
			t.Errorf("%s: result mismatch (-want +got):\n%s", step.name, diff)
		}

		if step.success {
			require.Equal(t, "Successfully executed : "+string(step.request.Command), resp.Message, step.name)
		} else {
			require.NotEmpty(t, resp.Message, step.name)
		}
	}
}

// TestDispatch_ErrorMessages verifies each failure names its cause.
func TestDispatch_ErrorMessages(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(t)
	ctx := context.Background()

	cases := []struct {
		request chip.Request
		want    error
	}{
		{chip.Request{Command: chip.CommandGet, Payload: "missing"}, chip.ErrKeyNotFound},
		{chip.Request{Command: chip.CommandDelete, Payload: "missing"}, chip.ErrKeyNotFound},
		{chip.Request{Command: chip.CommandPost, Payload: map[string]any{"address": 1.0}}, chip.ErrDuplicateKey},
		{chip.Request{Command: chip.CommandDelete, Payload: "address"}, chip.ErrReservedKey},
		{chip.Request{Command: chip.CommandGet, Payload: map[string]any{"value": 1.0}}, chip.ErrInvalidPayload},
		{chip.Request{Command: chip.CommandPut, Payload: "value"}, chip.ErrInvalidPayload},
		{chip.Request{Command: "get", Payload: "keys"}, chip.ErrUnrecognizedCommand},
	}

	for _, c := range cases {
		resp := d.Dispatch(ctx, c.request)
		require.False(t, resp.Success)
		require.Contains(t, resp.Message, c.want.Error())
	}
}

// TestDispatch_RecoversFromPanic ensures a broken store cannot crash the dispatcher.
func TestDispatch_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil, nil)

	resp := d.Dispatch(context.Background(), chip.Request{Command: chip.CommandGet, Payload: "value"})
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, "panicked")

	// The lock was released.
	resp = d.Dispatch(context.Background(), chip.Request{Command: chip.CommandDelete, Payload: "value"})
	require.False(t, resp.Success)
}

// TestDispatch_UnknownCommandsShareOneSeries verifies arbitrary command names
// are counted under a single label.
func TestDispatch_UnknownCommandsShareOneSeries(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	collector, err := metrics.NewPrometheusCollector(reg)
	require.NoError(t, err)

	address, err := chip.ParseAddress("*:5556")
	require.NoError(t, err)

	d := NewDispatcher(chip.NewStore(address), collector)
	ctx := context.Background()

	for i := range 100 {
		resp := d.Dispatch(ctx, chip.Request{Command: chip.Command(fmt.Sprintf("CMD%d", i)), Payload: "value"})
		require.False(t, resp.Success)
	}

	// Not valid UTF-8, so unusable as a label value.
	resp := d.Dispatch(ctx, chip.Request{Command: "\xff", Payload: "value"})
	require.False(t, resp.Success)

	resp = d.Dispatch(ctx, chip.Request{Command: chip.CommandGet, Payload: chip.KeyIndex})
	require.True(t, resp.Success)

	count, err := testutil.GatherAndCount(reg, "roadrunner_programmer_requests_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
