package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/roadrunner/internal/config"
	"github.com/oshokin/roadrunner/internal/device/redispv"
	"github.com/oshokin/roadrunner/internal/service/watch"
)

// pvs writes inputs to the bus the way the IOCs would.
type pvs struct {
	t   *testing.T
	bus *redispv.Bus
}

// put writes one PV.
func (p pvs) put(name string, value any) {
	p.t.Helper()

	require.NoError(p.t, p.bus.Put(context.Background(), name, value))
}

// TestWatch_TripsAndRecovers runs the block watch against an in-memory Redis bus.
//
//nolint:funlen // End-to-end scenario with several phases.
func TestWatch_TripsAndRecovers(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	statusAddr := reservePort(t)

	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(cfgPath, &config.Config{
		Watch: config.Watch{
			RedisAddress:  mr.Addr(),
			PollInterval:  20 * time.Millisecond,
			StatusAddress: statusAddr,
		},
	}))

	bus := redispv.New(mr.Addr())

	t.Cleanup(func() {
		_ = bus.Close()
	})

	inputs := pvs{t: t, bus: bus}
	inputs.put(config.DefaultAnalogInput, 5)
	inputs.put(config.DefaultSequencer+redispv.SuffixPlayState, 0)
	inputs.put(config.DefaultSequencer+redispv.SuffixCurStep, 0)
	inputs.put(config.DefaultPrefix+redispv.SuffixEnable, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- watch.Run(ctx, &watch.Options{ConfigPath: cfgPath, AllowMultiple: true})
	}()

	filterPV := config.DefaultFilter + redispv.SuffixFilterGo
	softPV := config.DefaultPrefix + redispv.SuffixSoftTrip
	hardPV := config.DefaultPrefix + redispv.SuffixHardTrip

	expect := func(filter, soft, hard string) {
		t.Helper()

		require.Eventually(t, func() bool {
			f, _ := mr.Get(filterPV)
			s, _ := mr.Get(softPV)
			h, _ := mr.Get(hardPV)

			return f == filter && s == soft && h == hard
		}, 5*time.Second, 10*time.Millisecond)
	}

	// Signal present: filter removed, no trips.
	expect(redispv.FilterOut, "0", "0")

	// Signal lost while the sequencer runs: hard trip and filter inserted.
	inputs.put(config.DefaultSequencer+redispv.SuffixPlayState, 2)
	inputs.put(config.DefaultSequencer+redispv.SuffixCurStep, 30)
	inputs.put(config.DefaultAnalogInput, 0)
	expect(redispv.FilterIn, "0", "1")

	// The status surface agrees.
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + statusAddr + "/status") //nolint:noctx // Test request.
		if err != nil {
			return false
		}

		defer func() {
			_ = resp.Body.Close()
		}()

		var snapshot watch.Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			return false
		}

		return snapshot.Phase == "hard_tripped" && snapshot.Readings.Enabled
	}, 5*time.Second, 20*time.Millisecond)

	// Signal back: filter removed, trips cleared.
	inputs.put(config.DefaultAnalogInput, 5)
	expect(redispv.FilterOut, "0", "0")

	// Disabled: the flags still follow, the filter stays where it is.
	inputs.put(config.DefaultPrefix+redispv.SuffixEnable, 0)
	inputs.put(config.DefaultSequencer+redispv.SuffixPlayState, 0)
	inputs.put(config.DefaultAnalogInput, 0)
	expect(redispv.FilterOut, "1", "0")

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("block watch did not stop")
	}
}

// TestWatch_RejectsUnreachableBus verifies startup fails when Redis is down.
func TestWatch_RejectsUnreachableBus(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(cfgPath, &config.Config{
		Timeout: time.Second,
		Watch: config.Watch{
			RedisAddress: reservePort(t),
		},
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := watch.Run(ctx, &watch.Options{ConfigPath: cfgPath, AllowMultiple: true})
	require.ErrorIs(t, err, watch.ErrInvalidConfig)
}
