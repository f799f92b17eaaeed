// File: junction/junction_fake_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dispatch state machine against a scripted poller: arming decisions,
// forced dispatch, termination notices and registry lifecycle.

package junction_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
	"github.com/momentics/hioload-io/fake"
	"github.com/momentics/hioload-io/junction"
)

func fakeJunction(t *testing.T) (*junction.Junction, *fake.Poller) {
	t.Helper()
	f := fake.NewPoller()
	j, err := junction.New(junction.WithPoller(f))
	require.NoError(t, err)
	t.Cleanup(j.Void)
	return j, f
}

func TestArmsOnlyPendingDirections(t *testing.T) {
	j, f := fakeJunction(t)
	in, out, err := j.SpawnUnidirectional()
	require.NoError(t, err)

	require.NoError(t, out.Acquire([]byte("abcd")))
	require.NoError(t, j.Do(func([]junction.Channel) {}))

	_, wr, known := f.Armed(out.Port().FD)
	require.True(t, known)
	require.True(t, wr)

	_, _, known = f.Armed(in.Port().FD)
	require.False(t, known, "idle input must not be armed")
}

func TestDispatchOnReadiness(t *testing.T) {
	j, f := fakeJunction(t)
	_, out, err := j.SpawnUnidirectional()
	require.NoError(t, err)

	require.NoError(t, out.Acquire([]byte("abcd")))
	require.NoError(t, j.Do(func([]junction.Channel) {}))

	f.Push(junction.Event{FD: out.Port().FD, Write: true})
	var moved []junction.Channel
	require.NoError(t, j.Do(func(w []junction.Channel) {
		moved = append([]junction.Channel(nil), w...)
	}))

	require.Len(t, moved, 1)
	require.Same(t, out, moved[0])
	require.True(t, out.Exhausted())
	require.Equal(t, 4, out.Transferred())

	// Exhausted direction is disarmed on the following cycle.
	require.NoError(t, j.Do(func([]junction.Channel) {}))
	_, _, known := f.Armed(out.Port().FD)
	require.False(t, known)
}

func TestForcedDispatchWithoutReadiness(t *testing.T) {
	j, f := fakeJunction(t)
	in, _, err := j.SpawnUnidirectional()
	require.NoError(t, err)

	in.Force()
	require.Greater(t, f.Woken(), 0)

	var moved []junction.Channel
	require.NoError(t, j.Do(func(w []junction.Channel) {
		moved = append([]junction.Channel(nil), w...)
	}))
	require.Len(t, moved, 1)
	require.Same(t, in, moved[0])
	require.False(t, in.Terminated())
	require.Empty(t, in.Window())
}

func TestTerminationNoticeDelivered(t *testing.T) {
	j, _ := fakeJunction(t)
	in, out, err := j.SpawnUnidirectional()
	require.NoError(t, err)
	require.Equal(t, 2, j.Registered())

	out.Terminate()
	require.True(t, out.Terminated())

	var moved []junction.Channel
	require.NoError(t, j.Do(func(w []junction.Channel) {
		moved = append([]junction.Channel(nil), w...)
	}))
	require.Len(t, moved, 1)
	require.Same(t, out, moved[0])
	require.True(t, moved[0].Terminated())
	require.Equal(t, 1, j.Registered())
	require.False(t, in.Terminated())

	// The notice is delivered exactly once.
	require.NoError(t, j.Do(func(w []junction.Channel) {
		require.Empty(t, w)
	}))
}

func TestAcquireGuards(t *testing.T) {
	j, _ := fakeJunction(t)
	_, out, err := j.SpawnUnidirectional()
	require.NoError(t, err)

	require.NoError(t, out.Acquire(make([]byte, 4)))
	require.ErrorIs(t, out.Acquire(make([]byte, 4)), api.ErrResourcePresent)

	out.Terminate()
	require.ErrorIs(t, out.Acquire(make([]byte, 4)), api.ErrTerminated)
}

func TestCycleReentry(t *testing.T) {
	j, _ := fakeJunction(t)
	require.NoError(t, j.Enter())
	require.ErrorIs(t, j.Enter(), api.ErrCycleActive)
	j.Exit()
	require.NoError(t, j.Enter())
	j.Exit()
}

func TestVoidDrainsRegistry(t *testing.T) {
	f := fake.NewPoller()
	j, err := junction.New(junction.WithPoller(f))
	require.NoError(t, err)

	in, out, err := j.SpawnUnidirectional()
	require.NoError(t, err)
	_, _, err = j.BindDatagrams(loopback(t))
	require.NoError(t, err)
	require.Equal(t, 4, j.Registered())

	j.Void()
	require.Zero(t, j.Registered())
	require.True(t, f.Closed())
	require.True(t, in.Terminated())
	require.True(t, out.Terminated())
}

func TestTerminationCauseLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := fake.NewPoller()
	j, err := junction.New(junction.WithPoller(f), junction.WithLogger(zap.New(core)))
	require.NoError(t, err)
	t.Cleanup(j.Void)

	_, out, err := j.SpawnUnidirectional()
	require.NoError(t, err)
	fd := out.Port().FD
	out.Terminate()
	require.NoError(t, j.Do(func([]junction.Channel) {}))

	entries := logs.FilterMessage("channel terminated").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	require.Equal(t, int64(fd), ctx["fd"])
	require.Equal(t, "output", ctx["polarity"])
	require.Contains(t, ctx["port"], "pipe")
}

func TestProbeLifecycle(t *testing.T) {
	pr := control.NewProbes()
	f := fake.NewPoller()
	j, err := junction.New(junction.WithPoller(f), junction.WithProbes(pr, "j0"))
	require.NoError(t, err)

	_, _, err = j.SpawnUnidirectional()
	require.NoError(t, err)

	dump := pr.Dump()
	require.Contains(t, dump, "j0")
	require.Equal(t, 2, dump["j0"].(map[string]any)["registered"])

	j.Void()
	require.Empty(t, pr.Dump())
}

func TestStatsCountCycles(t *testing.T) {
	j, _ := fakeJunction(t)
	_, out, err := j.SpawnUnidirectional()
	require.NoError(t, err)
	out.Terminate()

	require.NoError(t, j.Do(func([]junction.Channel) {}))
	require.NoError(t, j.Do(func([]junction.Channel) {}))

	snap := j.Stats().Snapshot()
	require.Equal(t, uint64(2), snap["cycles"])
	require.Equal(t, uint64(1), snap["transfers"])
	require.Equal(t, uint64(1), snap["terminations"])
}
