// File: junction/junction_inject_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fault injection through the construction and dispatch machinery: retry
// ceilings per call class, short-circuited construction sequences,
// allocation rollback and collection failure.

package junction_test

import (
	"net/netip"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-io/junction"
	"github.com/momentics/hioload-io/kcall"
	"github.com/momentics/hioload-io/port"
	"github.com/momentics/hioload-io/resource"
)

func openFDs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("no /proc/self/fd on this platform")
	}
	return len(entries)
}

func TestConstructionInterruptCeilingRecorded(t *testing.T) {
	t.Cleanup(kcall.Clear)
	j := liveJunction(t)

	kcall.Inject(kcall.Socket, kcall.AlwaysFail(unix.EINTR).Next)
	in, out, err := j.ConnectStream(netip.MustParseAddrPort("127.0.0.1:1"))
	kcall.Clear()
	require.NoError(t, err, "construction failure is channel state, not an error")

	require.Equal(t, unix.EINTR, in.Port().Error())
	require.Equal(t, kcall.Socket, in.Port().Call())
	require.Equal(t, port.Invalid, in.Port().FD)
	require.Same(t, in.Port(), out.Port())

	// Both channels terminate with their notices in one window.
	var moved []junction.Channel
	require.NoError(t, j.Do(func(w []junction.Channel) {
		moved = append([]junction.Channel(nil), w...)
	}))
	require.Len(t, moved, 2)
	for _, ch := range moved {
		require.True(t, ch.Terminated())
	}
	require.Zero(t, j.Registered())
}

func TestConstructionInterruptsBelowCeilingAbsorbed(t *testing.T) {
	t.Cleanup(kcall.Clear)
	j := liveJunction(t)

	s := kcall.Interrupts(kcall.MaxAttempts - 1)
	kcall.Inject(kcall.Socket, s.Next)
	in, _, err := j.BindDatagrams(loopback(t))
	kcall.Clear()
	require.NoError(t, err)

	require.True(t, in.Port().OK(), "interrupts below the ceiling are absorbed")
	require.True(t, s.Drained())
	require.NotEqual(t, port.Invalid, in.Port().FD)
}

func TestBindFailureShortCircuitsConnect(t *testing.T) {
	t.Cleanup(kcall.Clear)
	j := liveJunction(t)

	connectScript := kcall.AlwaysFail(unix.EINVAL)
	kcall.Inject(kcall.Bind, kcall.Failures(1, unix.EACCES).Next)
	kcall.Inject(kcall.Connect, connectScript.Next)

	in, _, err := j.ConnectStreamBound(
		netip.MustParseAddrPort("127.0.0.1:1"),
		netip.MustParseAddrPort("127.0.0.1:0"),
	)
	kcall.Clear()
	require.NoError(t, err)

	require.Equal(t, unix.EACCES, in.Port().Error())
	require.Equal(t, kcall.Bind, in.Port().Call())
	require.Zero(t, connectScript.Consumed(), "connect must not run after bind failed")
}

func TestListenerOptionInterruptSilentButRefusalRecorded(t *testing.T) {
	t.Cleanup(kcall.Clear)
	j := liveJunction(t)

	// Ceiling on setsockopt: abandoned without a recorded failure, the
	// listener finishes construction and works.
	s := kcall.AlwaysFail(unix.EINTR)
	kcall.Inject(kcall.SetOption, s.Next)
	quiet, err := j.ListenStream(loopback(t))
	kcall.Clear()
	require.NoError(t, err)
	require.True(t, quiet.Port().OK())
	require.Equal(t, kcall.MaxAttempts, s.Consumed())
	quiet.Terminate()

	// A refusal on the same call is recorded and fatal to construction.
	kcall.Inject(kcall.SetOption, kcall.Failures(1, unix.EINVAL).Next)
	loud, err := j.ListenStream(loopback(t))
	kcall.Clear()
	require.NoError(t, err)
	require.Equal(t, unix.EINVAL, loud.Port().Error())
	require.Equal(t, kcall.SetOption, loud.Port().Call())

	drive(t, j, func() bool { return loud.Terminated() })
}

func TestCollectionCeilingRecordsOnJunctionPort(t *testing.T) {
	t.Cleanup(kcall.Clear)
	j := liveJunction(t)

	s := kcall.AlwaysFail(unix.EINTR)
	kcall.Inject(kcall.Collect, s.Next)
	require.NoError(t, j.Do(func(w []junction.Channel) {
		require.Empty(t, w, "a failed collection yields zero events")
	}))
	kcall.Clear()

	require.Equal(t, unix.EINTR, j.Port().Error())
	require.Equal(t, kcall.Collect, j.Port().Call())
	require.Equal(t, kcall.MaxAttempts, s.Consumed())
}

func TestAllocationFailureRollsBack(t *testing.T) {
	t.Cleanup(kcall.Clear)
	j := liveJunction(t)
	before := openFDs(t)

	kcall.FailAllocations("channel.output")
	in, out, err := j.ConnectStream(netip.MustParseAddrPort("127.0.0.1:1"))
	kcall.Clear()

	var ae *kcall.AllocError
	require.ErrorAs(t, err, &ae)
	require.Nil(t, in)
	require.Nil(t, out)
	require.Zero(t, j.Registered())
	require.Equal(t, before, openFDs(t), "rollback must close the socket")
}

func TestQuadAllocationFailureRollsBack(t *testing.T) {
	t.Cleanup(kcall.Clear)
	j := liveJunction(t)
	before := openFDs(t)

	// Fail the last of the four channel allocations: both pair
	// descriptors must be released.
	kcall.FailAllocations("channel.output")
	_, _, _, _, err := j.SpawnBidirectional()
	kcall.Clear()

	var ae *kcall.AllocError
	require.ErrorAs(t, err, &ae)
	require.Zero(t, j.Registered())
	require.Equal(t, before, openFDs(t))
}

func TestJunctionAllocationSite(t *testing.T) {
	t.Cleanup(kcall.Clear)
	kcall.FailAllocations("junction")
	j, err := junction.New()
	var ae *kcall.AllocError
	require.ErrorAs(t, err, &ae)
	require.Nil(t, j)
}

func TestWriteMemoryPressureTerminates(t *testing.T) {
	t.Cleanup(kcall.Clear)
	j := liveJunction(t)
	_, out, err := j.SpawnUnidirectional()
	require.NoError(t, err)
	require.NoError(t, out.Acquire([]byte("doomed")))

	s := kcall.AlwaysFail(unix.ENOMEM)
	kcall.Inject(kcall.Write, s.Next)
	var moved []junction.Channel
	require.NoError(t, j.Do(func(w []junction.Channel) {
		moved = append([]junction.Channel(nil), w...)
	}))
	kcall.Clear()

	require.Len(t, moved, 1)
	require.True(t, moved[0].Terminated())
	require.Equal(t, unix.ENOMEM, out.Port().Error())
	require.Equal(t, kcall.Write, out.Port().Call())
	require.Equal(t, kcall.MaxAttempts, s.Consumed())
}

func TestDatagramPartialSendOnBlock(t *testing.T) {
	t.Cleanup(kcall.Clear)
	j := liveJunction(t)

	rin, _, err := j.BindDatagrams(loopback(t))
	require.NoError(t, err)
	_, sout, err := j.BindDatagrams(loopback(t))
	require.NoError(t, err)
	dest, ok := rin.Endpoint()
	require.True(t, ok)

	outbound, err := resource.NewDatagramArray(32, 2)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		copy(outbound.Payload(i), "slot")
		outbound.SetLength(i, 4)
		outbound.SetEndpoint(i, dest)
	}
	inbound, err := resource.NewDatagramArray(32, 2)
	require.NoError(t, err)

	require.NoError(t, sout.Acquire(outbound))
	require.NoError(t, rin.Acquire(inbound))

	// First slot goes through, then the kernel blocks mid-array: the
	// sender stays attached and unexhausted at slot one.
	kcall.Inject(kcall.SendTo, kcall.PassThenFail(unix.EAGAIN).Next)
	require.NoError(t, j.Do(func([]junction.Channel) {}))
	kcall.Clear()

	require.False(t, sout.Exhausted())
	require.Equal(t, 1, sout.Filled())
	lo, hi := sout.Window()
	require.Equal(t, 0, lo)
	require.Equal(t, 1, hi)

	// With the pressure gone the remaining slot drains.
	drive(t, j, func() bool { return rin.Exhausted() })
	require.True(t, sout.Exhausted())
}
