// File: port/port_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Latch and release behavior against live descriptors.

package port_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-io/kcall"
	"github.com/momentics/hioload-io/port"
)

func fdAlive(fd int) bool {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err == nil
}

func pipePorts(t *testing.T) (*port.Port, *port.Port) {
	t.Helper()
	r, w := port.New(), port.New()
	require.True(t, port.MakePipe(r, w))
	return r, w
}

func pairPorts(t *testing.T) (*port.Port, *port.Port) {
	t.Helper()
	a, b := port.New(), port.New()
	require.True(t, port.MakeSocketPair(a, b))
	return a, b
}

func TestUnlatchLastLatchCloses(t *testing.T) {
	r, w := pipePorts(t)
	defer w.Shatter()

	fd := r.FD
	r.Latch(port.LatchInput)
	r.Unlatch(port.LatchInput)

	require.Equal(t, port.Invalid, r.FD)
	require.False(t, fdAlive(fd))
}

func TestUnlatchSharedSocketShutsDownDirection(t *testing.T) {
	a, b := pairPorts(t)
	defer b.Shatter()

	a.Latch(port.LatchInput)
	a.Latch(port.LatchOutput)

	// Releasing the output half shuts down writes; the peer sees
	// end-of-stream but the descriptor stays open for the input half.
	fd := a.FD
	a.Unlatch(port.LatchOutput)
	require.True(t, fdAlive(fd))
	require.True(t, a.Latched())

	var buf [8]byte
	n, err := unix.Read(b.FD, buf[:])
	require.NoError(t, err)
	require.Zero(t, n)

	a.Unlatch(port.LatchInput)
	require.False(t, fdAlive(fd))
	require.Equal(t, port.Invalid, a.FD)
}

func TestCloseGiveUpLeavesDescriptorOpen(t *testing.T) {
	t.Cleanup(kcall.Clear)
	r, w := pipePorts(t)
	defer w.Shatter()

	fd := r.FD
	kcall.Inject(kcall.Release, kcall.AlwaysFail(unix.EINTR).Next)
	r.Latch(port.LatchInput)
	r.Unlatch(port.LatchInput)
	kcall.Clear()

	// The close was abandoned under interruption: no error recorded, the
	// port dropped its reference, and the kernel descriptor survives.
	require.True(t, r.OK())
	require.Equal(t, port.Invalid, r.FD)
	require.True(t, fdAlive(fd))
	require.NoError(t, unix.Close(fd))
}

func TestLeakReleasesWithoutClosing(t *testing.T) {
	r, w := pipePorts(t)
	defer w.Shatter()

	fd := r.FD
	r.Latch(port.LatchInput)
	require.True(t, r.Leak())
	require.False(t, r.Latched())
	require.True(t, fdAlive(fd))

	// Later unlatches must not close a leaked descriptor either.
	r.Latch(port.LatchInput)
	r.Unlatch(port.LatchInput)
	require.True(t, fdAlive(fd))
	require.NoError(t, unix.Close(fd))
}

func TestShatterSkipsDirectionalShutdown(t *testing.T) {
	a, b := pairPorts(t)
	defer b.Shatter()

	a.Latch(port.LatchInput)
	a.Latch(port.LatchOutput)
	fd := a.FD
	require.True(t, a.Shatter())
	require.False(t, fdAlive(fd))
	require.Equal(t, port.Invalid, a.FD)
}

func TestIdentifyKinds(t *testing.T) {
	r, w := pipePorts(t)
	defer r.Shatter()
	defer w.Shatter()
	a, b := pairPorts(t)
	defer a.Shatter()
	defer b.Shatter()

	p := port.New()
	p.FD = r.FD
	require.True(t, p.Identify())
	require.Equal(t, port.KindPipe, p.Kind)

	p = port.New()
	p.FD = a.FD
	require.True(t, p.Identify())
	require.Equal(t, port.KindSocket, p.Kind)
}

func TestIdentifyBadDescriptor(t *testing.T) {
	p := port.New()
	p.FD = 1 << 20
	require.False(t, p.Identify())
	require.Equal(t, port.KindBad, p.Kind)
	require.Equal(t, unix.EBADF, p.Error())
	require.Equal(t, kcall.Identify, p.Call())
}

func TestResizeBufferRefusalRecordedButInterruptSilent(t *testing.T) {
	t.Cleanup(kcall.Clear)

	a, b := pairPorts(t)
	defer a.Shatter()
	defer b.Shatter()

	// Interruption ceiling: abandoned without a trace.
	kcall.Inject(kcall.SetOption, kcall.AlwaysFail(unix.EINTR).Next)
	a.ResizeBuffer(port.LatchInput, 1<<16)
	require.True(t, a.OK())
	kcall.Clear()

	// A genuine refusal is recorded.
	kcall.Inject(kcall.SetOption, kcall.Failures(1, unix.EINVAL).Next)
	b.ResizeBuffer(port.LatchOutput, 1<<16)
	require.Equal(t, unix.EINVAL, b.Error())
	require.Equal(t, kcall.SetOption, b.Call())
}
