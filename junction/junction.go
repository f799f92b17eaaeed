// File: junction/junction.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package junction

import (
	"sync/atomic"

	"github.com/eapache/queue"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
	"github.com/momentics/hioload-io/kcall"
	"github.com/momentics/hioload-io/port"
)

// defaultWindow sizes the per-cycle event batch.
const defaultWindow = 16

// fdEntry tracks up to two opposite-polarity channels sharing one
// descriptor and the poller subscription state for it.
type fdEntry struct {
	in       Channel
	out      Channel
	known    bool // descriptor registered with the poller
	armedIn  bool
	armedOut bool
	always   bool // poller cannot watch this descriptor; treat as ready
}

// Junction owns one event-notification context and a registry of channels.
// All methods except Force must be called from the owning goroutine.
type Junction struct {
	p      *port.Port
	poll   Poller
	log    *zap.Logger
	st     *control.Stats
	probes *control.Probes
	name   string
	size   int

	channels map[Channel]struct{}
	byFD     map[int]*fdEntry

	window []Channel // channels transferred or terminated this cycle
	terms  int

	cycling    bool
	terminated bool
	closed     bool

	waiting atomic.Bool
	forced  atomic.Bool
}

// Option configures a Junction at construction.
type Option func(*Junction)

// WithLogger attaches a structured logger; the default discards.
func WithLogger(l *zap.Logger) Option {
	return func(j *Junction) { j.log = l }
}

// WithStats attaches a shared counter set; the default is private.
func WithStats(s *control.Stats) Option {
	return func(j *Junction) { j.st = s }
}

// WithProbes registers the Junction under name in a probe registry for
// the lifetime of the Junction. The probe reports registry size and the
// notification port's state.
func WithProbes(pr *control.Probes, name string) Option {
	return func(j *Junction) {
		j.probes = pr
		j.name = name
	}
}

// WithPoller substitutes the notification context, bypassing the platform
// default. Used by deterministic tests.
func WithPoller(p Poller) Option {
	return func(j *Junction) { j.poll = p }
}

// WithWindow sets the per-cycle event batch size.
func WithWindow(size int) Option {
	return func(j *Junction) {
		if size > 0 {
			j.size = size
		}
	}
}

// New constructs a Junction and its notification context. An interrupted
// construction records the interruption on the Junction's Port and still
// returns the Junction; any other construction failure is returned.
func New(opts ...Option) (*Junction, error) {
	if err := kcall.CheckAllocation("junction"); err != nil {
		return nil, err
	}
	j := &Junction{
		p:        port.New(),
		log:      zap.NewNop(),
		size:     defaultWindow,
		channels: make(map[Channel]struct{}),
		byFD:     make(map[int]*fdEntry),
	}
	for _, o := range opts {
		o(j)
	}
	if j.st == nil {
		j.st = control.NewStats()
	}
	if j.poll == nil {
		j.poll = newPoller(j.p, j.size)
	}
	if !j.p.OK() && j.p.Error() != unix.EINTR {
		err := j.p.Raised()
		j.poll.Close()
		return nil, err
	}
	if j.probes != nil {
		j.probes.Register(j.name, func() any {
			return map[string]any{
				"registered": len(j.channels),
				"port":       j.p.String(),
			}
		})
	}
	return j, nil
}

// Port returns the Junction's own Port. A collection retry ceiling records
// its interruption here.
func (j *Junction) Port() *port.Port { return j.p }

// Stats returns the Junction's counter set.
func (j *Junction) Stats() *control.Stats { return j.st }

// Registered returns the live channel count.
func (j *Junction) Registered() int { return len(j.channels) }

// Terminated reports whether the Junction is shutting down.
func (j *Junction) Terminated() bool { return j.terminated }

// register adds a freshly constructed channel to the registry. Channels
// whose construction failed before a descriptor existed are registered
// without an fd entry; the next cycle terminates them.
func (j *Junction) register(ch Channel) {
	b := ch.base()
	j.channels[ch] = struct{}{}
	b.regFD = b.p.FD
	if b.regFD == port.Invalid {
		return
	}
	e := j.byFD[b.regFD]
	if e == nil {
		e = &fdEntry{}
		j.byFD[b.regFD] = e
	} else {
		// The kernel reuses descriptor numbers; clear slots left behind
		// by channels terminated since the last cycle.
		if e.in != nil && e.in.base().terminated {
			e.in = nil
		}
		if e.out != nil && e.out.base().terminated {
			e.out = nil
		}
		if e.in == nil && e.out == nil {
			*e = fdEntry{}
		}
	}
	if b.pol == api.Input {
		e.in = ch
	} else {
		e.out = ch
	}
}

// retire removes a terminated channel, delivering its pending termination
// notice into the transfer window.
func (j *Junction) retire(ch Channel) {
	b := ch.base()
	if ce := j.log.Check(zap.DebugLevel, "channel terminated"); ce != nil {
		ce.Write(
			zap.Int("fd", b.regFD),
			zap.Stringer("polarity", b.pol),
			zap.String("port", b.p.String()),
		)
	}
	if b.noted {
		b.noted = false
		j.window = append(j.window, ch)
		j.terms++
	}
	delete(j.channels, ch)
	e := j.byFD[b.regFD]
	if e == nil {
		return
	}
	if e.in == ch {
		e.in = nil
	}
	if e.out == ch {
		e.out = nil
	}
	if e.in == nil && e.out == nil {
		if e.known {
			j.poll.Disarm(b.regFD)
		}
		delete(j.byFD, b.regFD)
	}
}

// Enter opens a dispatch cycle: delivers queued termination notices, arms
// notification for every pending direction, collects readiness and runs
// each ready channel's transfer step. The results are visible through
// Transferred until the next Enter.
func (j *Junction) Enter() error {
	if j.cycling {
		return api.ErrCycleActive
	}
	j.cycling = true
	j.window = j.window[:0]
	j.terms = 0

	if j.terminated {
		j.drain()
		return nil
	}

	immediate := j.forced.Swap(false)

	// Delta pass: sweep terminations queued since the last cycle and
	// channels whose construction or transfer recorded a failure.
	for ch := range j.channels {
		b := ch.base()
		if b.terminated {
			j.retire(ch)
			immediate = true
			continue
		}
		if !b.p.OK() {
			ch.Terminate()
			j.retire(ch)
			immediate = true
			continue
		}
		if b.forced {
			immediate = true
		}
	}

	// Arm pass, one poller operation per descriptor whose interest set
	// changed.
	for fd, e := range j.byFD {
		in := e.in != nil && e.in.base().pending()
		out := e.out != nil && e.out.base().pending()
		if e.always {
			if in {
				e.in.base().kready = true
				immediate = true
			}
			if out {
				e.out.base().kready = true
				immediate = true
			}
			continue
		}
		if in == e.armedIn && out == e.armedOut {
			continue
		}
		if !in && !out {
			if e.known {
				j.poll.Disarm(fd)
				e.known = false
			}
			e.armedIn, e.armedOut = false, false
			continue
		}
		if j.poll.Arm(fd, in, out, e.known) {
			e.known = true
			e.armedIn, e.armedOut = in, out
			continue
		}
		// The poller refused the descriptor kind (regular files under
		// epoll); fall back to unconditional readiness.
		e.always = true
		if in {
			e.in.base().kready = true
		}
		if out {
			e.out.base().kready = true
		}
		immediate = true
	}

	j.waiting.Store(!immediate)
	evs := j.poll.Collect(!immediate)
	j.waiting.Store(false)

	for _, ev := range evs {
		e := j.byFD[ev.FD]
		if e == nil {
			continue
		}
		if ev.Err {
			// Dispatch both directions so the failing transfer records
			// the real errno.
			if e.in != nil {
				e.in.base().kready = true
			}
			if e.out != nil {
				e.out.base().kready = true
			}
		}
		if ev.HUP && e.in != nil {
			// Peer hangup; dispatch the input side so it observes the
			// zero-length read.
			e.in.base().kready = true
		}
		if ev.Read && e.in != nil {
			e.in.base().kready = true
		}
		if ev.Write && e.out != nil {
			e.out.base().kready = true
		}
	}

	// Dispatch pass.
	work := queue.New()
	for ch := range j.channels {
		b := ch.base()
		if b.forced || (b.kready && b.pending()) {
			work.Add(ch)
		}
	}
	for work.Length() > 0 {
		ch := work.Remove().(Channel)
		b := ch.base()
		b.forced = false
		ch.perform()
		j.window = append(j.window, ch)
		if b.terminated {
			b.noted = false // this window entry is the notice
			j.terms++
			j.retire(ch)
		}
		b.kready = false
	}
	return nil
}

// Exit closes the dispatch cycle and folds its counters.
func (j *Junction) Exit() {
	if !j.cycling {
		return
	}
	j.cycling = false
	j.st.RecordCycle(len(j.window), j.terms)
	if ce := j.log.Check(zap.DebugLevel, "cycle"); ce != nil {
		ce.Write(
			zap.Int("transferred", len(j.window)),
			zap.Int("terminated", j.terms),
			zap.Int("registered", len(j.channels)),
		)
	}
}

// Do runs one complete cycle, handing the transfer window to fn.
func (j *Junction) Do(fn func([]Channel)) error {
	if err := j.Enter(); err != nil {
		return err
	}
	defer j.Exit()
	fn(j.window)
	return nil
}

// Transferred returns the channels that moved data or terminated during
// the most recent cycle. Valid until the next Enter.
func (j *Junction) Transferred() []Channel { return j.window }

// SizeofTransfer returns the length of the most recent transfer window.
func (j *Junction) SizeofTransfer() int { return len(j.window) }

// Force pre-empts a blocked collection from any goroutine and marks the
// next cycle immediate. Reports whether a collection was in progress.
func (j *Junction) Force() bool {
	j.forced.Store(true)
	was := j.waiting.Load()
	j.poll.Wake()
	return was
}

// Terminate begins Junction shutdown. The next cycle terminates every
// registered channel and releases the notification context.
func (j *Junction) Terminate() {
	if j.terminated {
		return
	}
	j.terminated = true
	j.forced.Store(true)
	j.poll.Wake()
}

// Void terminates and cycles until the registry is empty and the
// notification context is released.
func (j *Junction) Void() {
	j.Terminate()
	for !j.closed || len(j.channels) > 0 {
		if err := j.Enter(); err != nil {
			return
		}
		j.Exit()
	}
}

func (j *Junction) drain() {
	for ch := range j.channels {
		b := ch.base()
		if !b.terminated {
			ch.Terminate()
		}
		j.retire(ch)
	}
	if !j.closed {
		j.closed = true
		if j.probes != nil {
			j.probes.Unregister(j.name)
		}
		j.poll.Close()
	}
}

func errnoOf(err error) unix.Errno {
	if err == nil {
		return 0
	}
	if e, ok := err.(unix.Errno); ok {
		return e
	}
	return unix.EIO
}
