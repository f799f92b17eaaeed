// File: junction/alloc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Channel construction. Every allocator follows the same shape: force-fail
// allocation checkpoints, a construction-call sequence short-circuited by
// the port's sticky failure state, then registration. A port that finished
// construction with a recorded failure still yields registered channels;
// the next dispatch cycle terminates them and delivers the notice. Only
// allocation failure itself unwinds and returns an error.

package junction

import (
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/endpoint"
	"github.com/momentics/hioload-io/kcall"
	"github.com/momentics/hioload-io/port"
	"github.com/momentics/hioload-io/transport"
)

// DefaultBacklog is the listen backlog for stream listeners.
const DefaultBacklog = 64

func (j *Junction) newPort() (*port.Port, error) {
	if err := kcall.CheckAllocation("port"); err != nil {
		return nil, err
	}
	return port.New(), nil
}

func (j *Junction) newOctets(p *port.Port, pol api.Polarity, site string) (*Octets, error) {
	if err := kcall.CheckAllocation(site); err != nil {
		return nil, err
	}
	o := &Octets{}
	o.init(j, p, pol, o)
	return o, nil
}

func (j *Junction) newDatagrams(p *port.Port, pol api.Polarity, site string) (*Datagrams, error) {
	if err := kcall.CheckAllocation(site); err != nil {
		return nil, err
	}
	d := &Datagrams{}
	d.init(j, p, pol, d)
	return d, nil
}

func (j *Junction) newPorts(p *port.Port, pol api.Polarity, site string) (*Ports, error) {
	if err := kcall.CheckAllocation(site); err != nil {
		return nil, err
	}
	t := &Ports{}
	t.init(j, p, pol, t)
	return t, nil
}

// ConnectStream starts a non-blocking tcp connection and returns its
// input and output channels sharing one port.
func (j *Junction) ConnectStream(connect netip.AddrPort) (*Octets, *Octets, error) {
	return j.connectStream(connect, netip.AddrPort{}, false, unix.SOCK_STREAM)
}

// ConnectStreamBound binds the local endpoint before connecting.
func (j *Junction) ConnectStreamBound(connect, bind netip.AddrPort) (*Octets, *Octets, error) {
	return j.connectStream(connect, bind, true, unix.SOCK_STREAM)
}

// ConnectDatagramStream connects a datagram socket and presents it as a
// byte stream pair.
func (j *Junction) ConnectDatagramStream(connect netip.AddrPort) (*Octets, *Octets, error) {
	return j.connectStream(connect, netip.AddrPort{}, false, unix.SOCK_DGRAM)
}

func (j *Junction) connectStream(connect, bind netip.AddrPort, bound bool, typ int) (*Octets, *Octets, error) {
	if err := kcall.CheckAllocation("pair"); err != nil {
		return nil, nil, err
	}
	p, err := j.newPort()
	if err != nil {
		return nil, nil, err
	}
	if p.Socket(endpoint.Domain(connect), typ, 0) {
		p.SetNoBlocking()
		p.SetNoSigpipe()
		if bound {
			p.Bind(endpoint.Sockaddr(bind))
		}
		p.Connect(endpoint.Sockaddr(connect))
	}
	return j.octetsPair(p)
}

// octetsPair builds the input/output channel pair over one port and
// registers both. Allocation failure shatters the port.
func (j *Junction) octetsPair(p *port.Port) (*Octets, *Octets, error) {
	in, err := j.newOctets(p, api.Input, "channel.input")
	if err != nil {
		p.Shatter()
		return nil, nil, err
	}
	out, err := j.newOctets(p, api.Output, "channel.output")
	if err != nil {
		p.Shatter()
		return nil, nil, err
	}
	j.register(in)
	j.register(out)
	return in, out, nil
}

// ListenStream binds a tcp listener and returns its accept channel.
func (j *Junction) ListenStream(bind netip.AddrPort) (*Sockets, error) {
	if err := kcall.CheckAllocation("channel.input"); err != nil {
		return nil, err
	}
	p, err := j.newPort()
	if err != nil {
		return nil, err
	}
	if p.Socket(endpoint.Domain(bind), unix.SOCK_STREAM, 0) {
		p.SetNoBlocking()
		j.reuseAddr(p)
		p.Bind(endpoint.Sockaddr(bind))
		p.Listen(DefaultBacklog)
	}
	s := &Sockets{}
	s.init(j, p, api.Input, s)
	j.register(s)
	return s, nil
}

// reuseAddr requests address reuse on a listener. Abandonment under
// interruption is silent; a refusal is recorded and terminates the
// channel before it ever listens.
func (j *Junction) reuseAddr(p *port.Port) {
	fd := p.FD
	p.Offer(kcall.SetOption, func() unix.Errno {
		return errnoOf(unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1))
	})
}

// BindDatagrams binds a datagram socket and returns its input and output
// channels sharing one port.
func (j *Junction) BindDatagrams(bind netip.AddrPort) (*Datagrams, *Datagrams, error) {
	if err := kcall.CheckAllocation("pair"); err != nil {
		return nil, nil, err
	}
	p, err := j.newPort()
	if err != nil {
		return nil, nil, err
	}
	if p.Socket(endpoint.Domain(bind), unix.SOCK_DGRAM, 0) {
		p.SetNoBlocking()
		p.SetNoSigpipe()
		p.Bind(endpoint.Sockaddr(bind))
	}
	in, err := j.newDatagrams(p, api.Input, "channel.input")
	if err != nil {
		p.Shatter()
		return nil, nil, err
	}
	out, err := j.newDatagrams(p, api.Output, "channel.output")
	if err != nil {
		p.Shatter()
		return nil, nil, err
	}
	j.register(in)
	j.register(out)
	return in, out, nil
}

// SpawnUnidirectional creates a pipe and returns the channel of each end.
func (j *Junction) SpawnUnidirectional() (*Octets, *Octets, error) {
	if err := kcall.CheckAllocation("pair"); err != nil {
		return nil, nil, err
	}
	pr, err := j.newPort()
	if err != nil {
		return nil, nil, err
	}
	pw, err := j.newPort()
	if err != nil {
		return nil, nil, err
	}
	if port.MakePipe(pr, pw) {
		pr.SetNoBlocking()
		pw.SetNoBlocking()
		pw.SetNoSigpipe()
	}
	in, err := j.newOctets(pr, api.Input, "channel.input")
	if err != nil {
		pr.Shatter()
		pw.Shatter()
		return nil, nil, err
	}
	out, err := j.newOctets(pw, api.Output, "channel.output")
	if err != nil {
		pr.Shatter()
		pw.Shatter()
		return nil, nil, err
	}
	j.register(in)
	j.register(out)
	return in, out, nil
}

// SpawnBidirectional creates a connected socket pair and returns the four
// channels over it: each end contributes an input and an output sharing
// that end's port.
func (j *Junction) SpawnBidirectional() (in1, out1, in2, out2 *Octets, err error) {
	if err = kcall.CheckAllocation("quad"); err != nil {
		return nil, nil, nil, nil, err
	}
	pa, pb, err := j.spawnPairPorts()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	fail := func() {
		pa.Shatter()
		pb.Shatter()
	}
	if in1, err = j.newOctets(pa, api.Input, "channel.input"); err != nil {
		fail()
		return nil, nil, nil, nil, err
	}
	if out1, err = j.newOctets(pa, api.Output, "channel.output"); err != nil {
		fail()
		return nil, nil, nil, nil, err
	}
	if in2, err = j.newOctets(pb, api.Input, "channel.input"); err != nil {
		fail()
		return nil, nil, nil, nil, err
	}
	if out2, err = j.newOctets(pb, api.Output, "channel.output"); err != nil {
		fail()
		return nil, nil, nil, nil, err
	}
	j.register(in1)
	j.register(out1)
	j.register(in2)
	j.register(out2)
	return in1, out1, in2, out2, nil
}

// SpawnPorts creates a connected socket pair carrying descriptors instead
// of bytes and returns its four channels.
func (j *Junction) SpawnPorts() (in1, out1, in2, out2 *Ports, err error) {
	if err = kcall.CheckAllocation("quad"); err != nil {
		return nil, nil, nil, nil, err
	}
	pa, pb, err := j.spawnPairPorts()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	fail := func() {
		pa.Shatter()
		pb.Shatter()
	}
	if in1, err = j.newPorts(pa, api.Input, "channel.input"); err != nil {
		fail()
		return nil, nil, nil, nil, err
	}
	if out1, err = j.newPorts(pa, api.Output, "channel.output"); err != nil {
		fail()
		return nil, nil, nil, nil, err
	}
	if in2, err = j.newPorts(pb, api.Input, "channel.input"); err != nil {
		fail()
		return nil, nil, nil, nil, err
	}
	if out2, err = j.newPorts(pb, api.Output, "channel.output"); err != nil {
		fail()
		return nil, nil, nil, nil, err
	}
	j.register(in1)
	j.register(out1)
	j.register(in2)
	j.register(out2)
	return in1, out1, in2, out2, nil
}

func (j *Junction) spawnPairPorts() (*port.Port, *port.Port, error) {
	pa, err := j.newPort()
	if err != nil {
		return nil, nil, err
	}
	pb, err := j.newPort()
	if err != nil {
		return nil, nil, err
	}
	if port.MakeSocketPair(pa, pb) {
		pa.SetNoBlocking()
		pb.SetNoBlocking()
		pa.SetNoSigpipe()
		pb.SetNoSigpipe()
	}
	return pa, pb, nil
}

// acquirePort adopts a caller-supplied descriptor: classify it, then put
// it in non-blocking mode. On allocation failure the descriptor stays
// with the caller; on success the returned channels own it.
func (j *Junction) acquirePort(fd int) (*port.Port, error) {
	p, err := j.newPort()
	if err != nil {
		return nil, err
	}
	p.FD = fd
	if p.Identify() {
		p.SetNoBlocking()
		p.SetNoSigpipe()
	}
	return p, nil
}

// AcquireInput adopts a descriptor as an input byte-stream channel.
func (j *Junction) AcquireInput(fd int) (*Octets, error) {
	p, err := j.acquirePort(fd)
	if err != nil {
		return nil, err
	}
	in, err := j.newOctets(p, api.Input, "channel.input")
	if err != nil {
		return nil, err
	}
	j.register(in)
	return in, nil
}

// AcquireOutput adopts a descriptor as an output byte-stream channel.
func (j *Junction) AcquireOutput(fd int) (*Octets, error) {
	p, err := j.acquirePort(fd)
	if err != nil {
		return nil, err
	}
	out, err := j.newOctets(p, api.Output, "channel.output")
	if err != nil {
		return nil, err
	}
	j.register(out)
	return out, nil
}

// AcquireSocketStream adopts a connected stream socket as an input/output
// channel pair.
func (j *Junction) AcquireSocketStream(fd int) (*Octets, *Octets, error) {
	if err := kcall.CheckAllocation("pair"); err != nil {
		return nil, nil, err
	}
	p, err := j.acquirePort(fd)
	if err != nil {
		return nil, nil, err
	}
	return j.octetsPair(p)
}

// AcquireListener adopts a listening socket as an accept channel.
func (j *Junction) AcquireListener(fd int) (*Sockets, error) {
	p, err := j.acquirePort(fd)
	if err != nil {
		return nil, err
	}
	if err := kcall.CheckAllocation("channel.input"); err != nil {
		return nil, err
	}
	s := &Sockets{}
	s.init(j, p, api.Input, s)
	j.register(s)
	return s, nil
}

// AcquirePorts adopts a unix-domain socket as a descriptor-passing
// input/output channel pair.
func (j *Junction) AcquirePorts(fd int) (*Ports, *Ports, error) {
	if err := kcall.CheckAllocation("pair"); err != nil {
		return nil, nil, err
	}
	p, err := j.acquirePort(fd)
	if err != nil {
		return nil, nil, err
	}
	in, err := j.newPorts(p, api.Input, "channel.input")
	if err != nil {
		return nil, nil, err
	}
	out, err := j.newPorts(p, api.Output, "channel.output")
	if err != nil {
		return nil, nil, err
	}
	j.register(in)
	j.register(out)
	return in, out, nil
}

// OpenFileRead opens a file for reading as an input channel.
func (j *Junction) OpenFileRead(path string) (*Octets, error) {
	p, err := j.newPort()
	if err != nil {
		return nil, err
	}
	if p.OpenFile(path, unix.O_RDONLY, 0) {
		p.Identify()
		p.SetNoBlocking()
	}
	in, err := j.newOctets(p, api.Input, "channel.input")
	if err != nil {
		p.Shatter()
		return nil, err
	}
	j.register(in)
	return in, nil
}

// OpenFileOverwrite opens a file for writing, truncating it, as an output
// channel.
func (j *Junction) OpenFileOverwrite(path string) (*Octets, error) {
	p, err := j.newPort()
	if err != nil {
		return nil, err
	}
	if p.OpenFile(path, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC, 0o666) {
		p.Identify()
		p.SetNoBlocking()
	}
	out, err := j.newOctets(p, api.Output, "channel.output")
	if err != nil {
		p.Shatter()
		return nil, err
	}
	j.register(out)
	return out, nil
}

// Allocate constructs channels from a transport specification, either a
// string or a transport.Request. The returned slice order is input before
// output per end.
func (j *Junction) Allocate(spec any, args ...any) ([]api.Channel, error) {
	var req transport.Request
	switch s := spec.(type) {
	case string:
		var err error
		if req, err = transport.Parse(s); err != nil {
			return nil, err
		}
	case transport.Request:
		req = s
	default:
		return nil, fmt.Errorf("junction: unsupported specification type %T", spec)
	}

	switch req.Freight {
	case transport.Octets:
		return j.allocateOctets(req, args)
	case transport.Sockets:
		return j.allocateSockets(req, args)
	case transport.Datagrams:
		return j.allocateDatagrams(req, args)
	case transport.Ports:
		return j.allocatePorts(req, args)
	}
	return nil, api.ErrUnsupported
}

func (j *Junction) allocateOctets(req transport.Request, args []any) ([]api.Channel, error) {
	switch req.Addressing {
	case transport.IP4, transport.IP6:
		connect, err := wantAddr(args, 0)
		if err != nil {
			return nil, err
		}
		var in, out *Octets
		switch {
		case req.Protocol == "udp":
			in, out, err = j.ConnectDatagramStream(connect)
		case req.Variant == transport.Bind:
			var bind netip.AddrPort
			if bind, err = wantAddr(args, 1); err != nil {
				return nil, err
			}
			in, out, err = j.ConnectStreamBound(connect, bind)
		default:
			in, out, err = j.ConnectStream(connect)
		}
		if err != nil {
			return nil, err
		}
		return []api.Channel{in, out}, nil

	case transport.Spawn:
		if req.Variant == transport.Unidirectional {
			in, out, err := j.SpawnUnidirectional()
			if err != nil {
				return nil, err
			}
			return []api.Channel{in, out}, nil
		}
		in1, out1, in2, out2, err := j.SpawnBidirectional()
		if err != nil {
			return nil, err
		}
		return []api.Channel{in1, out1, in2, out2}, nil

	case transport.Acquire:
		fd, err := wantFD(args, 0)
		if err != nil {
			return nil, err
		}
		switch req.Variant {
		case transport.Input:
			in, err := j.AcquireInput(fd)
			if err != nil {
				return nil, err
			}
			return []api.Channel{in}, nil
		case transport.Output:
			out, err := j.AcquireOutput(fd)
			if err != nil {
				return nil, err
			}
			return []api.Channel{out}, nil
		default:
			in, out, err := j.AcquireSocketStream(fd)
			if err != nil {
				return nil, err
			}
			return []api.Channel{in, out}, nil
		}

	case transport.File:
		path, err := wantPath(args, 0)
		if err != nil {
			return nil, err
		}
		if req.Variant == transport.Read {
			in, err := j.OpenFileRead(path)
			if err != nil {
				return nil, err
			}
			return []api.Channel{in}, nil
		}
		out, err := j.OpenFileOverwrite(path)
		if err != nil {
			return nil, err
		}
		return []api.Channel{out}, nil
	}
	return nil, api.ErrUnsupported
}

func (j *Junction) allocateSockets(req transport.Request, args []any) ([]api.Channel, error) {
	if req.Addressing == transport.Acquire {
		fd, err := wantFD(args, 0)
		if err != nil {
			return nil, err
		}
		s, err := j.AcquireListener(fd)
		if err != nil {
			return nil, err
		}
		return []api.Channel{s}, nil
	}
	bind, err := wantAddr(args, 0)
	if err != nil {
		return nil, err
	}
	s, err := j.ListenStream(bind)
	if err != nil {
		return nil, err
	}
	return []api.Channel{s}, nil
}

func (j *Junction) allocateDatagrams(req transport.Request, args []any) ([]api.Channel, error) {
	bind, err := wantAddr(args, 0)
	if err != nil {
		return nil, err
	}
	in, out, err := j.BindDatagrams(bind)
	if err != nil {
		return nil, err
	}
	return []api.Channel{in, out}, nil
}

func (j *Junction) allocatePorts(req transport.Request, args []any) ([]api.Channel, error) {
	if req.Addressing == transport.Acquire {
		fd, err := wantFD(args, 0)
		if err != nil {
			return nil, err
		}
		in, out, err := j.AcquirePorts(fd)
		if err != nil {
			return nil, err
		}
		return []api.Channel{in, out}, nil
	}
	in1, out1, in2, out2, err := j.SpawnPorts()
	if err != nil {
		return nil, err
	}
	return []api.Channel{in1, out1, in2, out2}, nil
}

func wantAddr(args []any, i int) (netip.AddrPort, error) {
	if i >= len(args) {
		return netip.AddrPort{}, fmt.Errorf("junction: specification requires an endpoint argument")
	}
	ap, ok := args[i].(netip.AddrPort)
	if !ok {
		return netip.AddrPort{}, fmt.Errorf("junction: argument %d: want netip.AddrPort, got %T", i, args[i])
	}
	return ap, nil
}

func wantFD(args []any, i int) (int, error) {
	if i >= len(args) {
		return port.Invalid, fmt.Errorf("junction: specification requires a descriptor argument")
	}
	fd, ok := args[i].(int)
	if !ok {
		return port.Invalid, fmt.Errorf("junction: argument %d: want int, got %T", i, args[i])
	}
	return fd, nil
}

func wantPath(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("junction: specification requires a path argument")
	}
	path, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("junction: argument %d: want string, got %T", i, args[i])
	}
	return path, nil
}
