package tcp

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/distkmeans/collective"
	"github.com/hupe1980/distkmeans/internal/compress"
)

const handshakeTimeout = 10 * time.Second

var (
	// ErrInvalidWorld is returned for a world size below one or a rank outside it.
	ErrInvalidWorld = errors.New("tcp: invalid world size or rank")

	// ErrRejected is returned by Dial when the hub refuses the handshake.
	ErrRejected = errors.New("tcp: handshake rejected")
)

// RemoteError is the cause of an abort that originated in another process.
type RemoteError struct {
	Rank    int
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Comm is one member of a tcp group. It implements collective.Comm.
type Comm struct {
	rank int
	size int
	opts Options
	f    framer

	// links[r] is the connection to rank r. The hub holds one link per
	// member; members hold only links[0].
	links []*peer
	seq   uint64

	stop      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	aborted   chan struct{}
	abortOnce sync.Once
	cause     error
}

var _ collective.Comm = (*Comm)(nil)

func newComm(rank, size int, opts Options) *Comm {
	return &Comm{
		rank: rank,
		size: size,
		opts: opts,
		f: framer{
			codec:       opts.Codec,
			compression: opts.Compression,
			maxFrame:    opts.MaxFrameSize,
		},
		links:   make([]*peer, size),
		stop:    make(chan struct{}),
		aborted: make(chan struct{}),
	}
}

func validateOptions(opts Options) error {
	if opts.Compression == compress.Gzip {
		return fmt.Errorf("tcp: %w: gzip cannot compress frames", compress.ErrUnknownType)
	}
	return nil
}

// Listen listens on addr, waits for world-1 members to join and returns the
// hub (rank 0). The listener is closed before Listen returns.
func Listen(ctx context.Context, addr string, world int, optFns ...func(*Options)) (*Comm, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	return Accept(ctx, ln, world, optFns...)
}

// Accept waits on ln until world-1 members have joined and returns the hub
// (rank 0). Handshakes that fail validation are rejected and do not count.
// If ctx is canceled before the group is complete, ln is closed.
func Accept(ctx context.Context, ln net.Listener, world int, optFns ...func(*Options)) (*Comm, error) {
	if world < 1 {
		return nil, ErrInvalidWorld
	}
	opts := applyOptions(optFns)
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	c := newComm(0, world, opts)
	if world == 1 {
		return c, nil
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for joined := 0; joined < world-1; {
		conn, err := ln.Accept()
		if err != nil {
			c.closeLinks()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}

		rank, err := c.welcome(conn)
		if err != nil {
			opts.Logger.Warn("tcp: rejected member", "remote", conn.RemoteAddr().String(), "error", err)
			_ = conn.Close()
			continue
		}

		c.links[rank] = newPeer(rank, conn, c.f, opts.WriteTimeout)
		joined++
		opts.Logger.Debug("tcp: member joined", "rank", rank, "remote", conn.RemoteAddr().String(), "joined", joined, "world", world)
	}

	c.startReaders()
	return c, nil
}

func (c *Comm) welcome(conn net.Conn) (int, error) {
	hs := handshakeFramer()
	_ = conn.SetDeadline(time.Now().Add(handshakeTimeout))
	defer conn.SetDeadline(time.Time{})

	hello, err := hs.read(conn)
	if err != nil {
		return 0, err
	}

	reject := func(format string, args ...any) (int, error) {
		err := fmt.Errorf(format, args...)
		_ = hs.write(conn, &message{Kind: kindReject, Cause: err.Error()})
		return 0, err
	}

	switch {
	case hello.Kind != kindHello:
		return reject("expected hello, got %v", hello.Kind)
	case hello.World != c.size:
		return reject("world %d does not match %d", hello.World, c.size)
	case hello.Rank < 1 || hello.Rank >= c.size:
		return reject("rank %d out of range [1,%d)", hello.Rank, c.size)
	case c.links[hello.Rank] != nil:
		return reject("rank %d already joined", hello.Rank)
	case hello.Codec != c.opts.Codec.Name():
		return reject("codec %q does not match %q", hello.Codec, c.opts.Codec.Name())
	case hello.Compression != c.opts.Compression.String():
		return reject("compression %q does not match %q", hello.Compression, c.opts.Compression)
	}

	if err := hs.write(conn, &message{Kind: kindWelcome, Rank: 0, World: c.size}); err != nil {
		return 0, err
	}
	return hello.Rank, nil
}

// Dial connects to the hub at addr as rank, retrying with exponential backoff
// until the hub accepts or ctx is done. A rejected handshake is not retried.
func Dial(ctx context.Context, addr string, rank, world int, optFns ...func(*Options)) (*Comm, error) {
	if world < 2 || rank < 1 || rank >= world {
		return nil, ErrInvalidWorld
	}
	opts := applyOptions(optFns)
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	c := newComm(rank, world, opts)

	var d net.Dialer
	backoff := opts.InitialBackoff
	for attempt := 1; ; attempt++ {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			err = c.hello(conn)
			if err == nil {
				c.links[0] = newPeer(0, conn, c.f, opts.WriteTimeout)
				c.startReaders()
				opts.Logger.Debug("tcp: joined group", "rank", rank, "world", world, "attempts", attempt)
				return c, nil
			}
			_ = conn.Close()
			if errors.Is(err, ErrRejected) {
				return nil, err
			}
		}

		opts.Logger.Debug("tcp: dial failed, retrying", "addr", addr, "attempt", attempt, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("tcp: dial %s: %w (last error: %v)", addr, ctx.Err(), err)
		case <-time.After(backoff):
		}

		next := float64(backoff) * 2
		next += (rand.Float64()*2 - 1) * 0.1 * next
		backoff = min(time.Duration(next), opts.MaxBackoff)
	}
}

func (c *Comm) hello(conn net.Conn) error {
	hs := handshakeFramer()
	_ = conn.SetDeadline(time.Now().Add(handshakeTimeout))
	defer conn.SetDeadline(time.Time{})

	err := hs.write(conn, &message{
		Kind:        kindHello,
		Rank:        c.rank,
		World:       c.size,
		Codec:       c.opts.Codec.Name(),
		Compression: c.opts.Compression.String(),
	})
	if err != nil {
		return err
	}

	reply, err := hs.read(conn)
	if err != nil {
		return err
	}
	switch reply.Kind {
	case kindWelcome:
		return nil
	case kindReject:
		return fmt.Errorf("%w: %s", ErrRejected, reply.Cause)
	default:
		return fmt.Errorf("tcp: expected welcome, got %v", reply.Kind)
	}
}

func (c *Comm) startReaders() {
	for _, p := range c.links {
		if p != nil {
			go p.readLoop(c.stop, c.aborted, c.onAbort, c.onLost)
		}
	}
}

func (c *Comm) Rank() int { return c.rank }

func (c *Comm) Size() int { return c.size }

// Err returns the abort error, or nil if the group was not aborted.
func (c *Comm) Err() error {
	select {
	case <-c.aborted:
		return c.cause
	default:
		return nil
	}
}

// Abort terminates the group and notifies every reachable member.
func (c *Comm) Abort(cause error) {
	if cause == nil {
		cause = collective.ErrAborted
	}
	var ae *collective.AbortError
	if errors.As(cause, &ae) {
		c.abort(ae, -1)
		return
	}
	c.abort(&collective.AbortError{Rank: c.rank, Cause: cause}, -1)
}

// abort records the first cause and forwards it to every link except skip.
func (c *Comm) abort(cause *collective.AbortError, skip int) {
	c.abortOnce.Do(func() {
		c.cause = cause
		close(c.aborted)
		c.opts.Logger.Error("tcp: group aborted", "rank", c.rank, "origin", cause.Rank, "error", cause.Cause)

		msg := collective.ErrAborted.Error()
		if cause.Cause != nil {
			msg = cause.Cause.Error()
		}
		frame := &message{Kind: kindAbort, Rank: cause.Rank, Cause: msg}
		for r, p := range c.links {
			if p == nil || r == skip {
				continue
			}
			if err := p.send(frame); err != nil {
				c.opts.Logger.Debug("tcp: abort not delivered", "to", r, "error", err)
			}
		}
	})
}

func (c *Comm) onAbort(m *message) {
	// Only the hub forwards; members learn about aborts from the hub.
	skip := m.Rank
	if c.rank != 0 {
		skip = 0
	}
	c.abort(&collective.AbortError{
		Rank:  m.Rank,
		Cause: &RemoteError{Rank: m.Rank, Message: m.Cause},
	}, skip)
}

func (c *Comm) onLost(p *peer, err error) {
	if c.closed.Load() {
		return
	}
	c.abort(&collective.AbortError{Rank: c.rank, Cause: err}, p.rank)
}

// Close says goodbye to every link and releases the connections.
func (c *Comm) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		aborted := c.Err() != nil
		for _, p := range c.links {
			if p != nil && !aborted {
				_ = p.send(&message{Kind: kindBye, Rank: c.rank})
			}
		}
		close(c.stop)
		c.closeLinks()
		for _, p := range c.links {
			if p != nil {
				<-p.done
			}
		}
	})
	return nil
}

func (c *Comm) closeLinks() {
	for _, p := range c.links {
		if p != nil {
			_ = p.conn.Close()
		}
	}
}

func (c *Comm) check(root int) error {
	if c.closed.Load() {
		return collective.ErrClosed
	}
	if root < 0 || root >= c.size {
		return fmt.Errorf("tcp: root %d out of range [0,%d)", root, c.size)
	}
	return c.Err()
}

// recv waits for the next data frame from p. A frame already delivered wins
// over a concurrent abort or disconnect.
func (c *Comm) recv(ctx context.Context, p *peer) (*message, error) {
	select {
	case m := <-p.inbox:
		return m, nil
	default:
	}

	select {
	case m := <-p.inbox:
		return m, nil
	case <-c.aborted:
		select {
		case m := <-p.inbox:
			return m, nil
		default:
		}
		return nil, c.cause
	case <-p.done:
		select {
		case m := <-p.inbox:
			return m, nil
		default:
		}
		if c.closed.Load() || p.err == nil {
			return nil, collective.ErrClosed
		}
		c.abort(&collective.AbortError{Rank: c.rank, Cause: p.err}, p.rank)
		return nil, c.Err()
	case <-ctx.Done():
		c.Abort(ctx.Err())
		return nil, c.Err()
	case <-c.stop:
		return nil, collective.ErrClosed
	}
}

func (c *Comm) mismatch(op collective.Op, rank int, format string, args ...any) error {
	c.Abort(&collective.MismatchError{Op: op, Rank: rank, Detail: fmt.Sprintf(format, args...)})
	return c.Err()
}

// exchange runs one collective. Members send m to the hub and wait for the
// result. The hub collects every contribution in rank order, validates it
// against its own, combines and sends the result back.
func (c *Comm) exchange(ctx context.Context, m *message, validate func(rank int, got *message) error, combine func([]*message) *message) (*message, error) {
	c.seq++
	m.Kind = kindData
	m.Rank = c.rank
	m.Seq = c.seq

	if c.size == 1 {
		return combine([]*message{m}), nil
	}

	if c.rank != 0 {
		hub := c.links[0]
		if err := hub.send(m); err != nil {
			c.Abort(err)
			return nil, c.Err()
		}
		res, err := c.recv(ctx, hub)
		if err != nil {
			return nil, err
		}
		if res.Seq != m.Seq || res.Op != m.Op {
			return nil, c.mismatch(m.Op, c.rank, "hub answered %s#%d to %s#%d", res.Op, res.Seq, m.Op, m.Seq)
		}
		return res, nil
	}

	contribs := make([]*message, c.size)
	contribs[0] = m
	for r := 1; r < c.size; r++ {
		got, err := c.recv(ctx, c.links[r])
		if err != nil {
			return nil, err
		}
		if got.Seq != m.Seq || got.Op != m.Op || got.Root != m.Root || got.Len != m.Len {
			return nil, c.mismatch(m.Op, r, "got %s#%d(root=%d,len=%d), hub is in %s#%d(root=%d,len=%d)",
				got.Op, got.Seq, got.Root, got.Len, m.Op, m.Seq, m.Root, m.Len)
		}
		if validate != nil {
			if err := validate(r, got); err != nil {
				return nil, c.mismatch(m.Op, r, "%v", err)
			}
		}
		contribs[r] = got
	}

	res := combine(contribs)
	res.Kind = kindData
	res.Seq = m.Seq
	res.Op = m.Op
	res.Root = m.Root
	res.Len = m.Len
	for r := 1; r < c.size; r++ {
		if err := c.links[r].send(res); err != nil {
			c.Abort(err)
			return nil, c.Err()
		}
	}
	return res, nil
}

func (c *Comm) Barrier(ctx context.Context) error {
	if err := c.check(0); err != nil {
		return err
	}
	_, err := c.exchange(ctx, &message{Op: collective.OpBarrier}, nil, func([]*message) *message {
		return &message{}
	})
	return err
}

func (c *Comm) Broadcast(ctx context.Context, root int, buf []float64) error {
	if err := c.check(root); err != nil {
		return err
	}

	m := &message{Op: collective.OpBroadcast, Root: root, Len: len(buf)}
	if c.rank == root {
		m.Floats = buf
	}
	res, err := c.exchange(ctx, m, func(r int, got *message) error {
		if r == root && len(got.Floats) != len(buf) {
			return fmt.Errorf("root sent %d values, want %d", len(got.Floats), len(buf))
		}
		return nil
	}, func(parts []*message) *message {
		return &message{Floats: parts[root].Floats}
	})
	if err != nil {
		return err
	}
	if len(res.Floats) != len(buf) {
		return c.mismatch(collective.OpBroadcast, c.rank, "received %d values, want %d", len(res.Floats), len(buf))
	}
	copy(buf, res.Floats)
	return nil
}

func (c *Comm) BroadcastInts(ctx context.Context, root int, buf []int64) error {
	if err := c.check(root); err != nil {
		return err
	}

	m := &message{Op: collective.OpBroadcastInt, Root: root, Len: len(buf)}
	if c.rank == root {
		m.Ints = buf
	}
	res, err := c.exchange(ctx, m, func(r int, got *message) error {
		if r == root && len(got.Ints) != len(buf) {
			return fmt.Errorf("root sent %d values, want %d", len(got.Ints), len(buf))
		}
		return nil
	}, func(parts []*message) *message {
		return &message{Ints: parts[root].Ints}
	})
	if err != nil {
		return err
	}
	if len(res.Ints) != len(buf) {
		return c.mismatch(collective.OpBroadcastInt, c.rank, "received %d values, want %d", len(res.Ints), len(buf))
	}
	copy(buf, res.Ints)
	return nil
}

func (c *Comm) AllGatherV(ctx context.Context, buf []int32, counts []int) error {
	if err := c.check(0); err != nil {
		return err
	}
	if len(counts) != c.size {
		return fmt.Errorf("tcp: got %d counts for %d members", len(counts), c.size)
	}
	if collective.Total(counts) != len(buf) {
		return fmt.Errorf("tcp: counts sum to %d, buffer holds %d", collective.Total(counts), len(buf))
	}

	off := collective.Offsets(counts)[c.rank]
	m := &message{Op: collective.OpAllGatherV, Len: len(buf), Labels: buf[off : off+counts[c.rank]]}

	res, err := c.exchange(ctx, m, func(r int, got *message) error {
		if len(got.Labels) != counts[r] {
			return fmt.Errorf("segment holds %d values, want %d", len(got.Labels), counts[r])
		}
		return nil
	}, func(parts []*message) *message {
		segs := make([][]int32, len(parts))
		for i, p := range parts {
			segs[i] = p.Labels
		}
		return &message{Labels: collective.Concat(segs)}
	})
	if err != nil {
		return err
	}
	if len(res.Labels) != len(buf) {
		return c.mismatch(collective.OpAllGatherV, c.rank, "received %d values, want %d", len(res.Labels), len(buf))
	}
	copy(buf, res.Labels)
	return nil
}

func (c *Comm) AllReduceSumInts(ctx context.Context, buf []int64) error {
	if err := c.check(0); err != nil {
		return err
	}

	m := &message{Op: collective.OpAllReduce, Len: len(buf), Ints: buf}
	res, err := c.exchange(ctx, m, func(_ int, got *message) error {
		if len(got.Ints) != len(buf) {
			return fmt.Errorf("contributed %d values, want %d", len(got.Ints), len(buf))
		}
		return nil
	}, func(parts []*message) *message {
		vs := make([][]int64, len(parts))
		for i, p := range parts {
			vs[i] = p.Ints
		}
		return &message{Ints: collective.SumInt64s(vs)}
	})
	if err != nil {
		return err
	}
	if len(res.Ints) != len(buf) {
		return c.mismatch(collective.OpAllReduce, c.rank, "received %d values, want %d", len(res.Ints), len(buf))
	}
	copy(buf, res.Ints)
	return nil
}
