package sshpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hostpilot/internal/logger"
)

type Options struct {
	// SizePerHost bounds concurrent connections per host. Clamped to 1..4
	// to avoid overloading constrained target devices.
	SizePerHost int

	// Idle connections older than IdleProbeAfter are probed before reuse;
	// older than IdleExpiry they are closed without probing.
	IdleProbeAfter time.Duration
	IdleExpiry     time.Duration
}

func (o Options) sizePerHost() int {
	if o.SizePerHost < 1 {
		return 1
	}
	if o.SizePerHost > 4 {
		return 4
	}
	return o.SizePerHost
}

// Pool maintains bounded, reusable authenticated connections per host.
// Connections are created lazily, never shared between leases and never
// survive a process restart. Each host has its own slot channel and mutex, so
// hosts never contend with one another.
type Pool struct {
	dialer  Dialer
	options Options

	mu     sync.Mutex
	hosts  map[string]*hostPool
	closed bool
}

func NewPool(dialer Dialer, options Options) *Pool {
	return &Pool{
		dialer:  dialer,
		options: options,
		hosts:   make(map[string]*hostPool),
	}
}

type hostPool struct {
	host    string
	slots   chan struct{}
	options Options

	mu   sync.Mutex
	idle []*pooledConn
}

type pooledConn struct {
	conn       Conn
	createdAt  time.Time
	lastUsedAt time.Time
}

// Lease is the exclusive right to use one connection. Exactly one of
// Release or Discard must be called; both are idempotent after the first.
type Lease struct {
	host *hostPool
	pc   *pooledConn
	done bool
}

func (p *Pool) hostPool(host string) (*hostPool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	hp, ok := p.hosts[host]

	if !ok {
		hp = &hostPool{
			host:    host,
			slots:   make(chan struct{}, p.options.sizePerHost()),
			options: p.options,
		}
		p.hosts[host] = hp
	}

	return hp, nil
}

// Checkout returns a healthy connection for the host, dialing a fresh one if
// no idle connection survives the health check. When the host is at capacity
// it blocks until a lease frees up or ctx expires.
func (p *Pool) Checkout(ctx context.Context, host string) (*Lease, error) {
	hp, err := p.hostPool(host)

	if err != nil {
		return nil, err
	}

	select {
	case hp.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrCheckoutTimeout, ctx.Err())
	}

	// Slot held from here on; every return path either hands it to a Lease
	// or frees it.
	for {
		pc := hp.popIdle()

		if pc == nil {
			break
		}

		age := time.Since(pc.lastUsedAt)

		if hp.options.IdleExpiry > 0 && age >= hp.options.IdleExpiry {
			_ = pc.conn.Close()
			continue
		}

		if hp.options.IdleProbeAfter > 0 && age >= hp.options.IdleProbeAfter && !pc.conn.Healthy() {
			logger.Debug("Discarding unhealthy idle connection to %s", host)
			_ = pc.conn.Close()
			continue
		}

		return &Lease{host: hp, pc: pc}, nil
	}

	conn, err := p.dialer.Dial(ctx, host)

	if err != nil {
		<-hp.slots
		return nil, err
	}

	now := time.Now()

	return &Lease{host: hp, pc: &pooledConn{conn: conn, createdAt: now, lastUsedAt: now}}, nil
}

func (hp *hostPool) popIdle() *pooledConn {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	if len(hp.idle) == 0 {
		return nil
	}

	pc := hp.idle[len(hp.idle)-1]
	hp.idle = hp.idle[:len(hp.idle)-1]

	return pc
}

// Conn exposes the leased connection.
func (l *Lease) Conn() Conn {
	return l.pc.conn
}

// Release returns the connection to the idle set for reuse.
func (l *Lease) Release() {
	if l.done {
		return
	}
	l.done = true

	l.pc.lastUsedAt = time.Now()

	l.host.mu.Lock()
	l.host.idle = append(l.host.idle, l.pc)
	l.host.mu.Unlock()

	<-l.host.slots
}

// Discard destroys the connection instead of returning it. Pool accounting is
// updated before Discard returns, so an aborted execution can never leave an
// orphaned lease behind.
func (l *Lease) Discard() {
	if l.done {
		return
	}
	l.done = true

	_ = l.pc.conn.Close()

	<-l.host.slots
}

// Shutdown drains in-flight leases until ctx expires, then closes every
// connection. The pool rejects new checkouts immediately.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	hosts := make([]*hostPool, 0, len(p.hosts))
	for _, hp := range p.hosts {
		hosts = append(hosts, hp)
	}
	p.mu.Unlock()

	var drainErr error

	for _, hp := range hosts {
		// Taking every slot means no lease is in flight for this host.
		for i := 0; i < cap(hp.slots); i++ {
			select {
			case hp.slots <- struct{}{}:
			case <-ctx.Done():
				drainErr = ctx.Err()
				i = cap(hp.slots) // stop waiting, close what we have
			}
		}

		hp.mu.Lock()
		for _, pc := range hp.idle {
			_ = pc.conn.Close()
		}
		hp.idle = nil
		hp.mu.Unlock()
	}

	return drainErr
}
