package sshpool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	mu      sync.Mutex
	healthy bool
	closed  bool
}

func (c *fakeConn) Run(ctx context.Context, command string, stdin string) (string, string, int, error) {
	return "", "", 0, nil
}

func (c *fakeConn) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy && !c.closed
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type fakeDialer struct {
	mu    sync.Mutex
	dials int
	conns []*fakeConn
	err   error
}

func (d *fakeDialer) Dial(ctx context.Context, host string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return nil, d.err
	}

	d.dials++
	conn := &fakeConn{healthy: true}
	d.conns = append(d.conns, conn)

	return conn, nil
}

func TestCheckoutReusesReleasedConnection(t *testing.T) {
	dialer := &fakeDialer{}
	pool := NewPool(dialer, Options{SizePerHost: 2})

	lease, err := pool.Checkout(context.Background(), "host-a")

	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	first := lease.Conn()
	lease.Release()

	lease, err = pool.Checkout(context.Background(), "host-a")

	if err != nil {
		t.Fatalf("second checkout failed: %v", err)
	}

	if lease.Conn() != first {
		t.Error("expected the released connection to be reused")
	}

	if dialer.dials != 1 {
		t.Errorf("expected 1 dial, got %d", dialer.dials)
	}

	lease.Release()
}

func TestCheckoutBlocksAtCapacity(t *testing.T) {
	dialer := &fakeDialer{}
	pool := NewPool(dialer, Options{SizePerHost: 1})

	lease, err := pool.Checkout(context.Background(), "host-a")

	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// At capacity: a second checkout must block until release
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = pool.Checkout(ctx, "host-a")

	if !errors.Is(err, ErrCheckoutTimeout) {
		t.Fatalf("expected ErrCheckoutTimeout, got %v", err)
	}

	released := make(chan struct{})

	go func() {
		time.Sleep(50 * time.Millisecond)
		lease.Release()
		close(released)
	}()

	second, err := pool.Checkout(context.Background(), "host-a")

	if err != nil {
		t.Fatalf("checkout after release failed: %v", err)
	}

	<-released
	second.Release()

	if dialer.dials != 1 {
		t.Errorf("expected the single connection to be shared, got %d dials", dialer.dials)
	}
}

func TestLeasedConnectionsNeverExceedCeiling(t *testing.T) {
	dialer := &fakeDialer{}
	pool := NewPool(dialer, Options{SizePerHost: 3})

	var mu sync.Mutex
	leased := 0
	peak := 0

	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			lease, err := pool.Checkout(context.Background(), "host-a")

			if err != nil {
				t.Errorf("checkout failed: %v", err)
				return
			}

			mu.Lock()
			leased++
			if leased > peak {
				peak = leased
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			leased--
			mu.Unlock()

			lease.Release()
		}()
	}

	wg.Wait()

	if peak > 3 {
		t.Errorf("leased connections exceeded ceiling: peak %d", peak)
	}
}

func TestHostsDoNotContend(t *testing.T) {
	dialer := &fakeDialer{}
	pool := NewPool(dialer, Options{SizePerHost: 1})

	leaseA, err := pool.Checkout(context.Background(), "host-a")

	if err != nil {
		t.Fatalf("checkout host-a failed: %v", err)
	}

	// host-a at capacity must not block host-b
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	leaseB, err := pool.Checkout(ctx, "host-b")

	if err != nil {
		t.Fatalf("checkout host-b failed: %v", err)
	}

	leaseA.Release()
	leaseB.Release()
}

func TestUnhealthyIdleConnectionIsReplaced(t *testing.T) {
	dialer := &fakeDialer{}
	pool := NewPool(dialer, Options{SizePerHost: 2, IdleProbeAfter: time.Nanosecond})

	lease, err := pool.Checkout(context.Background(), "host-a")

	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	first := lease.Conn().(*fakeConn)
	lease.Release()

	first.mu.Lock()
	first.healthy = false
	first.mu.Unlock()

	time.Sleep(time.Millisecond) // let the idle age past the probe threshold

	lease, err = pool.Checkout(context.Background(), "host-a")

	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if lease.Conn() == first {
		t.Error("expected the unhealthy connection to be replaced")
	}

	if !first.closed {
		t.Error("expected the unhealthy connection to be closed")
	}

	if dialer.dials != 2 {
		t.Errorf("expected a replacement dial, got %d dials", dialer.dials)
	}

	lease.Release()
}

func TestDiscardFreesSlotAndClosesConnection(t *testing.T) {
	dialer := &fakeDialer{}
	pool := NewPool(dialer, Options{SizePerHost: 1})

	lease, err := pool.Checkout(context.Background(), "host-a")

	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	discarded := lease.Conn().(*fakeConn)
	lease.Discard()

	if !discarded.closed {
		t.Error("expected discarded connection to be closed")
	}

	// The slot must be free again immediately
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	next, err := pool.Checkout(ctx, "host-a")

	if err != nil {
		t.Fatalf("checkout after discard failed: %v", err)
	}

	if next.Conn() == Conn(discarded) {
		t.Error("expected a fresh connection after discard")
	}

	next.Release()
}

func TestDialFailureFreesSlot(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("boom")}
	pool := NewPool(dialer, Options{SizePerHost: 1})

	_, err := pool.Checkout(context.Background(), "host-a")

	if err == nil {
		t.Fatal("expected dial error")
	}

	// A failed dial must not leak the slot
	dialer.mu.Lock()
	dialer.err = nil
	dialer.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	lease, err := pool.Checkout(ctx, "host-a")

	if err != nil {
		t.Fatalf("checkout after failed dial blocked: %v", err)
	}

	lease.Release()
}

func TestShutdownDrainsAndCloses(t *testing.T) {
	dialer := &fakeDialer{}
	pool := NewPool(dialer, Options{SizePerHost: 1})

	lease, err := pool.Checkout(context.Background(), "host-a")

	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	done := make(chan error, 1)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		done <- pool.Shutdown(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	lease.Release()

	if err := <-done; err != nil {
		t.Fatalf("shutdown did not drain cleanly: %v", err)
	}

	for _, conn := range dialer.conns {
		if !conn.closed {
			t.Error("expected all connections closed after shutdown")
		}
	}

	if _, err := pool.Checkout(context.Background(), "host-a"); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed after shutdown, got %v", err)
	}
}
