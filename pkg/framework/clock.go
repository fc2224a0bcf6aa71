package framework

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrInterrupted indicates a Clock wait was woken up before its deadline.
var ErrInterrupted = errors.New("wait interrupted")

type realClock struct{}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Time implements TimeSource.
func (realClock) Time() time.Time {
	return time.Now()
}

// Sleep implements Clock.
func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// InstantClock advances its own time by the requested duration on
// every Sleep and returns immediately. It suits single goroutine
// simulations where nothing else observes the passing time.
type InstantClock struct {
	now  time.Time
	lock sync.Mutex
}

// NewInstantClock creates an InstantClock starting at start.
func NewInstantClock(start time.Time) *InstantClock {
	return &InstantClock{now: start}
}

// Time implements TimeSource.
func (c *InstantClock) Time() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Sleep implements Clock.
func (c *InstantClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.lock.Lock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
	c.lock.Unlock()
	return nil
}

// SimClock is a manually driven Clock. Sleepers block until the clock
// is stepped past their deadlines, which makes concurrent timing
// deterministic: drive it with Waiters and Step so that time only
// moves when every participant is blocked.
type SimClock struct {
	now     time.Time
	waiters []*simWaiter
	watches []*simWatch
	lock    sync.Mutex
}

type simWaiter struct {
	deadline time.Time
	wakeCh   chan error
}

type simWatch struct {
	count int
	ch    chan struct{}
}

// NewSimClock creates a SimClock starting at start.
func NewSimClock(start time.Time) *SimClock {
	return &SimClock{now: start}
}

// Time implements TimeSource.
func (c *SimClock) Time() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Sleep implements Clock.
func (c *SimClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	w := &simWaiter{wakeCh: make(chan error, 1)}
	c.lock.Lock()
	w.deadline = c.now.Add(d)
	pos := sort.Search(len(c.waiters), func(i int) bool {
		return c.waiters[i].deadline.After(w.deadline)
	})
	c.waiters = append(c.waiters, nil)
	copy(c.waiters[pos+1:], c.waiters[pos:])
	c.waiters[pos] = w
	c.notifyWatchesLocked()
	c.lock.Unlock()

	select {
	case err := <-w.wakeCh:
		return err
	case <-ctx.Done():
		c.remove(w)
		return ctx.Err()
	}
}

// Waiters returns a chan which is closed once at least n sleepers
// are blocked on the clock.
func (c *SimClock) Waiters(n int) <-chan struct{} {
	ch := make(chan struct{})
	c.lock.Lock()
	defer c.lock.Unlock()
	if len(c.waiters) >= n {
		close(ch)
		return ch
	}
	c.watches = append(c.watches, &simWatch{count: n, ch: ch})
	return ch
}

// Len returns the number of blocked sleepers.
func (c *SimClock) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.waiters)
}

// Step moves the clock to the earliest pending deadline and wakes all
// sleepers with that deadline. It returns false if nobody is sleeping.
func (c *SimClock) Step() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if len(c.waiters) == 0 {
		return false
	}
	c.now = c.waiters[0].deadline
	c.fireLocked(c.now, nil)
	return true
}

// Advance moves the clock forward by d, waking every sleeper whose
// deadline is reached.
func (c *SimClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
	c.fireLocked(c.now, nil)
}

// Interrupt wakes all sleepers with ErrInterrupted without moving
// the clock.
func (c *SimClock) Interrupt() {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, w := range c.waiters {
		w.wakeCh <- ErrInterrupted
	}
	c.waiters = nil
}

func (c *SimClock) fireLocked(now time.Time, err error) {
	n := 0
	for ; n < len(c.waiters) && !c.waiters[n].deadline.After(now); n++ {
		c.waiters[n].wakeCh <- err
	}
	c.waiters = append(c.waiters[:0], c.waiters[n:]...)
}

func (c *SimClock) remove(w *simWaiter) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for n, waiter := range c.waiters {
		if waiter == w {
			c.waiters = append(c.waiters[:n], c.waiters[n+1:]...)
			return
		}
	}
}

func (c *SimClock) notifyWatchesLocked() {
	watches := c.watches[:0]
	for _, watch := range c.watches {
		if len(c.waiters) >= watch.count {
			close(watch.ch)
		} else {
			watches = append(watches, watch)
		}
	}
	c.watches = watches
}
