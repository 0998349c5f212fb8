package race

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DeadlinePollInterval is how often the deadline clock reports the
// remaining time.
const DeadlinePollInterval = 250 * time.Millisecond

// ClockEventKind identifies a clock notification.
type ClockEventKind int

// Clock event kinds.
const (
	CountdownTick ClockEventKind = iota
	CountdownDone
	DeadlineTick
	DeadlineExpired
)

// ClockEvent is a notification from a running Clock.
type ClockEvent struct {
	Kind      ClockEventKind
	Count     int           // countdown ticks remaining
	Remaining time.Duration // time left before the deadline
}

// Clock drives the pre-race countdown and the race deadline. Remaining
// time is always recomputed against wall-clock time, never decremented
// per tick, so a suspended process does not drift the deadline. A Clock
// must be stopped when the owning session is torn down.
type Clock struct {
	clock  clockwork.Clock
	events chan ClockEvent

	stop     chan struct{}
	stopOnce sync.Once
}

// NewClock builds a Clock on the given time source. Use
// clockwork.NewRealClock in production and a fake clock in tests.
func NewClock(clk clockwork.Clock) *Clock {
	return &Clock{
		clock:  clk,
		events: make(chan ClockEvent, 8),
		stop:   make(chan struct{}),
	}
}

// Events returns the notification channel.
func (c *Clock) Events() <-chan ClockEvent {
	return c.events
}

// Now returns the current time of the underlying time source.
func (c *Clock) Now() time.Time {
	return c.clock.Now()
}

// StartCountdown ticks once per second from ticks down to zero and then
// emits a terminal CountdownDone event.
func (c *Clock) StartCountdown(ticks int) {
	go func() {
		count := ticks
		for count > 0 {
			select {
			case <-c.clock.After(time.Second):
				count--
				if count == 0 {
					c.emit(ClockEvent{Kind: CountdownDone})
					return
				}
				c.emit(ClockEvent{Kind: CountdownTick, Count: count})
			case <-c.stop:
				return
			}
		}
	}()
}

// StartDeadline polls the remaining time until deadline and emits a
// terminal DeadlineExpired event once it reaches zero.
func (c *Clock) StartDeadline(deadline time.Time) {
	go func() {
		for {
			select {
			case <-c.clock.After(DeadlinePollInterval):
				left := deadline.Sub(c.clock.Now())
				if left <= 0 {
					c.emit(ClockEvent{Kind: DeadlineExpired})
					return
				}
				c.emit(ClockEvent{Kind: DeadlineTick, Remaining: left})
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop cancels all running timers. Safe to call more than once.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Clock) emit(ev ClockEvent) {
	select {
	case c.events <- ev:
	case <-c.stop:
	}
}
