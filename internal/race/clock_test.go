package race

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func waitEvent(t *testing.T, c *Clock) ClockEvent {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for clock event")
		return ClockEvent{}
	}
}

func TestCountdownTicksDown(t *testing.T) {
	clk := clockwork.NewFakeClock()
	c := NewClock(clk)
	defer c.Stop()

	c.StartCountdown(3)

	clk.BlockUntil(1)
	clk.Advance(time.Second)
	ev := waitEvent(t, c)
	if ev.Kind != CountdownTick || ev.Count != 2 {
		t.Fatalf("expected tick with count 2, got %+v", ev)
	}

	clk.BlockUntil(1)
	clk.Advance(time.Second)
	ev = waitEvent(t, c)
	if ev.Kind != CountdownTick || ev.Count != 1 {
		t.Fatalf("expected tick with count 1, got %+v", ev)
	}

	clk.BlockUntil(1)
	clk.Advance(time.Second)
	ev = waitEvent(t, c)
	if ev.Kind != CountdownDone {
		t.Fatalf("expected terminal CountdownDone, got %+v", ev)
	}
}

func TestDeadlineRemainingRecomputed(t *testing.T) {
	clk := clockwork.NewFakeClock()
	c := NewClock(clk)
	defer c.Stop()

	deadline := clk.Now().Add(time.Second)
	c.StartDeadline(deadline)

	clk.BlockUntil(1)
	clk.Advance(DeadlinePollInterval)
	ev := waitEvent(t, c)
	if ev.Kind != DeadlineTick {
		t.Fatalf("expected DeadlineTick, got %+v", ev)
	}
	if want := 750 * time.Millisecond; ev.Remaining != want {
		t.Fatalf("remaining must be recomputed from now, got %v want %v", ev.Remaining, want)
	}

	// A large jump past the deadline expires in a single poll. The
	// remaining time is wall-clock based, not tick-count based.
	clk.BlockUntil(1)
	clk.Advance(time.Hour)
	ev = waitEvent(t, c)
	if ev.Kind != DeadlineExpired {
		t.Fatalf("expected DeadlineExpired after wall-clock jump, got %+v", ev)
	}
}

func TestClockStopCancelsTimers(t *testing.T) {
	clk := clockwork.NewFakeClock()
	c := NewClock(clk)
	c.StartCountdown(3)
	clk.BlockUntil(1)
	c.Stop()
	c.Stop() // idempotent

	select {
	case ev, ok := <-c.Events():
		if ok {
			t.Fatalf("unexpected event after stop: %+v", ev)
		}
	default:
	}
}
