package chat

import (
	"context"
	"testing"
	"time"
)

func TestPickDelayWithinBounds(t *testing.T) {
	const minSeconds, maxSeconds = 0.05, 0.1
	for i := 0; i < 1000; i++ {
		d := pickDelay(minSeconds, maxSeconds)
		if d < 50*time.Millisecond || d > 100*time.Millisecond {
			t.Fatalf("delay %v outside [50ms, 100ms]", d)
		}
	}
}

func TestPickDelayEqualBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		if d := pickDelay(2.0, 2.0); d != 2*time.Second {
			t.Fatalf("delay = %v, want exactly 2s", d)
		}
	}
}

func TestPickDelayDefaultsWhenAbsent(t *testing.T) {
	for i := 0; i < 1000; i++ {
		d := pickDelay(0, 0)
		if d < time.Second || d > 5*time.Second {
			t.Fatalf("default delay %v outside [1s, 5s]", d)
		}
	}
}

func TestPickDelayZeroMinTakesDefaultFloor(t *testing.T) {
	for i := 0; i < 1000; i++ {
		d := pickDelay(0, 3.0)
		if d < time.Second || d > 3*time.Second {
			t.Fatalf("delay %v outside [1s, 3s]", d)
		}
	}
}

func TestPickDelayZeroMaxTakesDefaultCeiling(t *testing.T) {
	for i := 0; i < 1000; i++ {
		d := pickDelay(2.0, 0)
		if d < 2*time.Second || d > 5*time.Second {
			t.Fatalf("delay %v outside [2s, 5s]", d)
		}
	}
}

func TestPickDelayCollapsesWhenDefaultFloorExceedsCeiling(t *testing.T) {
	for i := 0; i < 100; i++ {
		if d := pickDelay(0, 0.5); d != 500*time.Millisecond {
			t.Fatalf("delay = %v, want exactly 500ms", d)
		}
	}
}

func TestDelaySleepsAtLeastMin(t *testing.T) {
	start := time.Now()
	delay(context.Background(), 0.05, 0.05)
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("delay returned after %v, want >= 50ms", elapsed)
	}
}

func TestDelayCutShortByCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	delay(ctx, 5.0, 5.0)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancelled delay still took %v", elapsed)
	}
}
