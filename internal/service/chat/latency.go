package chat

import (
	"context"
	"math/rand/v2"
	"time"
)

// Default pacing bounds, applied when a persona declares none.
const (
	defaultMinDelay = 1.0
	defaultMaxDelay = 5.0
)

// pickDelay computes a uniformly random delay within the closed interval
// [minSeconds, maxSeconds]. A zero bound counts as absent and takes its
// default independently of the other; if substitution inverts the interval
// the floor collapses to the declared ceiling.
func pickDelay(minSeconds, maxSeconds float64) time.Duration {
	if minSeconds == 0 {
		minSeconds = defaultMinDelay
	}
	if maxSeconds == 0 {
		maxSeconds = defaultMaxDelay
	}
	if minSeconds > maxSeconds {
		minSeconds = maxSeconds
	}
	seconds := minSeconds
	if span := maxSeconds - minSeconds; span > 0 {
		seconds += rand.Float64() * span
	}
	return time.Duration(seconds * float64(time.Second))
}

// delay suspends for a random duration within the persona's bounds. It runs
// strictly after the provider call: it paces the delivery of an
// already-computed answer, never the work itself. A cancelled context cuts
// the pause short without error; the response must not be suppressed by this
// step.
func delay(ctx context.Context, minSeconds, maxSeconds float64) {
	d := pickDelay(minSeconds, maxSeconds)
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
