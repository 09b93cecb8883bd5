package autosave

import (
	"math/rand/v2"
	"time"
)

// Backoff describes the retry delay curve for transient save failures.
type Backoff struct {
	// Initial is the delay before the first retry.
	Initial time.Duration

	// Max caps the exponential growth.
	Max time.Duration

	// Factor is the growth multiplier per attempt.
	Factor float64

	// Jitter is the maximum random spread as a fraction of the delay,
	// applied as plus or minus. Zero disables jitter.
	Jitter float64
}

// DefaultBackoff returns the standard save retry curve.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial: time.Second,
		Max:     30 * time.Second,
		Factor:  2.0,
		Jitter:  0.2,
	}
}

// Delay returns the wait before the given retry attempt, starting at 1.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(b.Initial)
	for i := 1; i < attempt; i++ {
		d *= b.Factor
		if d >= float64(b.Max) {
			d = float64(b.Max)
			break
		}
	}
	if b.Jitter > 0 {
		d *= 1 + (rand.Float64()*2-1)*b.Jitter
	}
	return time.Duration(d)
}
