package runner

import (
	"math/rand/v2"
	"time"
)

// RetryStrategy decides the delay before the next attempt. attempt starts at 0.
type RetryStrategy interface {
	SleepDuration(attempt int, err error) time.Duration
}

// RetryFunc adapts a function into a RetryStrategy.
type RetryFunc func(attempt int, err error) time.Duration

func (fn RetryFunc) SleepDuration(attempt int, err error) time.Duration { return fn(attempt, err) }

// Immediate retries without waiting.
var Immediate RetryStrategy = RetryFunc(func(int, error) time.Duration { return 0 })

// Backoff grows the wait by Multiplier after every failed attempt, starting
// at Initial and never above Max when Max is set. Jitter adds up to that
// fraction of the wait at random so retries of concurrent requests spread.
type Backoff struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
	Jitter     float64
}

func (b Backoff) SleepDuration(attempt int, _ error) time.Duration {
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := b.Initial
	for i := 0; i < attempt && !b.capped(delay); i++ {
		delay = time.Duration(float64(delay) * mult)
	}
	if b.Jitter > 0 && delay > 0 {
		delay += time.Duration(rand.Float64() * b.Jitter * float64(delay))
	}
	if b.capped(delay) {
		return b.Max
	}
	return delay
}

func (b Backoff) capped(d time.Duration) bool {
	return b.Max > 0 && d >= b.Max
}
