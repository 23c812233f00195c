package ratelimiter

import (
	"fmt"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Limit     int       // bucket capacity
	Remaining int       // tokens left; negative when denied
	ResetAt   time.Time // next refill
}

// Allowed reports whether the call was within the limit.
func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter is zero for allowed calls.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Config is a token bucket: Capacity tokens, RefillRate added every RefillInterval.
type Config struct {
	Capacity       int           `env:"RATELIMIT_CAPACITY" envDefault:"10"`
	RefillRate     int           `env:"RATELIMIT_REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"RATELIMIT_REFILL_INTERVAL" envDefault:"30s"`
}

// DefaultConfig allows a burst of 10 attempts and one more every 30 seconds.
func DefaultConfig() Config {
	return Config{Capacity: 10, RefillRate: 1, RefillInterval: 30 * time.Second}
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval < time.Millisecond {
		return fmt.Errorf("%w: refill interval must be at least 1ms, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// refill returns the token count after the intervals elapsed since last,
// and the new refill timestamp.
func (c Config) refill(tokens int, last, now time.Time) (int, time.Time) {
	intervals := int64(now.Sub(last) / c.RefillInterval)
	if intervals <= 0 {
		return tokens, last
	}
	if intervals > int64(c.Capacity/c.RefillRate) {
		return c.Capacity, now
	}
	tokens = min(tokens+int(intervals)*c.RefillRate, c.Capacity)
	return tokens, last.Add(time.Duration(intervals) * c.RefillInterval)
}
