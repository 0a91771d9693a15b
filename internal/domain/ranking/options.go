package ranking

import "time"

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithDefaultBounds sets the normalization bounds used when a library is
// scored without category context.
func WithDefaultBounds(maxStars, maxVotes int) Option {
	return func(c *Calculator) {
		if maxStars > 0 {
			c.defaultBounds.MaxStars = maxStars
		}
		if maxVotes > 0 {
			c.defaultBounds.MaxVotes = maxVotes
		}
	}
}

// WithClock overrides the time source used for freshness scoring.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}
