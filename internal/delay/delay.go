// Package delay decides how long the emitter pauses between rows.
package delay

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/DjordjeVuckovic/csv-echo/internal/apperr"
)

type Policy interface {
	Next() time.Duration
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
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

// Uniform draws each delay independently from the closed interval [Min, Max].
type Uniform struct {
	Min time.Duration
	Max time.Duration
	rng *rand.Rand
}

type UniformOption func(*Uniform)

// WithSeed makes the delay sequence reproducible across runs.
func WithSeed(seed uint64) UniformOption {
	return func(u *Uniform) {
		u.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

func NewUniform(min, max time.Duration, opts ...UniformOption) (*Uniform, error) {
	if min < 0 || max < 0 {
		return nil, apperr.NewValidation("delay bounds must not be negative")
	}
	if min > max {
		return nil, apperr.NewValidation("--min must be less than or equal to --max")
	}

	u := &Uniform{
		Min: min,
		Max: max,
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(u)
	}

	return u, nil
}

func (u *Uniform) Next() time.Duration {
	span := u.Max - u.Min
	if span == 0 {
		return u.Min
	}
	// Int64N is half-open, so widen by one to include Max.
	return u.Min + time.Duration(u.rng.Int64N(int64(span)+1))
}

type Fixed time.Duration

func (f Fixed) Next() time.Duration {
	return time.Duration(f)
}

// FromSeconds converts fractional seconds as given on the command line.
func FromSeconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
