// Package pacing holds the request-rate policy: delays, sleeping and user-agent rotation.
package pacing

import (
	"context"
	"math/rand"
	"time"
)

// DelaySource yields the pause before the next request.
type DelaySource interface {
	Next() time.Duration
}

// Jitter draws uniformly from [Min, Max).
type Jitter struct {
	Min, Max time.Duration
	rand     func() float64
}

func NewJitter(min, max time.Duration) Jitter {
	return Jitter{Min: min, Max: max, rand: rand.Float64}
}

func (j Jitter) Next() time.Duration {
	if j.Max <= j.Min {
		return j.Min
	}
	r := j.rand
	if r == nil {
		r = rand.Float64
	}
	return j.Min + time.Duration(r()*float64(j.Max-j.Min))
}

// Fixed always yields the same delay.
type Fixed time.Duration

func (f Fixed) Next() time.Duration { return time.Duration(f) }

// Sleeper pauses the calling goroutine. Sleep returns ctx.Err() when ctx ends first.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ContextSleeper is the real Sleeper.
type ContextSleeper struct{}

func (ContextSleeper) Sleep(ctx context.Context, d time.Duration) error {
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

// Agents rotates through user-agent strings at random.
type Agents struct {
	list []string
	pick func(n int) int
}

func NewAgents(list []string) *Agents {
	return &Agents{list: append([]string(nil), list...), pick: rand.Intn}
}

// Next returns a random agent, or "" when the list is empty.
func (a *Agents) Next() string {
	if a == nil || len(a.list) == 0 {
		return ""
	}
	return a.list[a.pick(len(a.list))]
}
