package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request
	Wait()
	// Reset resets the rate limiter state
	Reset()
}

// PerMinute returns a sliding window limiter allowing n requests per minute,
// or an unlimited limiter when n is not positive
func PerMinute(n int) Limiter {
	if n <= 0 {
		return Unlimited{}
	}
	return NewSlidingWindow(n, time.Minute)
}

// Unlimited allows every request
type Unlimited struct{}

func (Unlimited) Allow() bool { return true }
func (Unlimited) Wait()       {}
func (Unlimited) Reset()      {}

// SlidingWindow implements a sliding window rate limiter
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex

	now   func() time.Time
	sleep func(time.Duration)
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// Allow checks if a request can proceed
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}

	return false
}

// Wait blocks until a request is allowed
func (sw *SlidingWindow) Wait() {
	for !sw.Allow() {
		sw.mu.Lock()
		var timeToWait time.Duration
		if len(sw.requests) > 0 {
			timeToWait = sw.windowSize - sw.now().Sub(sw.requests[0])
		}
		sw.mu.Unlock()

		if timeToWait <= 0 {
			// Small sleep to prevent busy waiting
			timeToWait = 10 * time.Millisecond
		}
		sw.sleep(timeToWait)
	}
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

// cleanOldRequests removes requests outside the sliding window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}
