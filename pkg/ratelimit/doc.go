// Package ratelimit provides request pacing for the ripper session.
//
// Pacing is optional and off by default. When a configuration sets
// session.requests_per_minute, every fetch waits on a sliding window limiter
// before the request is sent. There is no retry or backoff here.
//
// Interface:
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	limiter := ratelimit.PerMinute(30)
//	limiter.Wait()
//	// Proceed with request
package ratelimit
