// Package ratelimit provides per-key request limiters.
//
// SlidingWindow and TokenBucket keep state in process memory, so limits apply per
// instance. Redis shares a sliding window across instances.
package ratelimit

import "context"

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
