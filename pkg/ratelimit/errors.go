package ratelimit

import "errors"

// ErrRateLimited is returned by TryAcquire when neither the token bucket nor
// the sliding window has room for another call right now.
var ErrRateLimited = errors.New("ratelimit: rate limit exceeded")
