package moderation

import "time"

var DecodeSnapshots = decodeSnapshots

// BackoffDelays returns the first n delays from a fresh backoff, resetting it
// once before index resetAt when resetAt is non-negative.
func BackoffDelays(base, limit time.Duration, n, resetAt int) []time.Duration {
	b := newBackoff(base, limit)
	out := make([]time.Duration, n)
	for i := range n {
		if i == resetAt {
			b.reset()
		}
		out[i] = b.next()
	}
	return out
}
