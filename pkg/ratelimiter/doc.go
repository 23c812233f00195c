// Package ratelimiter throttles requests with a token bucket per key.
//
// tenantd puts it in front of POST /auth/login, keyed by client address, to
// slow down password guessing. Buckets live in memory for a single instance
// or in Redis when several replicas share the limit.
//
//	bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	r.With(ratelimiter.Middleware(bucket, ratelimiter.ByRemoteIP)).Post("/login", login)
package ratelimiter
