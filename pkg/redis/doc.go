// Package redis connects to the Redis server that backs shared session state.
//
// Connect parses a redis:// URL, pings with retries and returns a go-redis
// client. Healthcheck adapts the client to the readiness probe signature.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := session.NewRedisStore(client, cfg.KeyPrefix)
package redis
