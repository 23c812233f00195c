// Package session keeps server-side login state behind an opaque token.
//
// A Manager moves the token through a Transport (bearer header, cookie, or
// both) and persists the Session in a Store. MemoryStore serves tests and
// single-instance setups; RedisStore shares sessions between replicas.
//
// Authenticate rotates the token and records the login name. The tenant
// resolver reads that name back through Manager.Username to find the user's
// home tenant on every later request:
//
//	manager := session.New(session.WithStore(session.NewRedisStore(client, "tenantkit:")))
//
//	r.Use(manager.Middleware)
//	r.Use(tenant.Middleware(tenant.NewDefaultChain(cfg, manager.Username, dir)))
//
// Anonymous requests are not errors: Username returns an empty name when the
// request carries no token or the session has expired.
package session
