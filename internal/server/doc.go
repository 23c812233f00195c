// Package server assembles the tenantkit HTTP surface.
//
// Every request passes through request id, metrics, session, tenant
// resolution, impersonation and principal loading, in that order. The tenant
// and impersonation bindings are released when the request returns.
//
// Routes:
//
//	POST /auth/login           two-phase login, returns a session token
//	POST /auth/logout          destroys the session
//	GET  /me                   principal, effective user and routed pool
//	POST /exports              queues a job on the bound tenant's database
//	POST /admin/pools/reload   super admin only, rebuilds tenant pools
//	GET  /healthz, /readyz     probes
//	GET  /metrics              Prometheus exposition
package server
