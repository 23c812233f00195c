// Package directory reads the shared directory database: which tenant a login
// name belongs to and how to reach every active tenant database.
//
// SQLStore runs against the directory pool (tables global_users and
// tenant_datasources). CachedStore puts an expiring LRU in front of user
// lookups for the session resolver, which consults the directory on every
// authenticated request.
package directory
