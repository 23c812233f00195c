// Package dbpool builds and owns one connection pool per active tenant.
//
// The pools are built from the tenant_datasources rows of the directory
// database. Each row is opened independently through an Opener (pgx for
// postgres rows, go-sql-driver for mysql rows), tuned from its own columns and
// checked with its validation query. What happens when a row cannot be opened
// is decided by the FailurePolicy: PolicySkip leaves that tenant out and logs
// a warning, PolicyFailFast aborts the build.
//
// Readers get an immutable Snapshot through an atomic pointer, so Lookup never
// blocks on a reload:
//
//	reg, report, err := dbpool.Build(ctx, directoryDB, store, dbpool.DefaultOpener(),
//		dbpool.WithConfig(cfg),
//		dbpool.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//	defer reg.Close()
//
//	db, ok := reg.Lookup("acme")
//
// Reload re-reads the rows, reuses pools whose row did not change, swaps the
// new snapshot in and closes the pools that were dropped. Request code never
// closes a pool it obtained from the registry.
package dbpool
