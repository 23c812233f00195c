// Package pg opens PostgreSQL pools with the pgx/v5 driver and exposes them as
// *sql.DB, so the directory pool and every Postgres tenant pool share one
// handle type with MySQL tenants.
//
// Config is populated from the environment for the directory database and
// built from tenant_datasources rows for tenant databases. Connect retries
// with a growing wait; OpenDB wraps the resulting pool so that closing the
// *sql.DB also closes the pgx pool.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	db, err := pg.OpenDB(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
// Healthcheck adapts any pool to the func(context.Context) error shape used by
// the readiness endpoint. The Is*Error helpers classify pgx errors.
package pg
