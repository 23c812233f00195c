// Package dbrouter is the only path from business code to a tenant database.
//
// Router reads the tenant binding from the context on every call and hands out
// that tenant's pool from the registry. Unbound contexts, and tenants without
// a pool, get the directory pool instead. Because nothing is cached, a rebind
// in the middle of a unit of work (as the login flow does) takes effect on the
// very next call.
//
// Router also implements the ExecContext/QueryContext/QueryRowContext/BeginTx
// set, so stores can take it wherever they would take a *sql.DB.
package dbrouter
