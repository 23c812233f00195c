// Package async runs background work that outlives the request which
// started it.
//
// A task started with Go, Async or Pool.Submit gets a context that is not
// cancelled with the request and carries its own copies of the tenant and
// impersonation bindings visible at launch. The copies are released when the
// task ends. A task that rebinds the tenant changes only its own copy, and a
// request that finishes first does not unbind the task.
//
//	f, err := jobs.Submit(r.Context(), "export", func(ctx context.Context) error {
//		_, err := router.ExecContext(ctx, "INSERT INTO exports (requested_by) VALUES ($1)", userID)
//		return err
//	})
//
// Pool bounds concurrency with a weighted semaphore. Panics inside a task
// complete its Future with ErrTaskPanic.
package async
