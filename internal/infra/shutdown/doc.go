// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT/SIGTERM, a programmatic Trigger (for
// example a listener that failed at runtime) or context cancellation,
// then runs the registered hooks in reverse order of registration under
// a shared timeout.
//
// Usage:
//
//	h := shutdown.NewHandler(10*time.Second, shutdown.WithLogger(log))
//	h.OnShutdown("redis", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
