// Package handlers contains HTTP handler interfaces, implementations, and middleware.
//
// This package provides:
//   - Health check interfaces and implementations
//   - Bearer token authentication for player endpoints
//   - API key authentication for staff/ops endpoints
//   - Reusable middleware components
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health checks
// that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(pool))
//	checker.AddCheck("cache", handlers.NewCacheCheck(cache))
//	checker.AddCheck("gemini", handlers.NewExternalAPICheck(geminiClient))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    log.Printf("Health check failed: %s", status.Message)
//	}
//
// # Authentication
//
// Player endpoints use opaque bearer tokens resolved against the token store:
//
//	auth := handlers.NewBearerAuth(tokenStore)
//	protected := auth.Middleware(petHandler)
//
//	// Inside a handler:
//	userID := handlers.UserIDFrom(r.Context())
//
// Staff and operations endpoints use static API keys instead:
//
//	ops := handlers.NewAPIKeyAuth("X-API-Key", []string{"secret-key"})
//	opsOnly := ops.Middleware(sessionsHandler)
//
// # Middleware
//
// The package provides several reusable middleware components:
//
//	// Request timeout
//	withTimeout := handlers.TimeoutMiddleware(30 * time.Second)(myHandler)
//
//	// Security headers
//	secure := handlers.SecurityHeadersMiddleware(myHandler)
//
//	// Chain multiple middleware
//	handler := handlers.ChainHandler(
//	    myHandler,
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.NoCacheMiddleware,
//	    auth.Middleware,
//	)
//
// When using middleware:
//   - Apply security middleware early in the chain
//   - Apply authentication before authorization
//   - Use request size limits on endpoints that accept bodies
//   - Add proper timeout handling for all endpoints
package handlers
