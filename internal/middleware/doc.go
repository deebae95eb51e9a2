// Package middleware provides HTTP middleware for the Guildhall API.
//
// # Available Middleware
//
//   - RequestID, Logger, Recovery: request tracing and panic safety
//   - CORS, Compress: browser access and gzip responses
//   - Auth, OptionalAuth: token validation from header or cookie
//   - RequireRole: role gate backed by the registry cache
//   - RateLimit: per-caller token buckets
//
// Compose them with Chain:
//
//	h := middleware.Chain(mux,
//		middleware.RequestID,
//		middleware.Recovery,
//		middleware.Logger,
//	)
//
// # Context Values
//
//   - GetUserID(ctx): authenticated user id
//   - GetClaims(ctx): parsed token claims
//   - GetToken(ctx): raw token the claims were parsed from
//   - GetRequestID(ctx): unique request identifier
package middleware
