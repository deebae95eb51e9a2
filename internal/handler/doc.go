// Package handler provides HTTP request handlers for the Guildhall API.
//
// Each handler wraps the registry service for one resource and registers
// its own routes on a ServeMux:
//
//	guilds := handler.NewGuildHandler(registry)
//	guilds.RegisterRoutes(mux, handler.Guards{Auth: auth, Users: registry})
//
// Reads are public. Writes pass through Guards, which require a token and,
// for most routes, the observer role.
//
// # Response Format
//
//   - WriteData: {"data": ...} for a single resource
//   - WriteCollection: {"data": [...], "count": n}
//   - WriteError: RFC 9457 Problem Details
//
// Service errors are mapped by MapServiceError: not found to 404, conflict
// to 409, bad request to 400, anything else to 500.
//
// # Login
//
// GET /v1/auth runs the OAuth code flow when a provider is configured and
// stores the signed token in the auth cookie. GET /v1/auth/logout expires
// it again. Redirects stay on this site or an allowed origin.
//
// # Change Streams
//
// GET /v1/events (SSE) and GET /socket (websocket) both start with an INIT
// event carrying a full snapshot, then relay every committed change.
package handler
