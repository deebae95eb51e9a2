// Package config loads and validates configuration for the guildhall API.
//
// All settings come from environment variables, parsed into nested structs
// with github.com/caarlos0/env:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Configuration Groups
//
//   - ServerConfig: port, timeouts, CORS origins
//   - StoreConfig: STORE_DRIVER selects surrealdb or badger
//   - DatabaseConfig / BadgerConfig: settings for each driver
//   - JWTConfig: token secret or key pair, cookie name
//   - EventsConfig, RateLimitConfig, AuditConfig
//
// Validate reports every problem at once using errors.Join.
package config
