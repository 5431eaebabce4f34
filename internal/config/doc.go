// Package config manages application configuration for the arena API.
//
// Configuration is read from environment variables. An optional .env file in
// the working directory is loaded first; variables already present in the
// environment are never overridden by it.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS origins)
//   - StoreConfig: store driver plus Postgres and SurrealDB connection settings
//   - JWTConfig: HMAC secret, issuer and token lifetime
//   - RateLimitConfig: per-actor request rate
//   - JobsConfig: cron schedule of the competition status sync
//   - EligibilityConfig: whether applicants with no region on file may apply
//
// # Environment Variables
//
//	SERVER_PORT                       HTTP port (default: 8080)
//	SERVER_ENV                        development, production or test
//	STORE_DRIVER                      postgres, surrealdb or memory (default: memory)
//	POSTGRES_DSN                      PostgreSQL connection string
//	DB_HOST, DB_PORT, DB_NAMESPACE    SurrealDB endpoint and namespace
//	JWT_SECRET                        HMAC signing secret, at least 32 bytes
//	RATE_LIMIT_RPS, RATE_LIMIT_BURST  per-actor limits, 0 disables
//	STATUS_SYNC_SCHEDULE              cron spec (default: @every 1m)
//	ELIGIBILITY_ALLOW_UNKNOWN_REGION  default: true
package config
