// Package config loads the report server configuration from the `server:`
// section of its config file.
//
// Config fields:
//   - HTTPPort          port for the API, /metrics and /ws/stream (default 8080)
//   - LogLevel          debug | info | warn | error (default info)
//   - Auth.Mode         "apikey" or "none"
//   - Auth.KeyEnv       environment variable holding the expected API key
//   - Auth.Header       HTTP header name (default "X-API-Key")
//   - Reports.MaxScopes scopes kept in memory (default 64)
//   - Reports.TTL       idle time before a scope is evicted (default never)
//   - Alerts            site-level threshold rules and webhook targets
//   - Stream.Interval   WebSocket summary broadcast interval (default 30s)
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
