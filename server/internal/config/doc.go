// Package config loads the calculator service configuration.
//
// Config fields:
//   - Server.HTTPPort        — calculator API, WebSocket and /metrics (default 8080)
//   - Server.GRPCPort        — gRPC health service, 0 disables (default 50051)
//   - Server.LogLevel        — debug | info | warn | error (default info)
//   - Server.ShutdownTimeout — graceful HTTP shutdown bound (default 10s)
//   - Validation.Policy      — strict (creatinine 0.1–15, age 18–120) or
//     lenient (creatinine 0.01–40, age 1–120)
//   - Validation.*Min/*Max   — per-bound overrides; zero keeps the policy value
//   - Result.Rounding        — half_away | half_even (default half_away)
//
// Load(path) applies defaults, then the YAML file (if path is non-empty),
// then MDRD_* environment variables via caarlos0/env, then validates.
//
// Watch(ctx, path, onChange) uses fsnotify to reload the file on change so
// the validation policy and rounding mode can be adjusted without a restart.
package config
