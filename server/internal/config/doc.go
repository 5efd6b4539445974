// Package config loads the relay configuration from an optional YAML file.
//
// Config fields:
//   - Relay.Port            — relay listener port (default 8000)
//   - Relay.FallbackMessage — body served to non-WebSocket requests
//   - Relay.Seed            — free-form initial records (default: one osc-initial @ 440 Hz)
//   - Relay.WS.*            — send buffer, frame size cap, ping interval, write timeout
//   - Admin.Port            — metrics/health listener; 0 disables it
//   - Log.Level/Format      — slog level (debug|info|warn|error) and handler (json|text)
//
// Load(path) applies defaults before unmarshalling, then the RELAY_LOG_LEVEL
// environment override, then validates. Default() is used when no file is given.
//
// Watch(ctx, path, onChange) uses fsnotify to reload the file when it changes.
// Only settings that are safe to change live (the log level) are acted on by
// the server; the rest take effect on restart.
package config
