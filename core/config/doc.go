// Package config loads the application configuration.
//
// Configuration is composed from the partial configs of each subsystem and
// populated from environment variables, with an optional .env file for local
// development. Defaults come from the 'default' struct tags on each partial
// config, so every key is registered with viper and overridable via
// environment (e.g. SYNC_INTERVAL_MINUTES maps to sync.interval_minutes).
package config
