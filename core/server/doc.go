// Package server holds the HTTP server configuration.
//
// The server surface is intentionally thin: a manual sync trigger, rank
// mapping administration, and member rank actions. Every endpoint is
// protected by the API key middleware.
package server
