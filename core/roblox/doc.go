// Package roblox provides the authenticated, rate-limited client for the
// Roblox group API.
//
// All network interaction with the remote roster provider goes through this
// package: roster pagination, role reads and writes, membership mutations,
// and username resolution.
//
// # Failure Semantics
//
// Expected failure modes (expired cookie, missing permission, unknown user,
// exhausted rate-limit budget) are returned as *Error values carrying a
// closed Reason set. Callers switch on ReasonOf(err) instead of matching
// message strings.
//
// # Retries
//
// Transport failures retry up to three attempts with linear backoff and a
// fresh connection pool per attempt. A 429 waits a fixed 60 seconds inside
// the same attempt budget. 401 and 403 are not retried, except that a 403 on
// a write refreshes the anti-forgery token from the response header and
// retries that write exactly once.
//
// # Rate Limiting
//
// One minimum inter-request delay is shared across all calls on a client
// instance; every outbound call blocks until it has elapsed.
package roblox
