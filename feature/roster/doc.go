// Package roster exposes the member roster over HTTP and owns its
// persistence.
//
// The Store is the single write path to the member tables: handlers go
// through it for manual mutations and the sync engine commits its plans
// through the same code. Local rank mutations trigger a best-effort push to
// the remote group via the sync orchestrator.
package roster
