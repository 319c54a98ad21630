// Package sync implements bidirectional roster reconciliation against the
// remote Roblox group.
//
// The remote-to-local direction is the primary flow: the Engine compares a
// freshly fetched group roster against the local member table and produces a
// Plan of storage mutations plus per-pass statistics. Planning is pure, so a
// dry run is an exact preview of a real run. The Orchestrator owns the entry
// points around the engine: manual runs, the periodic scheduler, webhook
// notifications, snapshot archival, and the Guard that keeps passes from
// overlapping.
//
// The local-to-remote direction is a set of targeted pushes (rank change,
// add, remove) invoked after local mutations. Pushes defer to an in-flight
// pull so a pull can never echo back into provider writes.
package sync
