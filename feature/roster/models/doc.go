// Package models defines the GORM models for the community roster: members,
// activity logs, the append-only promotion audit trail, and the
// operator-maintained rank mappings used by the sync engine.
package models
