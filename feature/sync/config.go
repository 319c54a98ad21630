package sync

import "time"

// Config holds configuration for the sync orchestrator.
type Config struct {
	// Enabled turns the periodic scheduler on.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// IntervalMinutes is the wall-clock interval between scheduled runs.
	IntervalMinutes int `mapstructure:"interval_minutes" default:"60"`
	// MemberLimit caps how many members a roster fetch collects.
	MemberLimit int `mapstructure:"member_limit" default:"10000"`
	// WebhookURL is the Discord webhook for sync notifications. Empty
	// disables notifications.
	WebhookURL string `mapstructure:"webhook_url" default:""`
	// SnapshotsEnabled archives a JSON report to object storage after each
	// non-dry run.
	SnapshotsEnabled bool `mapstructure:"snapshots_enabled" default:"false"`
}

// Interval returns the scheduler interval as a duration, defaulting to an
// hour when unconfigured.
func (c Config) Interval() time.Duration {
	if c.IntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}
