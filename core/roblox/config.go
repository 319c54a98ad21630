package roblox

// Config holds configuration for the Roblox group API client.
type Config struct {
	// GroupID is the numeric ID of the Roblox group to sync against.
	GroupID int64 `mapstructure:"group_id" default:"0"`
	// Cookie is the .ROBLOSECURITY session cookie for write operations.
	Cookie string `mapstructure:"cookie" default:""`
	// GroupsURL is the base URL of the groups API.
	GroupsURL string `mapstructure:"groups_url" default:"https://groups.roblox.com/v1"`
	// UsersURL is the base URL of the users API.
	UsersURL string `mapstructure:"users_url" default:"https://users.roblox.com/v1"`
	// AuthURL is the base URL of the auth API (used to obtain CSRF tokens).
	AuthURL string `mapstructure:"auth_url" default:"https://auth.roblox.com/v2"`
	// TimeoutSeconds is the per-request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// IsConfigured reports whether the client has enough configuration to talk
// to the API at all. Write operations additionally require Cookie.
func (c Config) IsConfigured() bool {
	return c.GroupID > 0
}
