package database

// Config holds configuration for the database connection.
type Config struct {
	// Host is the database server hostname.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database server port.
	Port int `mapstructure:"port" default:"3306"`
	// User is the username for authentication.
	User string `mapstructure:"user" default:"root"`
	// Password is the password for authentication.
	Password string `mapstructure:"password" default:""`
	// Name is the name of the database to use.
	Name string `mapstructure:"name" default:"roster"`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
