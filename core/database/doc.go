// Package database provides the MySQL connection used by the roster store.
//
// It wraps GORM connection setup with sane pool limits and connection
// verification. Schema migration for the roster models lives with the models
// themselves (feature/roster/models).
package database
