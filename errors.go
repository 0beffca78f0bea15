package tabformula

import "errors"

var (
	// ErrConfigValidation is returned when configuration validation fails
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrUnknownDatabase indicates a connection name missing from the databases section.
	ErrUnknownDatabase = errors.New("database is not configured")
)
