package records

import "errors"

var (
	ErrUnsupportedFormat  = errors.New("unsupported record format")
	ErrEmptyContent       = errors.New("content is empty")
	ErrInvalidRecords     = errors.New("invalid records")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrQuery              = errors.New("query failed")
)
