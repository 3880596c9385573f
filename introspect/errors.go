package introspect

import "errors"

var (
	ErrUnsupportedProvider = errors.New("unsupported database provider")
	ErrIntrospectionFailed = errors.New("database introspection failed")
	ErrEmptyIdentifier     = errors.New("identifier must not be empty")
)
