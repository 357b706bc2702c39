package query

import "errors"

// Query state decoding errors.
var (
	// ErrInvalidToken is returned when an order or where token is malformed.
	ErrInvalidToken = errors.New("invalid query token")

	// ErrInvalidOperator is returned for where operators outside eq, neq, gt, gte, lt, lte, like.
	ErrInvalidOperator = errors.New("invalid filter operator")

	// ErrInvalidDirection is returned for sort directions other than asc and desc.
	ErrInvalidDirection = errors.New("invalid sort direction")

	// ErrInvalidView is returned for unknown view or chart view values.
	ErrInvalidView = errors.New("invalid view")

	// ErrInvalidNumber is returned when a numeric field cannot be parsed.
	ErrInvalidNumber = errors.New("invalid number")
)
