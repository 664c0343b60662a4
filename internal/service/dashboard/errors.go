package dashboard

import "errors"

// Sentinel errors for the dashboard service layer.
var (
	ErrInvalidQuery = errors.New("invalid dashboard query")
)
