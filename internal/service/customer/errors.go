package customer

import "errors"

// Sentinel errors for the customer service layer.
var (
	ErrNotFound   = errors.New("customer not found")
	ErrNoContact  = errors.New("customer needs an email or phone number")
	ErrNameNeeded = errors.New("full_name is required")
)
