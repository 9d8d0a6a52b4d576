package errors

import "errors"

var (
	ErrSecretUnavailable        = errors.New("api key unavailable")
	ErrIdentityTableUnavailable = errors.New("identity table unavailable")
	ErrNoData                   = errors.New("no data found in message")
	ErrDecodeFailure            = errors.New("failed to decode message payload")
	ErrForwardFailure           = errors.New("failed to forward log")
	ErrMissingSecret            = errors.New("api key is empty")
)
