package paystack

import "errors"

var (
	ErrNetworkError     = errors.New("network error while calling paystack")
	ErrUnauthorized     = errors.New("paystack rejected the credentials")
	ErrInvalidRequest   = errors.New("invalid paystack request")
	ErrTransactionError = errors.New("paystack transaction error")
)
