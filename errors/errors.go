package errors

import "fmt"

var (
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrEventPanic           = fmt.Errorf("event processing panic")
	ErrMalformedDocument    = fmt.Errorf("malformed configuration document")
	ErrUnauthorized         = fmt.Errorf("sender is not an administrator")
	ErrUnknownCommand       = fmt.Errorf("unknown command")
	ErrDeliveryRejected     = fmt.Errorf("destination rejected the message")
	ErrSourceAuthentication = fmt.Errorf("source platform authentication failed")
	ErrInvalidConfig        = fmt.Errorf("invalid configuration")
)
