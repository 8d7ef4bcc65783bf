package medsysapi

import "fmt"

// ServerError is a non-2xx response from the MedSys API. Its message is
// already normalized to the "[<status>] <message>" shape the screens show.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("[%d] %s", e.Status, e.Message)
}

// NoResponseError is a request that never received a response: connection
// refused, DNS failure, or the client-side timeout.
type NoResponseError struct {
	Err error
}

func (e *NoResponseError) Error() string { return "no response from server" }

func (e *NoResponseError) Unwrap() error { return e.Err }
