package model

import "fmt"

// The scraping error taxonomy. Every variant counts as a failed check; the
// orchestrator catches all of them at the per-reservation boundary.

// TransportError wraps a network or timeout failure talking to a browser
// target or the remote-render provider. Recoverable: retried next due cycle.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError is an explicit "reservation not found" signal from the
// remote system. A valid negative result, not a fault, but it still
// increments the failure counter so persistently-vanished reservations
// surface in stats.
type NotFoundError struct {
	Airline     string
	BookingCode string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("reservation %s not found on %s", e.BookingCode, e.Airline)
}

// ExtractionError means the provider responded but no recognizable fields
// could be extracted. RawSample keeps a truncated slice of the page for
// rule-table maintenance.
type ExtractionError struct {
	Airline   string
	RawSample string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no recognizable booking fields extracted from %s page", e.Airline)
}

// AuthenticationError means the logged-in indicator never appeared after a
// login attempt. It never propagates past the session manager boundary as
// anything other than an error value.
type AuthenticationError struct {
	Airline string
	Email   string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("login to %s failed for %s: logged-in indicator not found", e.Airline, e.Email)
}
