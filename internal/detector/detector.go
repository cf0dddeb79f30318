// Package detector implements field-by-field drift detection between two
// snapshots of the same reservation.
package detector

import (
	"time"

	"github.com/reservasegura/monitor/internal/model"
)

// Detect compares the stored snapshot against a freshly scraped one and
// returns one typed event per field transition. It is pure and
// deterministic: identical inputs always yield an empty result.
//
// A field is only compared when the incoming value is non-empty — missing
// incoming data means the field was not visible on the page, never that it
// was cleared. Gate, terminal and seat additionally require a non-empty
// previous value, so the first time such a field appears it does not fire
// an event.
func Detect(previous, incoming model.Snapshot, detectedAt time.Time) []model.ChangeEvent {
	var events []model.ChangeEvent

	add := func(field, oldValue, newValue string, severity model.Severity) {
		events = append(events, model.ChangeEvent{
			Field:      field,
			OldValue:   oldValue,
			NewValue:   newValue,
			Severity:   severity,
			DetectedAt: detectedAt,
		})
	}

	if incoming.FlightNumber != "" && incoming.FlightNumber != previous.FlightNumber {
		add(model.FieldFlightNumber, previous.FlightNumber, incoming.FlightNumber, model.SeverityCritical)
	}
	if incoming.Origin != "" && incoming.Origin != previous.Origin {
		add(model.FieldOrigin, previous.Origin, incoming.Origin, model.SeverityCritical)
	}
	if incoming.Destination != "" && incoming.Destination != previous.Destination {
		add(model.FieldDestination, previous.Destination, incoming.Destination, model.SeverityCritical)
	}
	if incoming.Gate != "" && previous.Gate != "" && incoming.Gate != previous.Gate {
		add(model.FieldGate, previous.Gate, incoming.Gate, model.SeverityWarning)
	}
	if incoming.Terminal != "" && previous.Terminal != "" && incoming.Terminal != previous.Terminal {
		add(model.FieldTerminal, previous.Terminal, incoming.Terminal, model.SeverityWarning)
	}
	if incoming.Seat != "" && previous.Seat != "" && incoming.Seat != previous.Seat {
		add(model.FieldSeat, previous.Seat, incoming.Seat, model.SeverityInfo)
	}
	if incoming.DepartureTime != "" && previous.DepartureTime != "" && incoming.DepartureTime != previous.DepartureTime {
		add(model.FieldDepartureTime, previous.DepartureTime, incoming.DepartureTime, model.SeverityWarning)
	}
	if incoming.Status != "" && incoming.Status != previous.Status {
		severity := model.SeverityWarning
		if incoming.Status == model.StatusCancelled {
			severity = model.SeverityCritical
		}
		add(model.FieldStatus, previous.Status, incoming.Status, severity)
	}

	return events
}
