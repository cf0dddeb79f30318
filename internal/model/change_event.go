package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Severity classifies how operationally significant a detected drift is.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Fields a change event can refer to.
const (
	FieldFlightNumber  = "flightNumber"
	FieldOrigin        = "origin"
	FieldDestination   = "destination"
	FieldGate          = "gate"
	FieldTerminal      = "terminal"
	FieldSeat          = "seat"
	FieldStatus        = "status"
	FieldDepartureTime = "departureTime"
)

// ChangeEvent is an immutable, append-only record of one field transition
// observed in exactly one check cycle.
type ChangeEvent struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReservationID primitive.ObjectID `json:"reservation_id" bson:"reservation_id"`
	BookingCode   string             `json:"booking_code" bson:"booking_code"`
	Field         string             `json:"field" bson:"field"`
	OldValue      string             `json:"old_value,omitempty" bson:"old_value,omitempty"`
	NewValue      string             `json:"new_value" bson:"new_value"`
	Severity      Severity           `json:"severity" bson:"severity"`
	DetectedAt    time.Time          `json:"detected_at" bson:"detected_at"`
}

// NotificationType derives the notification type string for this event,
// e.g. "FLIGHTNUMBER_CHANGED".
func (e ChangeEvent) NotificationType() string {
	return strings.ToUpper(e.Field) + "_CHANGED"
}

// Priority maps the event severity to a notification priority.
func (e ChangeEvent) Priority() string {
	switch e.Severity {
	case SeverityCritical:
		return PriorityUrgent
	case SeverityWarning:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}
