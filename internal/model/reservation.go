package model

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking statuses observed on airline pages. Anything outside the
// trackable set is terminal and excluded from monitoring cycles.
const (
	StatusConfirmed = "CONFIRMED"
	StatusPending   = "PENDING"
	StatusCheckedIn = "CHECKED_IN"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

// TrackableStatuses lists booking statuses that still warrant monitoring.
var TrackableStatuses = []string{StatusConfirmed, StatusPending, StatusCheckedIn}

// MonitoredReservation represents a third-party airline booking tracked on
// behalf of a user. The natural key is (airline, booking_code, last_name).
type MonitoredReservation struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Airline     string             `json:"airline" bson:"airline"`
	BookingCode string             `json:"booking_code" bson:"booking_code"`
	LastName    string             `json:"last_name" bson:"last_name"`

	// Snapshot fields, refreshed every check cycle.
	FlightNumber  string    `json:"flight_number" bson:"flight_number"`
	Origin        string    `json:"origin" bson:"origin"`
	Destination   string    `json:"destination" bson:"destination"`
	DepartureDate time.Time `json:"departure_date" bson:"departure_date"`
	DepartureTime string    `json:"departure_time,omitempty" bson:"departure_time,omitempty"`
	Gate          string    `json:"gate,omitempty" bson:"gate,omitempty"`
	Terminal      string    `json:"terminal,omitempty" bson:"terminal,omitempty"`
	Seat          string    `json:"seat,omitempty" bson:"seat,omitempty"`
	BookingStatus string    `json:"booking_status" bson:"booking_status"`

	// Control fields.
	MonitoringEnabled   bool       `json:"monitoring_enabled" bson:"monitoring_enabled"`
	LastCheckedAt       *time.Time `json:"last_checked_at,omitempty" bson:"last_checked_at,omitempty"`
	LastUpdatedAt       *time.Time `json:"last_updated_at,omitempty" bson:"last_updated_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures" bson:"consecutive_failures"`
	LastFailureReason   string     `json:"last_failure_reason,omitempty" bson:"last_failure_reason,omitempty"`

	// Provider-specific leftovers kept for forensic/debug use only.
	RawPayload        string `json:"-" bson:"raw_payload,omitempty"`
	RawPayloadVersion int    `json:"-" bson:"raw_payload_version,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Normalize upper-cases the identity and route fields so that the natural
// key is insensitive to how the user typed it.
func (r *MonitoredReservation) Normalize() {
	r.Airline = strings.ToUpper(strings.TrimSpace(r.Airline))
	r.BookingCode = strings.ToUpper(strings.TrimSpace(r.BookingCode))
	r.LastName = strings.ToUpper(strings.TrimSpace(r.LastName))
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
}

// Validate checks that the identity fields are present.
func (r *MonitoredReservation) Validate() error {
	if r.Airline == "" {
		return errors.New("airline is required")
	}
	if r.BookingCode == "" {
		return errors.New("booking code is required")
	}
	if r.LastName == "" {
		return errors.New("last name is required")
	}
	return nil
}

// Trackable reports whether the reservation is still worth checking.
func (r *MonitoredReservation) Trackable() bool {
	for _, s := range TrackableStatuses {
		if r.BookingStatus == s {
			return true
		}
	}
	return false
}

// Snapshot returns the current stored state as a comparable snapshot.
func (r *MonitoredReservation) Snapshot() Snapshot {
	return Snapshot{
		Airline:       r.Airline,
		FlightNumber:  r.FlightNumber,
		Origin:        r.Origin,
		Destination:   r.Destination,
		DepartureTime: r.DepartureTime,
		Gate:          r.Gate,
		Terminal:      r.Terminal,
		Seat:          r.Seat,
		Status:        r.BookingStatus,
	}
}

// ApplySnapshot merges freshly scraped fields into the stored state.
// Empty incoming fields never clear stored values.
func (r *MonitoredReservation) ApplySnapshot(s Snapshot) {
	if s.FlightNumber != "" {
		r.FlightNumber = s.FlightNumber
	}
	if s.Origin != "" {
		r.Origin = strings.ToUpper(s.Origin)
	}
	if s.Destination != "" {
		r.Destination = strings.ToUpper(s.Destination)
	}
	if s.DepartureTime != "" {
		r.DepartureTime = s.DepartureTime
	}
	if s.Gate != "" {
		r.Gate = s.Gate
	}
	if s.Terminal != "" {
		r.Terminal = s.Terminal
	}
	if s.Seat != "" {
		r.Seat = s.Seat
	}
	if s.Status != "" {
		r.BookingStatus = s.Status
	}
}

// ReservationView is the representation returned to collaborators.
type ReservationView struct {
	ID                  string     `json:"id"`
	Airline             string     `json:"airline"`
	BookingCode         string     `json:"booking_code"`
	LastName            string     `json:"last_name"`
	FlightNumber        string     `json:"flight_number"`
	Origin              string     `json:"origin"`
	Destination         string     `json:"destination"`
	DepartureDate       time.Time  `json:"departure_date"`
	Gate                string     `json:"gate,omitempty"`
	Terminal            string     `json:"terminal,omitempty"`
	Seat                string     `json:"seat,omitempty"`
	Status              string     `json:"status"`
	MonitoringEnabled   bool       `json:"monitoring_enabled"`
	LastCheckedAt       *time.Time `json:"last_checked_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	NextCheckInMinutes  int        `json:"next_check_in_minutes"`
}

// ToView converts the reservation for API responses. nextCheckIn is
// computed by the caller from the adaptive schedule.
func (r *MonitoredReservation) ToView(nextCheckInMinutes int) ReservationView {
	return ReservationView{
		ID:                  r.ID.Hex(),
		Airline:             r.Airline,
		BookingCode:         r.BookingCode,
		LastName:            r.LastName,
		FlightNumber:        r.FlightNumber,
		Origin:              r.Origin,
		Destination:         r.Destination,
		DepartureDate:       r.DepartureDate,
		Gate:                r.Gate,
		Terminal:            r.Terminal,
		Seat:                r.Seat,
		Status:              r.BookingStatus,
		MonitoringEnabled:   r.MonitoringEnabled,
		LastCheckedAt:       r.LastCheckedAt,
		ConsecutiveFailures: r.ConsecutiveFailures,
		NextCheckInMinutes:  nextCheckInMinutes,
	}
}
