package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reservasegura/monitor/internal/database"
	"github.com/reservasegura/monitor/internal/detector"
	"github.com/reservasegura/monitor/internal/model"
	"github.com/reservasegura/monitor/internal/rules"
	"github.com/reservasegura/monitor/internal/scheduler"
	"github.com/reservasegura/monitor/pkg/metrics"
)

// failureReasonLimit bounds stored failure reasons.
const failureReasonLimit = 500

// changeHistoryLimit caps the events returned per booking.
const changeHistoryLimit = 50

// MonitoringService implements the reservation-tracking surface exposed to
// collaborators and the per-reservation check used by the worker.
type MonitoringService struct {
	reservations  ReservationStore
	events        ChangeEventStore
	notifications NotificationStore
	accounts      AccountStore
	lookup        LookupClient
	sessions      SessionSource
	fetcher       BookingFetcher
	decrypter     PasswordDecrypter
	metrics       *metrics.Metrics
	now           func() time.Time
}

// NewMonitoringService wires the monitoring service.
func NewMonitoringService(
	reservations ReservationStore,
	events ChangeEventStore,
	notifications NotificationStore,
	accounts AccountStore,
	lookup LookupClient,
	sessions SessionSource,
	fetcher BookingFetcher,
	decrypter PasswordDecrypter,
	m *metrics.Metrics,
) *MonitoringService {
	return &MonitoringService{
		reservations:  reservations,
		events:        events,
		notifications: notifications,
		accounts:      accounts,
		lookup:        lookup,
		sessions:      sessions,
		fetcher:       fetcher,
		decrypter:     decrypter,
		metrics:       m,
		now:           time.Now,
	}
}

// RegisterInput is the registration request.
type RegisterInput struct {
	Airline       string     `json:"airline"`
	BookingCode   string     `json:"booking_code"`
	LastName      string     `json:"last_name"`
	Origin        string     `json:"origin,omitempty"`
	Destination   string     `json:"destination,omitempty"`
	FlightNumber  string     `json:"flight_number,omitempty"`
	DepartureDate *time.Time `json:"departure_date,omitempty"`
}

// ListFilters narrows List results.
type ListFilters struct {
	Airline    string
	Status     string
	ActiveOnly bool
}

// CheckResult is the response of a manual check.
type CheckResult struct {
	Success            bool                `json:"success"`
	Error              string              `json:"error,omitempty"`
	Changes            []model.ChangeEvent `json:"changes"`
	NextCheckInMinutes int                 `json:"next_check_in_minutes,omitempty"`
}

// StatsView is the monitoring statistics response.
type StatsView struct {
	Total                int64            `json:"total"`
	Active               int64            `json:"active"`
	Paused               int64            `json:"paused"`
	ByAirline            map[string]int64 `json:"by_airline"`
	TotalChangesDetected int64            `json:"total_changes_detected"`
	LastCheckAt          *time.Time       `json:"last_check_at,omitempty"`
}

// Register adds a reservation to monitoring, performing an immediate
// best-effort first check. Registering an existing (airline, bookingCode,
// lastName) reactivates the stored reservation instead of duplicating it.
// A scraping miss never fails registration; the reservation is created
// anyway so monitoring can retry later.
func (s *MonitoringService) Register(ctx context.Context, input RegisterInput) (model.ReservationView, error) {
	res := &model.MonitoredReservation{
		Airline:     input.Airline,
		BookingCode: input.BookingCode,
		LastName:    input.LastName,
		Origin:      input.Origin,
		Destination: input.Destination,
	}
	res.Normalize()
	if err := res.Validate(); err != nil {
		return model.ReservationView{}, err
	}

	r, ok := rules.Lookup(res.Airline)
	if !ok {
		return model.ReservationView{}, fmt.Errorf("unsupported airline: %s", res.Airline)
	}
	res.Airline = r.Code

	slog.Info("Registering reservation",
		"airline", res.Airline,
		"booking_code", res.BookingCode,
		"last_name", res.LastName,
	)

	now := s.now().UTC()

	existing, err := s.reservations.GetByNaturalKey(ctx, res.Airline, res.BookingCode, res.LastName)
	if err == nil {
		existing.MonitoringEnabled = true
		existing.ConsecutiveFailures = 0
		existing.LastFailureReason = ""
		if res.Origin != "" {
			existing.Origin = res.Origin
		}
		if err := s.reservations.Update(ctx, existing); err != nil {
			return model.ReservationView{}, err
		}
		slog.Info("Reservation reactivated", "booking_code", existing.BookingCode)
		return existing.ToView(s.nextCheckInMinutes(existing, now)), nil
	}
	if !errors.Is(err, database.ErrReservationNotFound) {
		return model.ReservationView{}, err
	}

	// First best-effort check through the public lookup path.
	snapshot, scrapeErr := s.lookup.Search(ctx, res.Airline, res.BookingCode, res.LastName, res.Origin)

	res.FlightNumber = firstNonEmpty(input.FlightNumber, snapshot.FlightNumber, r.FlightPrefix+"0000")
	res.Origin = firstNonEmpty(res.Origin, snapshot.Origin, "N/A")
	res.Destination = firstNonEmpty(res.Destination, snapshot.Destination, "N/A")
	res.BookingStatus = firstNonEmpty(snapshot.Status, model.StatusConfirmed)
	res.DepartureTime = snapshot.DepartureTime
	res.MonitoringEnabled = true
	res.LastCheckedAt = &now
	res.CreatedAt = now
	res.UpdatedAt = now

	if input.DepartureDate != nil {
		res.DepartureDate = *input.DepartureDate
	} else {
		// Unknown departure: assume a week out until a real date is scraped.
		res.DepartureDate = now.Add(7 * 24 * time.Hour)
	}

	if scrapeErr != nil {
		res.ConsecutiveFailures = 1
		res.LastFailureReason = truncateReason(scrapeErr.Error())
		slog.Warn("First check failed, registering anyway",
			"booking_code", res.BookingCode,
			"error", scrapeErr,
		)
	} else if raw, err := json.Marshal(snapshot); err == nil {
		res.RawPayload = string(raw)
		res.RawPayloadVersion = rules.Version
	}

	if err := s.reservations.Create(ctx, res); err != nil {
		return model.ReservationView{}, err
	}

	slog.Info("Reservation registered",
		"booking_code", res.BookingCode,
		"next_check_in_minutes", s.nextCheckInMinutes(res, now),
	)
	return res.ToView(s.nextCheckInMinutes(res, now)), nil
}

// List returns reservations matching the filters.
func (s *MonitoringService) List(ctx context.Context, filters ListFilters) ([]model.ReservationView, error) {
	filter := bson.M{}
	if filters.Airline != "" {
		if r, ok := rules.Lookup(filters.Airline); ok {
			filter["airline"] = r.Code
		} else {
			filter["airline"] = filters.Airline
		}
	}
	if filters.Status != "" {
		filter["booking_status"] = filters.Status
	}
	if filters.ActiveOnly {
		filter["monitoring_enabled"] = true
		filter["departure_date"] = bson.M{"$gte": s.now().UTC()}
	}

	reservations, err := s.reservations.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	views := make([]model.ReservationView, 0, len(reservations))
	for i := range reservations {
		views = append(views, reservations[i].ToView(s.nextCheckInMinutes(&reservations[i], now)))
	}
	return views, nil
}

// CheckNow runs one synchronous check of the reservation, independent of
// the schedule.
func (s *MonitoringService) CheckNow(ctx context.Context, id string) (CheckResult, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return CheckResult{}, fmt.Errorf("invalid reservation ID: %w", err)
	}

	res, err := s.reservations.GetByID(ctx, objID)
	if err != nil {
		return CheckResult{}, err
	}

	changes, checkErr := s.Check(ctx, res)
	if checkErr != nil {
		return CheckResult{Success: false, Error: checkErr.Error()}, nil
	}

	return CheckResult{
		Success:            true,
		Changes:            changes,
		NextCheckInMinutes: s.nextCheckInMinutes(res, s.now().UTC()),
	}, nil
}

// Check fetches a fresh snapshot for the reservation, detects drift,
// persists events and notifications, and updates snapshot and control
// fields. It is the single check path shared by CheckNow and the worker.
func (s *MonitoringService) Check(ctx context.Context, res *model.MonitoredReservation) ([]model.ChangeEvent, error) {
	slog.Info("Checking reservation",
		"airline", res.Airline,
		"booking_code", res.BookingCode,
	)

	snapshot, err := s.fetchSnapshot(ctx, res)
	if err != nil {
		s.recordFailure(ctx, res, err)
		return nil, err
	}

	now := s.now().UTC()
	changes := detector.Detect(res.Snapshot(), snapshot, now)
	for i := range changes {
		changes[i].ReservationID = res.ID
		changes[i].BookingCode = res.BookingCode
	}

	if len(changes) > 0 {
		slog.Info("Drift detected",
			"booking_code", res.BookingCode,
			"changes", len(changes),
		)
		if err := s.events.Append(ctx, changes); err != nil {
			return nil, err
		}
		for _, change := range changes {
			if err := s.notifications.Insert(ctx, model.NotificationFromChange(change)); err != nil {
				slog.Error("Failed to insert notification",
					"booking_code", res.BookingCode,
					"field", change.Field,
					"error", err,
				)
			}
			if s.metrics != nil {
				s.metrics.ChangesDetected.WithLabelValues(change.Field, string(change.Severity)).Inc()
			}
		}
	}

	res.ApplySnapshot(snapshot)
	res.LastCheckedAt = &now
	res.ConsecutiveFailures = 0
	res.LastFailureReason = ""
	if len(changes) > 0 {
		res.LastUpdatedAt = &now
	}
	if raw, err := json.Marshal(snapshot); err == nil {
		res.RawPayload = string(raw)
		res.RawPayloadVersion = rules.Version
	}

	if err := s.reservations.Update(ctx, res); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ReservationsChecked.Inc()
	}

	return changes, nil
}

// fetchSnapshot resolves the scraping path: an authenticated session when
// the user linked an account for this airline, the remote-render lookup
// client otherwise.
func (s *MonitoringService) fetchSnapshot(ctx context.Context, res *model.MonitoredReservation) (model.Snapshot, error) {
	account, err := s.accounts.GetByAirline(ctx, res.Airline)
	if err != nil {
		if !errors.Is(err, database.ErrAccountNotFound) {
			return model.Snapshot{}, err
		}
		return s.lookup.Search(ctx, res.Airline, res.BookingCode, res.LastName, res.Origin)
	}

	bundle, ok := s.sessions.Get(res.Airline, account.Email)
	if !ok {
		password, err := s.decrypter.Decrypt(account.EncryptedPassword)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("failed to decrypt account password: %w", err)
		}
		bundle, err = s.sessions.Login(ctx, res.Airline, account.Email, password)
		if err != nil {
			return model.Snapshot{}, err
		}
	}

	snapshot, err := s.fetcher.FetchBooking(ctx, bundle, res.BookingCode)
	if err != nil {
		// A stale session looks like a missing booking; drop the bundle so
		// the next attempt logs in fresh.
		var notFound *model.NotFoundError
		if errors.As(err, &notFound) {
			s.sessions.Invalidate(res.Airline, account.Email)
		}
		return model.Snapshot{}, err
	}
	return snapshot, nil
}

// recordFailure updates control fields after a failed check. The counter
// only ever resets on success or explicit resume.
func (s *MonitoringService) recordFailure(ctx context.Context, res *model.MonitoredReservation, cause error) {
	now := s.now().UTC()
	res.LastCheckedAt = &now
	res.ConsecutiveFailures++
	res.LastFailureReason = truncateReason(cause.Error())

	if err := s.reservations.Update(ctx, res); err != nil {
		slog.Error("Failed to record check failure",
			"booking_code", res.BookingCode,
			"error", err,
		)
	}
	if s.metrics != nil {
		s.metrics.CheckErrors.WithLabelValues(errorKind(cause)).Inc()
	}

	slog.Warn("Check failed",
		"booking_code", res.BookingCode,
		"consecutive_failures", res.ConsecutiveFailures,
		"error", cause,
	)
}

// Pause disables monitoring; all state is retained.
func (s *MonitoringService) Pause(ctx context.Context, id string) error {
	res, err := s.getByHexID(ctx, id)
	if err != nil {
		return err
	}
	res.MonitoringEnabled = false
	if err := s.reservations.Update(ctx, res); err != nil {
		return err
	}
	slog.Info("Monitoring paused", "booking_code", res.BookingCode)
	return nil
}

// Resume re-enables monitoring and resets the failure counter.
func (s *MonitoringService) Resume(ctx context.Context, id string) error {
	res, err := s.getByHexID(ctx, id)
	if err != nil {
		return err
	}
	res.MonitoringEnabled = true
	res.ConsecutiveFailures = 0
	res.LastFailureReason = ""
	if err := s.reservations.Update(ctx, res); err != nil {
		return err
	}
	slog.Info("Monitoring resumed", "booking_code", res.BookingCode)
	return nil
}

// Remove deletes the reservation. Removal is always explicit; monitoring
// never auto-deletes.
func (s *MonitoringService) Remove(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid reservation ID: %w", err)
	}
	if err := s.reservations.Delete(ctx, objID); err != nil {
		return err
	}
	slog.Info("Reservation removed", "id", id)
	return nil
}

// ChangeHistory returns the drift events for a booking, most recent first.
func (s *MonitoringService) ChangeHistory(ctx context.Context, bookingCode string) ([]model.ChangeEvent, error) {
	return s.events.ListByBookingCode(ctx, normalizeCode(bookingCode), changeHistoryLimit)
}

// Stats aggregates monitoring statistics.
func (s *MonitoringService) Stats(ctx context.Context) (StatsView, error) {
	now := s.now().UTC()

	total, active, paused, byAirline, lastCheckAt, err := s.reservations.Stats(ctx, now)
	if err != nil {
		return StatsView{}, err
	}
	totalChanges, err := s.events.Count(ctx)
	if err != nil {
		return StatsView{}, err
	}

	return StatsView{
		Total:                total,
		Active:               active,
		Paused:               paused,
		ByAirline:            byAirline,
		TotalChangesDetected: totalChanges,
		LastCheckAt:          lastCheckAt,
	}, nil
}

func (s *MonitoringService) getByHexID(ctx context.Context, id string) (*model.MonitoredReservation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation ID: %w", err)
	}
	return s.reservations.GetByID(ctx, objID)
}

func (s *MonitoringService) nextCheckInMinutes(res *model.MonitoredReservation, now time.Time) int {
	return int(scheduler.NextInterval(res.DepartureDate, now).Minutes())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateReason(reason string) string {
	if len(reason) > failureReasonLimit {
		return reason[:failureReasonLimit]
	}
	return reason
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// errorKind maps the error taxonomy to a metrics label.
func errorKind(err error) string {
	var transport *model.TransportError
	var notFound *model.NotFoundError
	var extraction *model.ExtractionError
	var auth *model.AuthenticationError

	switch {
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &extraction):
		return "extraction"
	case errors.As(err, &auth):
		return "authentication"
	default:
		return "other"
	}
}
