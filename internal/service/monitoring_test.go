package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reservasegura/monitor/internal/database"
	"github.com/reservasegura/monitor/internal/model"
)

// In-memory fakes for the persistence and scraping boundaries.

type fakeReservationStore struct {
	items map[primitive.ObjectID]*model.MonitoredReservation
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{items: make(map[primitive.ObjectID]*model.MonitoredReservation)}
}

func (f *fakeReservationStore) Create(_ context.Context, res *model.MonitoredReservation) error {
	for _, existing := range f.items {
		if existing.Airline == res.Airline &&
			existing.BookingCode == res.BookingCode &&
			existing.LastName == res.LastName {
			return errors.New("reservation already registered")
		}
	}
	res.ID = primitive.NewObjectID()
	clone := *res
	f.items[res.ID] = &clone
	return nil
}

func (f *fakeReservationStore) GetByID(_ context.Context, id primitive.ObjectID) (*model.MonitoredReservation, error) {
	res, ok := f.items[id]
	if !ok {
		return nil, database.ErrReservationNotFound
	}
	clone := *res
	return &clone, nil
}

func (f *fakeReservationStore) GetByNaturalKey(_ context.Context, airline, bookingCode, lastName string) (*model.MonitoredReservation, error) {
	for _, res := range f.items {
		if res.Airline == airline && res.BookingCode == bookingCode && res.LastName == lastName {
			clone := *res
			return &clone, nil
		}
	}
	return nil, database.ErrReservationNotFound
}

func (f *fakeReservationStore) List(_ context.Context, _ bson.M) ([]model.MonitoredReservation, error) {
	out := make([]model.MonitoredReservation, 0, len(f.items))
	for _, res := range f.items {
		out = append(out, *res)
	}
	return out, nil
}

func (f *fakeReservationStore) Update(_ context.Context, res *model.MonitoredReservation) error {
	if _, ok := f.items[res.ID]; !ok {
		return database.ErrReservationNotFound
	}
	clone := *res
	f.items[res.ID] = &clone
	return nil
}

func (f *fakeReservationStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.items[id]; !ok {
		return database.ErrReservationNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeReservationStore) FindDue(_ context.Context, windowStart, windowEnd time.Time) ([]model.MonitoredReservation, error) {
	var out []model.MonitoredReservation
	for _, res := range f.items {
		if res.MonitoringEnabled && res.Trackable() &&
			!res.DepartureDate.Before(windowStart) && !res.DepartureDate.After(windowEnd) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (f *fakeReservationStore) Stats(_ context.Context, _ time.Time) (int64, int64, int64, map[string]int64, *time.Time, error) {
	byAirline := make(map[string]int64)
	var total, active int64
	for _, res := range f.items {
		total++
		if res.MonitoringEnabled {
			active++
		}
		byAirline[res.Airline]++
	}
	return total, active, total - active, byAirline, nil, nil
}

type fakeEventStore struct {
	events []model.ChangeEvent
}

func (f *fakeEventStore) Append(_ context.Context, events []model.ChangeEvent) error {
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeEventStore) ListByBookingCode(_ context.Context, bookingCode string, _ int64) ([]model.ChangeEvent, error) {
	var out []model.ChangeEvent
	for _, e := range f.events {
		if e.BookingCode == bookingCode {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.events)), nil
}

type fakeNotificationStore struct {
	notifications []*model.Notification
}

func (f *fakeNotificationStore) Insert(_ context.Context, n *model.Notification) error {
	f.notifications = append(f.notifications, n)
	return nil
}

type fakeAccountStore struct {
	accounts map[string]*model.AirlineAccount
}

func (f *fakeAccountStore) GetByAirline(_ context.Context, airline string) (*model.AirlineAccount, error) {
	if f.accounts == nil {
		return nil, database.ErrAccountNotFound
	}
	account, ok := f.accounts[airline]
	if !ok {
		return nil, database.ErrAccountNotFound
	}
	return account, nil
}

type fakeLookup struct {
	snapshots map[string]model.Snapshot
	err       error
	calls     int
}

func (f *fakeLookup) Search(_ context.Context, airline, bookingCode, _, _ string) (model.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return model.Snapshot{}, f.err
	}
	if s, ok := f.snapshots[bookingCode]; ok {
		return s, nil
	}
	return model.Snapshot{}, &model.NotFoundError{Airline: airline, BookingCode: bookingCode}
}

func (f *fakeLookup) Configured() bool { return true }

type fakeSessions struct {
	bundle *model.SessionBundle
	logins int
}

func (f *fakeSessions) Get(_, _ string) (*model.SessionBundle, bool) {
	return f.bundle, f.bundle != nil
}

func (f *fakeSessions) Login(_ context.Context, airline, email, _ string) (*model.SessionBundle, error) {
	f.logins++
	f.bundle = &model.SessionBundle{Airline: airline, AccountEmail: email}
	return f.bundle, nil
}

func (f *fakeSessions) Invalidate(_, _ string) {
	f.bundle = nil
}

type fakeFetcher struct {
	snapshot model.Snapshot
	err      error
}

func (f *fakeFetcher) FetchBooking(_ context.Context, _ *model.SessionBundle, _ string) (model.Snapshot, error) {
	if f.err != nil {
		return model.Snapshot{}, f.err
	}
	return f.snapshot, nil
}

type plainDecrypter struct{}

func (plainDecrypter) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

type testEnv struct {
	service       *MonitoringService
	reservations  *fakeReservationStore
	events        *fakeEventStore
	notifications *fakeNotificationStore
	accounts      *fakeAccountStore
	lookup        *fakeLookup
	sessions      *fakeSessions
	fetcher       *fakeFetcher
	now           time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		reservations:  newFakeReservationStore(),
		events:        &fakeEventStore{},
		notifications: &fakeNotificationStore{},
		accounts:      &fakeAccountStore{},
		lookup:        &fakeLookup{snapshots: make(map[string]model.Snapshot)},
		sessions:      &fakeSessions{},
		fetcher:       &fakeFetcher{},
		now:           time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	env.service = NewMonitoringService(
		env.reservations,
		env.events,
		env.notifications,
		env.accounts,
		env.lookup,
		env.sessions,
		env.fetcher,
		plainDecrypter{},
		nil,
	)
	env.service.now = func() time.Time { return env.now }
	return env
}

func golSnapshot() model.Snapshot {
	return model.Snapshot{
		Airline:       "GOL",
		FlightNumber:  "G31234",
		Origin:        "GRU",
		Destination:   "SDU",
		DepartureTime: "14:30",
		Status:        model.StatusConfirmed,
	}
}

func TestRegisterNewReservation(t *testing.T) {
	env := newTestEnv()
	env.lookup.snapshots["ABC123"] = golSnapshot()

	view, err := env.service.Register(context.Background(), RegisterInput{
		Airline:     "gol",
		BookingCode: "abc123",
		LastName:    "silva",
	})
	require.NoError(t, err)

	require.Equal(t, "GOL", view.Airline)
	require.Equal(t, "ABC123", view.BookingCode)
	require.Equal(t, "SILVA", view.LastName)
	require.Equal(t, "G31234", view.FlightNumber)
	require.Equal(t, "GRU", view.Origin)
	require.True(t, view.MonitoringEnabled)
	require.Zero(t, view.ConsecutiveFailures)
	require.Positive(t, view.NextCheckInMinutes)
	require.Len(t, env.reservations.items, 1)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.Register(context.Background(), RegisterInput{Airline: "GOL"})
	require.Error(t, err)

	_, err = env.service.Register(context.Background(), RegisterInput{
		Airline: "RYANAIR", BookingCode: "ABC123", LastName: "SILVA",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported airline")
}

func TestRegisterFirstCheckFailureStillRegisters(t *testing.T) {
	env := newTestEnv()
	env.lookup.err = &model.TransportError{Op: "render GOL", Err: errors.New("timeout")}

	view, err := env.service.Register(context.Background(), RegisterInput{
		Airline:     "GOL",
		BookingCode: "ABC123",
		LastName:    "SILVA",
	})
	require.NoError(t, err)

	require.Equal(t, 1, view.ConsecutiveFailures)
	require.Equal(t, "G30000", view.FlightNumber)
	require.Equal(t, "N/A", view.Origin)
	require.Equal(t, model.StatusConfirmed, view.Status)
	// Unknown departure gets a placeholder a week out.
	require.Equal(t, env.now.Add(7*24*time.Hour), view.DepartureDate)
}

func TestRegisterExistingReactivates(t *testing.T) {
	env := newTestEnv()
	env.lookup.snapshots["ABC123"] = golSnapshot()

	first, err := env.service.Register(context.Background(), RegisterInput{
		Airline: "GOL", BookingCode: "ABC123", LastName: "SILVA",
	})
	require.NoError(t, err)

	require.NoError(t, env.service.Pause(context.Background(), first.ID))

	id, _ := primitive.ObjectIDFromHex(first.ID)
	stored := env.reservations.items[id]
	stored.ConsecutiveFailures = 3
	stored.LastFailureReason = "transport failure"

	second, err := env.service.Register(context.Background(), RegisterInput{
		Airline: "gol", BookingCode: "abc123", LastName: "Silva",
	})
	require.NoError(t, err)

	// Same record, reactivated, counters reset.
	require.Equal(t, first.ID, second.ID)
	require.True(t, second.MonitoringEnabled)
	require.Zero(t, second.ConsecutiveFailures)
	require.Len(t, env.reservations.items, 1)
}

func TestCheckDetectsAndPersistsChanges(t *testing.T) {
	env := newTestEnv()
	env.lookup.snapshots["ABC123"] = golSnapshot()

	view, err := env.service.Register(context.Background(), RegisterInput{
		Airline: "GOL", BookingCode: "ABC123", LastName: "SILVA",
	})
	require.NoError(t, err)

	changed := golSnapshot()
	changed.FlightNumber = "G39999"
	env.lookup.snapshots["ABC123"] = changed
	env.now = env.now.Add(time.Hour)

	result, err := env.service.CheckNow(context.Background(), view.ID)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Changes, 1)
	require.Equal(t, model.FieldFlightNumber, result.Changes[0].Field)
	require.Equal(t, view.ID, result.Changes[0].ReservationID.Hex())

	require.Len(t, env.events.events, 1)
	require.Len(t, env.notifications.notifications, 1)
	require.Equal(t, "FLIGHTNUMBER_CHANGED", env.notifications.notifications[0].Type)

	id, _ := primitive.ObjectIDFromHex(view.ID)
	stored := env.reservations.items[id]
	require.Equal(t, "G39999", stored.FlightNumber)
	require.NotNil(t, stored.LastUpdatedAt)
}

func TestCheckNoChangesIsQuiet(t *testing.T) {
	env := newTestEnv()
	env.lookup.snapshots["ABC123"] = golSnapshot()

	view, err := env.service.Register(context.Background(), RegisterInput{
		Airline: "GOL", BookingCode: "ABC123", LastName: "SILVA",
	})
	require.NoError(t, err)

	result, err := env.service.CheckNow(context.Background(), view.ID)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Empty(t, result.Changes)
	require.Empty(t, env.events.events)
	require.Empty(t, env.notifications.notifications)
}

func TestCheckFailureIncrementsCounter(t *testing.T) {
	env := newTestEnv()
	env.lookup.snapshots["ABC123"] = golSnapshot()

	view, err := env.service.Register(context.Background(), RegisterInput{
		Airline: "GOL", BookingCode: "ABC123", LastName: "SILVA",
	})
	require.NoError(t, err)

	env.lookup.err = &model.TransportError{Op: "render GOL", Err: errors.New("timeout")}

	result, err := env.service.CheckNow(context.Background(), view.ID)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.NotEmpty(t, result.Error)

	id, _ := primitive.ObjectIDFromHex(view.ID)
	require.Equal(t, 1, env.reservations.items[id].ConsecutiveFailures)

	// A subsequent success resets the counter.
	env.lookup.err = nil
	result, err = env.service.CheckNow(context.Background(), view.ID)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Zero(t, env.reservations.items[id].ConsecutiveFailures)
}

func TestCheckFailureNeverAutoPauses(t *testing.T) {
	env := newTestEnv()
	env.lookup.snapshots["ABC123"] = golSnapshot()

	view, err := env.service.Register(context.Background(), RegisterInput{
		Airline: "GOL", BookingCode: "ABC123", LastName: "SILVA",
	})
	require.NoError(t, err)

	env.lookup.err = &model.NotFoundError{Airline: "GOL", BookingCode: "ABC123"}
	for i := 0; i < 10; i++ {
		result, err := env.service.CheckNow(context.Background(), view.ID)
		require.NoError(t, err)
		require.False(t, result.Success)
	}

	id, _ := primitive.ObjectIDFromHex(view.ID)
	stored := env.reservations.items[id]
	require.Equal(t, 10, stored.ConsecutiveFailures)
	require.True(t, stored.MonitoringEnabled)
}

func TestCheckAuthenticatedPath(t *testing.T) {
	env := newTestEnv()
	env.lookup.snapshots["ABC123"] = golSnapshot()

	view, err := env.service.Register(context.Background(), RegisterInput{
		Airline: "GOL", BookingCode: "ABC123", LastName: "SILVA",
	})
	require.NoError(t, err)

	// Linking an account reroutes checks through the session path.
	env.accounts.accounts = map[string]*model.AirlineAccount{
		"GOL": {Airline: "GOL", Email: "user@example.com", EncryptedPassword: "senha"},
	}
	env.fetcher.snapshot = golSnapshot()

	lookupCallsBefore := env.lookup.calls
	result, err := env.service.CheckNow(context.Background(), view.ID)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, lookupCallsBefore, env.lookup.calls)
	require.Equal(t, 1, env.sessions.logins)

	// The cached session is reused on the next check.
	_, err = env.service.CheckNow(context.Background(), view.ID)
	require.NoError(t, err)
	require.Equal(t, 1, env.sessions.logins)
}

func TestCheckInvalidatesStaleSessionOnNotFound(t *testing.T) {
	env := newTestEnv()
	env.lookup.snapshots["ABC123"] = golSnapshot()

	view, err := env.service.Register(context.Background(), RegisterInput{
		Airline: "GOL", BookingCode: "ABC123", LastName: "SILVA",
	})
	require.NoError(t, err)

	env.accounts.accounts = map[string]*model.AirlineAccount{
		"GOL": {Airline: "GOL", Email: "user@example.com", EncryptedPassword: "senha"},
	}
	env.sessions.bundle = &model.SessionBundle{Airline: "GOL", AccountEmail: "user@example.com"}
	env.fetcher.err = &model.NotFoundError{Airline: "GOL", BookingCode: "ABC123"}

	result, err := env.service.CheckNow(context.Background(), view.ID)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Nil(t, env.sessions.bundle)
}

func TestPauseResumeRemove(t *testing.T) {
	env := newTestEnv()
	env.lookup.snapshots["ABC123"] = golSnapshot()

	view, err := env.service.Register(context.Background(), RegisterInput{
		Airline: "GOL", BookingCode: "ABC123", LastName: "SILVA",
	})
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(view.ID)

	require.NoError(t, env.service.Pause(context.Background(), view.ID))
	require.False(t, env.reservations.items[id].MonitoringEnabled)

	env.reservations.items[id].ConsecutiveFailures = 4
	require.NoError(t, env.service.Resume(context.Background(), view.ID))
	require.True(t, env.reservations.items[id].MonitoringEnabled)
	require.Zero(t, env.reservations.items[id].ConsecutiveFailures)

	require.NoError(t, env.service.Remove(context.Background(), view.ID))
	require.Empty(t, env.reservations.items)

	err = env.service.Remove(context.Background(), view.ID)
	require.ErrorIs(t, err, database.ErrReservationNotFound)
}

func TestChangeHistoryAndStats(t *testing.T) {
	env := newTestEnv()
	env.lookup.snapshots["ABC123"] = golSnapshot()

	view, err := env.service.Register(context.Background(), RegisterInput{
		Airline: "GOL", BookingCode: "ABC123", LastName: "SILVA",
	})
	require.NoError(t, err)

	changed := golSnapshot()
	changed.Status = model.StatusCancelled
	env.lookup.snapshots["ABC123"] = changed

	_, err = env.service.CheckNow(context.Background(), view.ID)
	require.NoError(t, err)

	history, err := env.service.ChangeHistory(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, model.FieldStatus, history[0].Field)

	stats, err := env.service.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total)
	require.Equal(t, int64(1), stats.ByAirline["GOL"])
	require.Equal(t, int64(1), stats.TotalChangesDetected)
}
