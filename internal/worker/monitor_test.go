package worker

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
	"github.com/reservasegura/monitor/internal/service"
)

type stubReservationStore struct {
	items map[primitive.ObjectID]*model.MonitoredReservation
}

func newStubReservationStore(reservations ...*model.MonitoredReservation) *stubReservationStore {
	s := &stubReservationStore{items: make(map[primitive.ObjectID]*model.MonitoredReservation)}
	for _, res := range reservations {
		res.ID = primitive.NewObjectID()
		s.items[res.ID] = res
	}
	return s
}

func (s *stubReservationStore) Create(_ context.Context, res *model.MonitoredReservation) error {
	res.ID = primitive.NewObjectID()
	s.items[res.ID] = res
	return nil
}

func (s *stubReservationStore) GetByID(_ context.Context, id primitive.ObjectID) (*model.MonitoredReservation, error) {
	res, ok := s.items[id]
	if !ok {
		return nil, database.ErrReservationNotFound
	}
	return res, nil
}

func (s *stubReservationStore) GetByNaturalKey(_ context.Context, _, _, _ string) (*model.MonitoredReservation, error) {
	return nil, database.ErrReservationNotFound
}

func (s *stubReservationStore) List(_ context.Context, _ bson.M) ([]model.MonitoredReservation, error) {
	return nil, nil
}

func (s *stubReservationStore) Update(_ context.Context, res *model.MonitoredReservation) error {
	s.items[res.ID] = res
	return nil
}

func (s *stubReservationStore) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(s.items, id)
	return nil
}

func (s *stubReservationStore) FindDue(_ context.Context, windowStart, windowEnd time.Time) ([]model.MonitoredReservation, error) {
	var out []model.MonitoredReservation
	for _, res := range s.items {
		if res.MonitoringEnabled &&
			!res.DepartureDate.Before(windowStart) && !res.DepartureDate.After(windowEnd) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (s *stubReservationStore) Stats(_ context.Context, _ time.Time) (int64, int64, int64, map[string]int64, *time.Time, error) {
	return int64(len(s.items)), 0, 0, nil, nil, nil
}

type stubEventStore struct{ events []model.ChangeEvent }

func (s *stubEventStore) Append(_ context.Context, events []model.ChangeEvent) error {
	s.events = append(s.events, events...)
	return nil
}

func (s *stubEventStore) ListByBookingCode(_ context.Context, _ string, _ int64) ([]model.ChangeEvent, error) {
	return nil, nil
}

func (s *stubEventStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.events)), nil
}

type stubNotificationStore struct{}

func (stubNotificationStore) Insert(_ context.Context, _ *model.Notification) error { return nil }

type stubAccountStore struct{}

func (stubAccountStore) GetByAirline(_ context.Context, _ string) (*model.AirlineAccount, error) {
	return nil, database.ErrAccountNotFound
}

// stubLookup answers per booking code: a snapshot, or an error.
type stubLookup struct {
	snapshots map[string]model.Snapshot
	failures  map[string]error
}

func (s *stubLookup) Search(_ context.Context, airline, bookingCode, _, _ string) (model.Snapshot, error) {
	if err, ok := s.failures[bookingCode]; ok {
		return model.Snapshot{}, err
	}
	if snap, ok := s.snapshots[bookingCode]; ok {
		return snap, nil
	}
	return model.Snapshot{}, &model.NotFoundError{Airline: airline, BookingCode: bookingCode}
}

func (s *stubLookup) Configured() bool { return true }

type stubSessions struct{}

func (stubSessions) Get(_, _ string) (*model.SessionBundle, bool) { return nil, false }
func (stubSessions) Login(_ context.Context, _, _, _ string) (*model.SessionBundle, error) {
	return nil, errors.New("no browser in tests")
}
func (stubSessions) Invalidate(_, _ string) {}

type stubFetcher struct{}

func (stubFetcher) FetchBooking(_ context.Context, _ *model.SessionBundle, _ string) (model.Snapshot, error) {
	return model.Snapshot{}, errors.New("no browser in tests")
}

type stubDecrypter struct{}

func (stubDecrypter) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

func confirmedReservation(bookingCode string, departure time.Time) *model.MonitoredReservation {
	return &model.MonitoredReservation{
		Airline:           "GOL",
		BookingCode:       bookingCode,
		LastName:          "SILVA",
		FlightNumber:      "G31234",
		Origin:            "GRU",
		Destination:       "SDU",
		DepartureDate:     departure,
		BookingStatus:     model.StatusConfirmed,
		MonitoringEnabled: true,
	}
}

func currentSnapshot(bookingCode string) model.Snapshot {
	return model.Snapshot{
		Airline:      "GOL",
		FlightNumber: "G31234",
		Origin:       "GRU",
		Destination:  "SDU",
		Status:       model.StatusConfirmed,
	}
}

func newTestMonitor(store *stubReservationStore, lookup *stubLookup) (*Monitor, *stubEventStore) {
	events := &stubEventStore{}
	svc := service.NewMonitoringService(
		store,
		events,
		stubNotificationStore{},
		stubAccountStore{},
		lookup,
		stubSessions{},
		stubFetcher{},
		stubDecrypter{},
		nil,
	)
	monitor := NewMonitor(svc, store, nil, time.Hour, "0 * * * *")
	monitor.delayMin = 0
	monitor.delayMax = 0
	return monitor, events
}

func TestTriggerManuallyCountsErrorsPerItem(t *testing.T) {
	departure := time.Now().UTC().Add(48 * time.Hour)
	store := newStubReservationStore(
		confirmedReservation("AAA111", departure),
		confirmedReservation("BBB222", departure),
		confirmedReservation("CCC333", departure),
	)
	lookup := &stubLookup{
		snapshots: map[string]model.Snapshot{
			"AAA111": currentSnapshot("AAA111"),
			"CCC333": currentSnapshot("CCC333"),
		},
		failures: map[string]error{
			"BBB222": &model.TransportError{Op: "render GOL", Err: errors.New("timeout")},
		},
	}
	monitor, _ := newTestMonitor(store, lookup)

	report := monitor.TriggerManually(context.Background())

	require.Equal(t, 3, report.Eligible)
	require.Equal(t, 2, report.Checked)
	require.Equal(t, 1, report.Errored)
	require.Equal(t, 0, report.Changed)
	require.NotEmpty(t, report.CycleID)

	// The failing item was isolated: the other two were still checked and
	// its counter was persisted.
	for _, res := range store.items {
		if res.BookingCode == "BBB222" {
			require.Equal(t, 1, res.ConsecutiveFailures)
		} else {
			require.Zero(t, res.ConsecutiveFailures)
		}
	}
}

func TestTriggerManuallyReportsChanges(t *testing.T) {
	departure := time.Now().UTC().Add(48 * time.Hour)
	store := newStubReservationStore(confirmedReservation("AAA111", departure))

	moved := currentSnapshot("AAA111")
	moved.FlightNumber = "G39999"
	lookup := &stubLookup{snapshots: map[string]model.Snapshot{"AAA111": moved}}
	monitor, events := newTestMonitor(store, lookup)

	report := monitor.TriggerManually(context.Background())

	require.Equal(t, 1, report.Checked)
	require.Equal(t, 1, report.Changed)
	require.Len(t, events.events, 1)
}

func TestCycleSkipsRecentlyChecked(t *testing.T) {
	now := time.Now().UTC()
	departure := now.Add(20 * 24 * time.Hour)

	fresh := confirmedReservation("AAA111", departure)
	justChecked := now.Add(-time.Minute)
	fresh.LastCheckedAt = &justChecked

	stale := confirmedReservation("BBB222", departure)
	longAgo := now.Add(-12 * time.Hour)
	stale.LastCheckedAt = &longAgo

	store := newStubReservationStore(fresh, stale)
	lookup := &stubLookup{snapshots: map[string]model.Snapshot{
		"AAA111": currentSnapshot("AAA111"),
		"BBB222": currentSnapshot("BBB222"),
	}}
	monitor, _ := newTestMonitor(store, lookup)

	report := monitor.TriggerManually(context.Background())

	require.Equal(t, 1, report.Eligible)
	require.Equal(t, 1, report.Checked)
}

func TestCycleIgnoresOutOfWindowDepartures(t *testing.T) {
	now := time.Now().UTC()
	store := newStubReservationStore(
		confirmedReservation("OLD111", now.Add(-48*time.Hour)),
		confirmedReservation("FAR222", now.Add(60*24*time.Hour)),
	)
	lookup := &stubLookup{snapshots: map[string]model.Snapshot{}}
	monitor, _ := newTestMonitor(store, lookup)

	report := monitor.TriggerManually(context.Background())
	require.Zero(t, report.Eligible)
	require.Zero(t, report.Checked)
}

func TestStartStopIdempotent(t *testing.T) {
	store := newStubReservationStore()
	monitor, _ := newTestMonitor(store, &stubLookup{})

	ctx := context.Background()

	require.False(t, monitor.Status().IsRunning)

	monitor.Start(ctx)
	monitor.Start(ctx)
	require.True(t, monitor.Status().IsRunning)

	status := monitor.Status()
	require.Equal(t, "0 * * * *", status.Schedule)
	require.NotNil(t, status.NextRunEstimate)

	monitor.Stop(ctx)
	monitor.Stop(ctx)
	require.False(t, monitor.Status().IsRunning)

	// The worker can be restarted after a stop.
	monitor.Start(ctx)
	require.True(t, monitor.Status().IsRunning)
	monitor.Stop(ctx)
}
