package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reservasegura/monitor/internal/model"
)

// Persistence boundaries. The mongo repositories implement these; tests
// substitute in-memory fakes.

// ReservationStore is CRUD by natural key plus the due-window query.
type ReservationStore interface {
	Create(ctx context.Context, res *model.MonitoredReservation) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.MonitoredReservation, error)
	GetByNaturalKey(ctx context.Context, airline, bookingCode, lastName string) (*model.MonitoredReservation, error)
	List(ctx context.Context, filter bson.M) ([]model.MonitoredReservation, error)
	Update(ctx context.Context, res *model.MonitoredReservation) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindDue(ctx context.Context, windowStart, windowEnd time.Time) ([]model.MonitoredReservation, error)
	Stats(ctx context.Context, now time.Time) (total, active, paused int64, byAirline map[string]int64, lastCheckAt *time.Time, err error)
}

// ChangeEventStore is the append-only drift log.
type ChangeEventStore interface {
	Append(ctx context.Context, events []model.ChangeEvent) error
	ListByBookingCode(ctx context.Context, bookingCode string, limit int64) ([]model.ChangeEvent, error)
	Count(ctx context.Context) (int64, error)
}

// NotificationStore receives notification records for the delivery
// pipeline.
type NotificationStore interface {
	Insert(ctx context.Context, n *model.Notification) error
}

// AccountStore resolves user-linked airline credentials.
type AccountStore interface {
	GetByAirline(ctx context.Context, airline string) (*model.AirlineAccount, error)
}

// Scraping boundaries.

// LookupClient is the remote-render public trip-lookup path.
type LookupClient interface {
	Search(ctx context.Context, airline, bookingCode, lastName, origin string) (model.Snapshot, error)
	Configured() bool
}

// SessionSource serves and creates authenticated session bundles.
type SessionSource interface {
	Get(airline, email string) (*model.SessionBundle, bool)
	Login(ctx context.Context, airline, email, password string) (*model.SessionBundle, error)
	Invalidate(airline, email string)
}

// BookingFetcher reads a booking through an authenticated session.
type BookingFetcher interface {
	FetchBooking(ctx context.Context, bundle *model.SessionBundle, bookingCode string) (model.Snapshot, error)
}

// PasswordDecrypter is the decrypt side of the credential boundary.
type PasswordDecrypter interface {
	Decrypt(ciphertext string) (string, error)
}
