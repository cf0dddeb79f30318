package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reservasegura/monitor/internal/model"
)

// ErrReservationNotFound is returned when no reservation matches a lookup.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepository handles monitored reservation operations
type ReservationRepository struct {
	collection *mongo.Collection
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *MongoDB) *ReservationRepository {
	return &ReservationRepository{
		collection: db.GetCollection(CollectionReservations),
	}
}

// Create inserts a new monitored reservation
func (r *ReservationRepository) Create(ctx context.Context, res *model.MonitoredReservation) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if res.ID.IsZero() {
		res.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctxTimeout, res)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("reservation %s/%s already registered", res.Airline, res.BookingCode)
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	return nil
}

// GetByID retrieves a reservation by ID
func (r *ReservationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.MonitoredReservation, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var res model.MonitoredReservation
	err := r.collection.FindOne(ctxTimeout, bson.M{"_id": id}).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	return &res, nil
}

// GetByNaturalKey retrieves a reservation by (airline, bookingCode, lastName)
func (r *ReservationRepository) GetByNaturalKey(ctx context.Context, airline, bookingCode, lastName string) (*model.MonitoredReservation, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"airline":      airline,
		"booking_code": bookingCode,
		"last_name":    lastName,
	}

	var res model.MonitoredReservation
	err := r.collection.FindOne(ctxTimeout, filter).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	return &res, nil
}

// List retrieves reservations with optional filters, ordered by departure
func (r *ReservationRepository) List(ctx context.Context, filter bson.M) ([]model.MonitoredReservation, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "departure_date", Value: 1}})

	cursor, err := r.collection.Find(ctxTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var reservations []model.MonitoredReservation
	if err := cursor.All(ctxTimeout, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

// Update replaces an existing reservation document
func (r *ReservationRepository) Update(ctx context.Context, res *model.MonitoredReservation) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctxTimeout, bson.M{"_id": res.ID}, res)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrReservationNotFound
	}

	return nil
}

// Delete removes a reservation
func (r *ReservationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctxTimeout, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrReservationNotFound
	}

	return nil
}

// FindDue retrieves enabled, still-trackable reservations whose departure
// falls inside the monitoring window. Due-ness against the adaptive
// interval is evaluated by the caller.
func (r *ReservationRepository) FindDue(ctx context.Context, windowStart, windowEnd time.Time) ([]model.MonitoredReservation, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"monitoring_enabled": true,
		"booking_status":     bson.M{"$in": model.TrackableStatuses},
		"departure_date": bson.M{
			"$gte": windowStart,
			"$lte": windowEnd,
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "departure_date", Value: 1}})

	cursor, err := r.collection.Find(ctxTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find due reservations: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var reservations []model.MonitoredReservation
	if err := cursor.All(ctxTimeout, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode due reservations: %w", err)
	}

	return reservations, nil
}

// Stats aggregates monitoring statistics across all reservations.
func (r *ReservationRepository) Stats(ctx context.Context, now time.Time) (total, active, paused int64, byAirline map[string]int64, lastCheckAt *time.Time, err error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	byAirline = make(map[string]int64)

	total, err = r.collection.CountDocuments(ctxTimeout, bson.M{})
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("failed to count reservations: %w", err)
	}

	active, err = r.collection.CountDocuments(ctxTimeout, bson.M{
		"monitoring_enabled": true,
		"departure_date":     bson.M{"$gte": now},
	})
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("failed to count active reservations: %w", err)
	}

	paused, err = r.collection.CountDocuments(ctxTimeout, bson.M{"monitoring_enabled": false})
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("failed to count paused reservations: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"monitoring_enabled": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$airline", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctxTimeout, pipeline)
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("failed to group by airline: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var groups []struct {
		Airline string `bson:"_id"`
		Count   int64  `bson:"count"`
	}
	if err := cursor.All(ctxTimeout, &groups); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("failed to decode airline groups: %w", err)
	}
	for _, g := range groups {
		byAirline[g.Airline] = g.Count
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "last_checked_at", Value: -1}})
	var latest model.MonitoredReservation
	findErr := r.collection.FindOne(ctxTimeout, bson.M{"last_checked_at": bson.M{"$ne": nil}}, opts).Decode(&latest)
	if findErr == nil {
		lastCheckAt = latest.LastCheckedAt
	} else if !errors.Is(findErr, mongo.ErrNoDocuments) {
		return 0, 0, 0, nil, nil, fmt.Errorf("failed to find last check: %w", findErr)
	}

	return total, active, paused, byAirline, lastCheckAt, nil
}
