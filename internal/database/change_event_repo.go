package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reservasegura/monitor/internal/model"
)

// ChangeEventRepository handles the append-only change event log
type ChangeEventRepository struct {
	collection *mongo.Collection
}

// NewChangeEventRepository creates a new change event repository
func NewChangeEventRepository(db *MongoDB) *ChangeEventRepository {
	return &ChangeEventRepository{
		collection: db.GetCollection(CollectionChangeEvents),
	}
}

// Append inserts change events. Events are immutable after creation;
// there is deliberately no update or delete on this repository.
func (r *ChangeEventRepository) Append(ctx context.Context, events []model.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	docs := make([]interface{}, 0, len(events))
	for i := range events {
		if events[i].ID.IsZero() {
			events[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, events[i])
	}

	if _, err := r.collection.InsertMany(ctxTimeout, docs); err != nil {
		return fmt.Errorf("failed to append change events: %w", err)
	}

	return nil
}

// ListByBookingCode retrieves change events for a booking, most recent
// first, capped at limit.
func (r *ChangeEventRepository) ListByBookingCode(ctx context.Context, bookingCode string, limit int64) ([]model.ChangeEvent, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "detected_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctxTimeout, bson.M{"booking_code": bookingCode}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list change events: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var events []model.ChangeEvent
	if err := cursor.All(ctxTimeout, &events); err != nil {
		return nil, fmt.Errorf("failed to decode change events: %w", err)
	}

	return events, nil
}

// Count returns the total number of change events ever detected.
func (r *ChangeEventRepository) Count(ctx context.Context) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctxTimeout, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count change events: %w", err)
	}

	return count, nil
}
