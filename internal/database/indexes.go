package database

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes creates all necessary indexes for the collections
func CreateIndexes(ctx context.Context, db *MongoDB) error {
	slog.Info("Creating MongoDB indexes")

	if err := createReservationIndexes(ctx, db); err != nil {
		return err
	}
	if err := createChangeEventIndexes(ctx, db); err != nil {
		return err
	}
	if err := createNotificationIndexes(ctx, db); err != nil {
		return err
	}
	if err := createAirlineAccountIndexes(ctx, db); err != nil {
		return err
	}

	slog.Info("Successfully created all MongoDB indexes")
	return nil
}

func createReservationIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionReservations)

	indexes := []mongo.IndexModel{
		{
			// Natural key: re-registering reactivates, never duplicates.
			Keys: bson.D{
				{Key: "airline", Value: 1},
				{Key: "booking_code", Value: 1},
				{Key: "last_name", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_natural_key_unique"),
		},
		{
			Keys: bson.D{
				{Key: "monitoring_enabled", Value: 1},
				{Key: "booking_status", Value: 1},
				{Key: "departure_date", Value: 1},
			},
			Options: options.Index().SetName("idx_due_query"),
		},
		{
			Keys:    bson.D{{Key: "departure_date", Value: 1}},
			Options: options.Index().SetName("idx_departure_date"),
		},
		{
			Keys:    bson.D{{Key: "last_checked_at", Value: -1}},
			Options: options.Index().SetName("idx_last_checked_at"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created monitored_reservations indexes")
	return nil
}

func createChangeEventIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionChangeEvents)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "booking_code", Value: 1},
				{Key: "detected_at", Value: -1},
			},
			Options: options.Index().SetName("idx_booking_code_detected_at"),
		},
		{
			Keys:    bson.D{{Key: "reservation_id", Value: 1}},
			Options: options.Index().SetName("idx_reservation_id"),
		},
		{
			Keys:    bson.D{{Key: "detected_at", Value: -1}},
			Options: options.Index().SetName("idx_detected_at"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created change_events indexes")
	return nil
}

func createNotificationIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionNotifications)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "booking_code", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_booking_code_created_at"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_status_created_at"),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}},
			Options: options.Index().SetName("idx_type"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created notifications indexes")
	return nil
}

func createAirlineAccountIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionAirlineAccounts)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "airline", Value: 1},
				{Key: "email", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_airline_email_unique"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created airline_accounts indexes")
	return nil
}
