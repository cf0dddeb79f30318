package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/reservasegura/monitor/internal/model"
)

// NotificationRepository persists notification records for the delivery
// pipeline. Delivery itself is out of scope; rows are written PENDING.
type NotificationRepository struct {
	collection *mongo.Collection
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *MongoDB) *NotificationRepository {
	return &NotificationRepository{
		collection: db.GetCollection(CollectionNotifications),
	}
}

// Insert appends a notification record.
func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctxTimeout, n); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}
