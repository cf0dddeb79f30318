package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification priorities and delivery statuses. Delivery itself is a
// collaborator's concern; this core only creates pending records.
const (
	PriorityUrgent = "URGENT"
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"

	NotificationPending = "PENDING"
)

// ChangeMeta is the typed payload attached to drift notifications.
type ChangeMeta struct {
	Field      string    `json:"field" bson:"field"`
	OldValue   string    `json:"old_value,omitempty" bson:"old_value,omitempty"`
	NewValue   string    `json:"new_value" bson:"new_value"`
	Severity   Severity  `json:"severity" bson:"severity"`
	DetectedAt time.Time `json:"detected_at" bson:"detected_at"`
}

// Notification is a durable record handed off to the delivery pipeline.
type Notification struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BookingCode string             `json:"booking_code" bson:"booking_code"`
	Type        string             `json:"type" bson:"type"`
	Title       string             `json:"title" bson:"title"`
	Message     string             `json:"message" bson:"message"`
	Priority    string             `json:"priority" bson:"priority"`
	Status      string             `json:"status" bson:"status"`
	Metadata    *ChangeMeta        `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// NotificationFromChange builds the notification record for one drift event.
func NotificationFromChange(event ChangeEvent) *Notification {
	oldValue := event.OldValue
	if oldValue == "" {
		oldValue = "N/A"
	}
	return &Notification{
		BookingCode: event.BookingCode,
		Type:        event.NotificationType(),
		Title:       fmt.Sprintf("Change detected: %s", event.Field),
		Message:     fmt.Sprintf("%s: %s -> %s", event.Field, oldValue, event.NewValue),
		Priority:    event.Priority(),
		Status:      NotificationPending,
		Metadata: &ChangeMeta{
			Field:      event.Field,
			OldValue:   event.OldValue,
			NewValue:   event.NewValue,
			Severity:   event.Severity,
			DetectedAt: event.DetectedAt,
		},
		CreatedAt: time.Now().UTC(),
	}
}
