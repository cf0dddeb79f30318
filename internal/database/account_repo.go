package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reservasegura/monitor/internal/model"
)

// ErrAccountNotFound is returned when no linked account exists.
var ErrAccountNotFound = errors.New("airline account not found")

// AccountRepository stores user-linked airline credentials
type AccountRepository struct {
	collection *mongo.Collection
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *MongoDB) *AccountRepository {
	return &AccountRepository{
		collection: db.GetCollection(CollectionAirlineAccounts),
	}
}

// GetByAirline returns the linked account for an airline, if any.
func (r *AccountRepository) GetByAirline(ctx context.Context, airline string) (*model.AirlineAccount, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var account model.AirlineAccount
	err := r.collection.FindOne(ctxTimeout, bson.M{"airline": airline}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get airline account: %w", err)
	}

	return &account, nil
}

// Upsert stores or replaces the linked account for (airline, email).
func (r *AccountRepository) Upsert(ctx context.Context, account *model.AirlineAccount) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	account.UpdatedAt = now

	filter := bson.M{"airline": account.Airline, "email": account.Email}
	update := bson.M{
		"$set": bson.M{
			"encrypted_password": account.EncryptedPassword,
			"updated_at":         now,
		},
		"$setOnInsert": bson.M{
			"airline":    account.Airline,
			"email":      account.Email,
			"created_at": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctxTimeout, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert airline account: %w", err)
	}

	return nil
}
