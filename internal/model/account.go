package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AirlineAccount holds user-linked airline credentials used by the
// authenticated scraping path. The password is stored encrypted; this core
// only talks to the encrypt/decrypt boundary.
type AirlineAccount struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Airline           string             `json:"airline" bson:"airline"`
	Email             string             `json:"email" bson:"email"`
	EncryptedPassword string             `json:"-" bson:"encrypted_password"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}
