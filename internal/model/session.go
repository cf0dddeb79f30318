package model

import "time"

// Viewport is a browser window size captured with a session.
type Viewport struct {
	Width  int `json:"width" bson:"width"`
	Height int `json:"height" bson:"height"`
}

// SessionBundle is a reusable authenticated-browsing context (cookies plus
// fingerprint) standing in for a fresh login. Cookies are kept as an opaque
// JSON blob; only the browser layer interprets them. A bundle is usable iff
// now < ExpiresAt; an expired bundle is identical to an absent one.
type SessionBundle struct {
	Airline      string    `json:"airline" bson:"airline"`
	AccountEmail string    `json:"account_email" bson:"account_email"`
	Cookies      []byte    `json:"-" bson:"cookies"`
	UserAgent    string    `json:"user_agent" bson:"user_agent"`
	Viewport     Viewport  `json:"viewport" bson:"viewport"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt    time.Time `json:"expires_at" bson:"expires_at"`
}

// Valid reports whether the bundle can still be used at the given time.
func (s *SessionBundle) Valid(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}
