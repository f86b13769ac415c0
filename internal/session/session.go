package session

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Actor is the logged-in mentor operating the chat screen.
// It is resolved once at startup and injected everywhere else.
type Actor struct {
	ID   string
	Name string
}

type claims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

var ErrNoIdentity = errors.New("session token carries no user id")

// FromToken extracts the actor identity from a persisted session token.
// The token was issued and validated by the backend; the client only reads
// the claims, so the signature is not checked here.
func FromToken(token string) (Actor, error) {
	var c claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &c); err != nil {
		return Actor{}, err
	}

	id := c.UserID
	if id == "" {
		// Some token versions only carry the subject claim.
		id = c.Subject
	}
	if id == "" {
		return Actor{}, ErrNoIdentity
	}

	name := c.Name
	if name == "" {
		name = "You"
	}
	return Actor{ID: id, Name: name}, nil
}
