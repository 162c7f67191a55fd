package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims identifies the in-memory vault session bound to a browser.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
