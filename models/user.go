package models

import "time"

// User is the simulated local account record. There is no real credential
// store behind it; it lives in the local key-value store only.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	IsAdmin      bool      `json:"isAdmin,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Sanitized returns a copy safe to hand to the HTTP surface.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
