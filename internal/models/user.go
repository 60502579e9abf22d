package models

import "time"

// User is an application account. Turns reference users by ID only; the
// relay never loads the full record.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Sanitize returns a copy of the user safe to serialise in responses.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	return u
}
