package domain

import "time"

// User is an account holder.
type User struct {
	ID           string
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string // PHC-format argon2id digest
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
