package models

import "time"

// User represents a registered dashboard user.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Owner is the public view of a user attached to videos listed across accounts.
type Owner struct {
	ID    string `db:"owner_id" json:"id"`
	Name  string `db:"owner_name" json:"name"`
	Email string `db:"owner_email" json:"email"`
}
