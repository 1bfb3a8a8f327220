// Package model defines domain entities for the application.
package model

import "time"

// MaxUsernameLength bounds the username column.
const MaxUsernameLength = 150

// User is an account that owns notes.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsStaff      bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
}
