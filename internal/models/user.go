package models

import "time"

// UserRole describes the account type backing a profile.
type UserRole string

// Supported user roles.
const (
	RoleStudent UserRole = "student"
	RoleFaculty UserRole = "faculty"
	RoleAdmin   UserRole = "admin"
)

// User is the account row created alongside student and faculty profiles.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Email        string    `db:"email" json:"email"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
