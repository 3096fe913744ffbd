package model

import "time"

// Role is the account role carried in access tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the verified subject of an access token.
type Identity struct {
	SubjectID   int64     `json:"id"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"name"`
	ExpiresAt   time.Time `json:"-"`
}

// User is a stored account row.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

// AdminContact is what buyers need to address the dealership.
type AdminContact struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
