package model

import "time"

// User represents a user in the database.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the only outward representation of a User. It has no field
// for the password hash.
type PublicUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public projects the user onto its public view.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// PublicUsers projects a slice of users. The result is never nil.
func PublicUsers(users []User) []PublicUser {
	result := make([]PublicUser, len(users))
	for i := range users {
		result[i] = users[i].Public()
	}
	return result
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name" validate:"omitempty,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=128"`
}

// AuthResponse represents an authentication response with a JWT token and user info.
type AuthResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}
