package models

import "time"

// User represents an application user stored in the users table.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateUserRequest creates a user without an external identity.
type CreateUserRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// UserProfile is the user payload returned to clients together with the most
// recently created semester, if any.
type UserProfile struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     *string `json:"email,omitempty"`
	LastSemID *int64  `json:"last_sem_id"`
}
