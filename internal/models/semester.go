package models

import "time"

// Semester groups the subjects of one user.
type Semester struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateSemesterRequest is the payload for POST /semesters.
type CreateSemesterRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}
