package models

import "time"

// Subject belongs to a semester and owns assignments.
type Subject struct {
	ID         int64     `db:"id" json:"id"`
	SemesterID int64     `db:"semester_id" json:"semester_id"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CreateSubjectRequest is the payload for POST /semesters/:semId/subjects.
type CreateSubjectRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// SubjectOwner joins a subject to the user that owns its semester.
type SubjectOwner struct {
	Subject
	UserID int64 `db:"user_id"`
}
