package models

import (
	"fmt"
	"time"
)

// Category classifies an assignment.
type Category int16

const (
	CategoryAssignment Category = 0
	CategoryLecture    Category = 1
	CategoryTodo       Category = 2
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c >= CategoryAssignment && c <= CategoryTodo
}

func (c Category) String() string {
	switch c {
	case CategoryAssignment:
		return "assignment"
	case CategoryLecture:
		return "lecture"
	case CategoryTodo:
		return "todo"
	default:
		return fmt.Sprintf("category(%d)", int16(c))
	}
}

// CompletionState is the persisted lifecycle state of an assignment.
type CompletionState int16

const (
	StateIncomplete CompletionState = 0
	StateComplete   CompletionState = 1
	StateDueSoon    CompletionState = 2
)

// Valid reports whether s is a known state.
func (s CompletionState) Valid() bool {
	return s >= StateIncomplete && s <= StateDueSoon
}

// Open reports whether the assignment still needs work.
func (s CompletionState) Open() bool {
	return s == StateIncomplete || s == StateDueSoon
}

func (s CompletionState) String() string {
	switch s {
	case StateIncomplete:
		return "incomplete"
	case StateComplete:
		return "complete"
	case StateDueSoon:
		return "due_soon"
	default:
		return fmt.Sprintf("state(%d)", int16(s))
	}
}

// Assignment is a task with an optional deadline under a subject.
type Assignment struct {
	ID        int64           `db:"id" json:"id"`
	SubjectID int64           `db:"subject_id" json:"subject_id"`
	Name      string          `db:"name" json:"name"`
	DueAt     *time.Time      `db:"due_at" json:"due_at"`
	Category  Category        `db:"category" json:"category"`
	State     CompletionState `db:"state" json:"state"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// AssignmentOwner joins an assignment to the user that owns it.
type AssignmentOwner struct {
	Assignment
	UserID int64 `db:"user_id"`
}

// AssignmentFilter narrows dashboard assignments. Nil or empty fields do not
// restrict the result; set fields are combined with AND.
type AssignmentFilter struct {
	SubjectID  *int64
	Categories []Category
}

// CreateAssignmentRequest is the payload for POST /subjects/:subId/assignments.
type CreateAssignmentRequest struct {
	Name     string    `json:"name" validate:"required,max=100"`
	DueAt    time.Time `json:"due_at" validate:"required"`
	Category *int16    `json:"category" validate:"required,min=0,max=2"`
}

// UpdateAssignmentRequest edits assignment fields. Absent fields are left as is.
type UpdateAssignmentRequest struct {
	SubjectID *int64     `json:"subject_id,omitempty" validate:"omitempty,min=1"`
	Name      *string    `json:"name,omitempty" validate:"omitempty,max=100"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	Category  *int16     `json:"category,omitempty" validate:"omitempty,min=0,max=2"`
}

// AssignmentPatch is the validated form of UpdateAssignmentRequest passed to
// the repository.
type AssignmentPatch struct {
	SubjectID *int64
	Name      *string
	DueAt     *time.Time
	Category  *Category
}

// UpdateStateRequest toggles completion. 1 completes, 0 reopens.
type UpdateStateRequest struct {
	State *int16 `json:"state" validate:"required,min=0,max=1"`
}
