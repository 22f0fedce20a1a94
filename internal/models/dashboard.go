package models

import "time"

// SemesterMenuItem is an entry of the semester selector.
type SemesterMenuItem struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Current bool   `json:"current"`
}

// DashboardAssignment is an assignment decorated for display.
type DashboardAssignment struct {
	ID             int64           `json:"id"`
	SubjectID      int64           `json:"subject_id"`
	Name           string          `json:"name"`
	DueAt          *time.Time      `json:"due_at"`
	DueLabel       string          `json:"due_label"`
	HoursRemaining *int            `json:"hours_remaining"`
	Category       Category        `json:"category"`
	State          CompletionState `json:"state"`
}

// DashboardView is the aggregated dashboard for one semester.
type DashboardView struct {
	UserID       int64                 `json:"user_id"`
	UserName     string                `json:"user_name"`
	SemesterID   int64                 `json:"semester_id"`
	SemesterName string                `json:"semester_name"`
	Subjects     []Subject             `json:"subjects"`
	Menu         []SemesterMenuItem    `json:"menu"`
	Incomplete   []DashboardAssignment `json:"incomplete"`
	Complete     []DashboardAssignment `json:"complete"`
}

// CalendarEntry is a calendar row joined with its subject name.
type CalendarEntry struct {
	ID          int64           `db:"id" json:"id"`
	SubjectID   int64           `db:"subject_id" json:"subject_id"`
	SubjectName string          `db:"subject_name" json:"subject_name"`
	Name        string          `db:"name" json:"name"`
	DueAt       *time.Time      `db:"due_at" json:"due_at"`
	Category    Category        `db:"category" json:"category"`
	State       CompletionState `db:"state" json:"state"`
}

// CalendarView lists every assignment of a semester by due date.
type CalendarView struct {
	SemesterID   int64           `json:"semester_id"`
	SemesterName string          `json:"semester_name"`
	UserName     string          `json:"user_name"`
	Entries      []CalendarEntry `json:"entries"`
}

// SweepResult reports one due-soon sweep.
type SweepResult struct {
	Promoted  int64     `json:"promoted"`
	Skipped   bool      `json:"skipped"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	StartedAt time.Time `json:"started_at"`
	Duration  int64     `json:"duration_ms"`
}

// SweepTicket acknowledges an enqueued sweep.
type SweepTicket struct {
	JobID      string    `json:"job_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
