package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/subkeeper-api/internal/models"
)

const assignmentColumns = `a.id, a.subject_id, a.name, a.due_at, a.category, a.state, a.created_at, a.updated_at`

const assignmentReturning = `RETURNING id, subject_id, name, due_at, category, state, created_at, updated_at`

// AssignmentRepository provides database access for assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindWithOwner returns an assignment together with the user owning it.
func (r *AssignmentRepository) FindWithOwner(ctx context.Context, id int64) (*models.AssignmentOwner, error) {
	const query = `SELECT ` + assignmentColumns + `, sem.user_id FROM assignments a
JOIN subjects s ON s.id = a.subject_id
JOIN semesters sem ON sem.id = s.semester_id
WHERE a.id = $1`
	var assignment models.AssignmentOwner
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// Create inserts an assignment and fills the generated columns.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	const query = `INSERT INTO assignments (subject_id, name, due_at, category, state) VALUES ($1, $2, $3, $4, $5) ` + assignmentReturning
	if err := r.db.QueryRowxContext(ctx, query, assignment.SubjectID, assignment.Name, assignment.DueAt, assignment.Category, assignment.State).StructScan(assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// UpdateState locks the assignment row, asks next for the new state and
// persists it in the same transaction.
func (r *AssignmentRepository) UpdateState(ctx context.Context, id int64, next func(current models.Assignment) models.CompletionState) (*models.Assignment, error) {
	var updated models.Assignment
	err := r.withLockedRow(ctx, id, func(tx *sqlx.Tx, current *models.Assignment) error {
		const query = `UPDATE assignments SET state = $1, updated_at = NOW() WHERE id = $2 ` + assignmentReturning
		if err := tx.QueryRowxContext(ctx, query, next(*current), id).StructScan(&updated); err != nil {
			return fmt.Errorf("update assignment state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateFields applies patch under a row lock. The stored state is left as is.
func (r *AssignmentRepository) UpdateFields(ctx context.Context, id int64, patch models.AssignmentPatch) (*models.Assignment, error) {
	var updated models.Assignment
	err := r.withLockedRow(ctx, id, func(tx *sqlx.Tx, current *models.Assignment) error {
		next := *current
		if patch.SubjectID != nil {
			next.SubjectID = *patch.SubjectID
		}
		if patch.Name != nil {
			next.Name = *patch.Name
		}
		if patch.DueAt != nil {
			next.DueAt = patch.DueAt
		}
		if patch.Category != nil {
			next.Category = *patch.Category
		}
		const query = `UPDATE assignments SET subject_id = $1, name = $2, due_at = $3, category = $4,
updated_at = NOW() WHERE id = $5 ` + assignmentReturning
		if err := tx.QueryRowxContext(ctx, query, next.SubjectID, next.Name, next.DueAt, next.Category, id).StructScan(&updated); err != nil {
			return fmt.Errorf("update assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *AssignmentRepository) withLockedRow(ctx context.Context, id int64, fn func(tx *sqlx.Tx, current *models.Assignment) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const lockQuery = `SELECT ` + assignmentColumns + ` FROM assignments a WHERE a.id = $1 FOR UPDATE`
	var current models.Assignment
	if err = tx.GetContext(ctx, &current, lockQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock assignment: %w", err)
	}
	if err = fn(tx, &current); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM assignments WHERE id = $1`
	return deleteOne(ctx, r.db, "assignment", query, id)
}

// ListForDashboard returns the semester's assignments narrowed by filter,
// latest due date first and most recently inserted first on ties.
func (r *AssignmentRepository) ListForDashboard(ctx context.Context, semesterID int64, filter models.AssignmentFilter) ([]models.Assignment, error) {
	conditions := []string{"s.semester_id = $1"}
	args := []interface{}{semesterID}
	if filter.SubjectID != nil {
		args = append(args, *filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("a.subject_id = $%d", len(args)))
	}
	if len(filter.Categories) > 0 {
		categories := make([]int64, len(filter.Categories))
		for i, c := range filter.Categories {
			categories[i] = int64(c)
		}
		args = append(args, pq.Array(categories))
		conditions = append(conditions, fmt.Sprintf("a.category = ANY($%d)", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM assignments a JOIN subjects s ON s.id = a.subject_id WHERE %s ORDER BY a.due_at DESC NULLS LAST, a.id DESC`,
		assignmentColumns, strings.Join(conditions, " AND "))

	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list dashboard assignments: %w", err)
	}
	return assignments, nil
}

// ListCalendar returns every assignment of the semester joined with its
// subject name, earliest due date first and by id on ties.
func (r *AssignmentRepository) ListCalendar(ctx context.Context, semesterID int64) ([]models.CalendarEntry, error) {
	const query = `SELECT a.id, a.subject_id, s.name AS subject_name, a.name, a.due_at, a.category, a.state
FROM assignments a JOIN subjects s ON s.id = a.subject_id
WHERE s.semester_id = $1
ORDER BY a.due_at ASC NULLS LAST, a.id ASC`
	var entries []models.CalendarEntry
	if err := r.db.SelectContext(ctx, &entries, query, semesterID); err != nil {
		return nil, fmt.Errorf("list calendar: %w", err)
	}
	return entries, nil
}

// PromoteDueSoon moves every incomplete assignment due within [from, to] to
// the due-soon state in a single statement and returns the rows changed.
func (r *AssignmentRepository) PromoteDueSoon(ctx context.Context, from, to time.Time) (int64, error) {
	const query = `UPDATE assignments SET state = $1, updated_at = NOW() WHERE state = $2 AND due_at BETWEEN $3 AND $4`
	res, err := r.db.ExecContext(ctx, query, models.StateDueSoon, models.StateIncomplete, from, to)
	if err != nil {
		return 0, fmt.Errorf("promote due soon: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("promote due soon rows affected: %w", err)
	}
	return affected, nil
}
