package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/subkeeper-api/internal/models"
)

const semesterColumns = `id, user_id, name, created_at, updated_at`

// SemesterRepository provides database access for semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs a SemesterRepository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// FindByID returns a semester by identifier.
func (r *SemesterRepository) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	const query = `SELECT ` + semesterColumns + ` FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find semester: %w", err)
	}
	return &semester, nil
}

// FindLatestByUser returns the most recently created semester of a user.
func (r *SemesterRepository) FindLatestByUser(ctx context.Context, userID int64) (*models.Semester, error) {
	const query = `SELECT ` + semesterColumns + ` FROM semesters WHERE user_id = $1 ORDER BY id DESC LIMIT 1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find latest semester: %w", err)
	}
	return &semester, nil
}

// ListByUser returns the semesters of a user, most recent first.
func (r *SemesterRepository) ListByUser(ctx context.Context, userID int64) ([]models.Semester, error) {
	const query = `SELECT ` + semesterColumns + ` FROM semesters WHERE user_id = $1 ORDER BY id DESC`
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, userID); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// ExistsByName reports whether the user already has a semester with name.
func (r *SemesterRepository) ExistsByName(ctx context.Context, userID int64, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM semesters WHERE user_id = $1 AND name = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, name); err != nil {
		return false, fmt.Errorf("check semester name: %w", err)
	}
	return exists, nil
}

// Create inserts a semester and fills the generated columns.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	const query = `INSERT INTO semesters (user_id, name) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	if err := r.db.QueryRowxContext(ctx, query, semester.UserID, semester.Name).Scan(&semester.ID, &semester.CreatedAt, &semester.UpdatedAt); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// Delete removes a semester. Subjects and assignments go with it through the
// ON DELETE CASCADE foreign keys.
func (r *SemesterRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM semesters WHERE id = $1`
	return deleteOne(ctx, r.db, "semester", query, id)
}

func deleteOne(ctx context.Context, db *sqlx.DB, kind, query string, id int64) error {
	res, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s rows affected: %w", kind, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
