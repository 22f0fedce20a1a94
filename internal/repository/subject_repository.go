package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/subkeeper-api/internal/models"
)

const subjectColumns = `s.id, s.semester_id, s.name, s.created_at, s.updated_at`

// SubjectRepository provides database access for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindWithOwner returns a subject together with the user owning its semester.
func (r *SubjectRepository) FindWithOwner(ctx context.Context, id int64) (*models.SubjectOwner, error) {
	const query = `SELECT ` + subjectColumns + `, sem.user_id FROM subjects s JOIN semesters sem ON sem.id = s.semester_id WHERE s.id = $1`
	var subject models.SubjectOwner
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

// ListBySemester returns the subjects of a semester in creation order.
func (r *SubjectRepository) ListBySemester(ctx context.Context, semesterID int64) ([]models.Subject, error) {
	const query = `SELECT ` + subjectColumns + ` FROM subjects s WHERE s.semester_id = $1 ORDER BY s.id ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, semesterID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// ExistsByName reports whether the semester already has a subject with name.
func (r *SubjectRepository) ExistsByName(ctx context.Context, semesterID int64, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM subjects WHERE semester_id = $1 AND name = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, semesterID, name); err != nil {
		return false, fmt.Errorf("check subject name: %w", err)
	}
	return exists, nil
}

// Create inserts a subject and fills the generated columns.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	const query = `INSERT INTO subjects (semester_id, name) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	if err := r.db.QueryRowxContext(ctx, query, subject.SemesterID, subject.Name).Scan(&subject.ID, &subject.CreatedAt, &subject.UpdatedAt); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Delete removes a subject and, by cascade, its assignments.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM subjects WHERE id = $1`
	return deleteOne(ctx, r.db, "subject", query, id)
}
