package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subkeeper-api/internal/models"
)

var assignmentCols = []string{"id", "subject_id", "name", "due_at", "category", "state", "created_at", "updated_at"}

func TestAssignmentCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	due := now.Add(72 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assignments (subject_id, name, due_at, category, state) VALUES ($1, $2, $3, $4, $5) RETURNING")).
		WithArgs(int64(4), "HW1", &due, int64(0), int64(0)).
		WillReturnRows(sqlmock.NewRows(assignmentCols).AddRow(int64(11), int64(4), "HW1", due, int64(0), int64(0), now, now))

	assignment := &models.Assignment{SubjectID: 4, Name: "HW1", DueAt: &due}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.Equal(t, int64(11), assignment.ID)
	assert.Equal(t, models.StateIncomplete, assignment.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpdateStateLocksRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	due := now.Add(time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments a WHERE a.id = $1 FOR UPDATE")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(assignmentCols).AddRow(int64(11), int64(4), "HW1", due, int64(0), int64(1), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE assignments SET state = $1, updated_at = NOW() WHERE id = $2 RETURNING")).
		WithArgs(int64(2), int64(11)).
		WillReturnRows(sqlmock.NewRows(assignmentCols).AddRow(int64(11), int64(4), "HW1", due, int64(0), int64(2), now, now))
	mock.ExpectCommit()

	var seen models.CompletionState
	updated, err := repo.UpdateState(context.Background(), 11, func(current models.Assignment) models.CompletionState {
		seen = current.State
		return models.StateDueSoon
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateComplete, seen)
	assert.Equal(t, models.StateDueSoon, updated.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpdateStateNotFoundRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.UpdateState(context.Background(), 404, func(models.Assignment) models.CompletionState {
		t.Fatal("next must not be called for a missing row")
		return models.StateIncomplete
	})
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpdateFieldsKeepsState(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	oldDue := now.Add(96 * time.Hour)
	newDue := now.Add(2 * time.Hour)
	name := "HW1 (revised)"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(assignmentCols).AddRow(int64(11), int64(4), "HW1", oldDue, int64(0), int64(0), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE assignments SET subject_id = $1, name = $2, due_at = $3, category = $4, updated_at = NOW() WHERE id = $5")).
		WithArgs(int64(4), name, &newDue, int64(0), int64(11)).
		WillReturnRows(sqlmock.NewRows(assignmentCols).AddRow(int64(11), int64(4), name, newDue, int64(0), int64(0), now, now))
	mock.ExpectCommit()

	updated, err := repo.UpdateFields(context.Background(), 11, models.AssignmentPatch{Name: &name, DueAt: &newDue})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, models.StateIncomplete, updated.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListForDashboardFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	subjectID := int64(4)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN subjects s ON s.id = a.subject_id WHERE s.semester_id = $1 AND a.subject_id = $2 AND a.category = ANY($3) ORDER BY a.due_at DESC NULLS LAST, a.id DESC")).
		WithArgs(int64(2), int64(4), pq.Array([]int64{0, 2})).
		WillReturnRows(sqlmock.NewRows(assignmentCols).
			AddRow(int64(12), int64(4), "HW2", now.Add(48*time.Hour), int64(2), int64(0), now, now).
			AddRow(int64(11), int64(4), "HW1", now, int64(0), int64(1), now, now))

	assignments, err := repo.ListForDashboard(context.Background(), 2, models.AssignmentFilter{
		SubjectID:  &subjectID,
		Categories: []models.Category{models.CategoryAssignment, models.CategoryTodo},
	})
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, models.CategoryTodo, assignments[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListForDashboardUnfiltered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.semester_id = $1 ORDER BY")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(assignmentCols))

	assignments, err := repo.ListForDashboard(context.Background(), 2, models.AssignmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, assignments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListCalendar(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	day1 := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 8, 21, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY a.due_at ASC NULLS LAST, a.id ASC")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_id", "subject_name", "name", "due_at", "category", "state"}).
			AddRow(int64(3), int64(4), "Algorithms", "Quiz", day1, int64(1), int64(0)).
			AddRow(int64(1), int64(4), "Algorithms", "A", day2, int64(0), int64(0)).
			AddRow(int64(2), int64(5), "Databases", "B", day2, int64(2), int64(1)))

	entries, err := repo.ListCalendar(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Databases", entries[2].SubjectName)
	assert.Equal(t, models.CategoryLecture, entries[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentPromoteDueSoon(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	from := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	to := from.Add(48*time.Hour - time.Microsecond)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET state = $1, updated_at = NOW() WHERE state = $2 AND due_at BETWEEN $3 AND $4")).
		WithArgs(int64(2), int64(0), from, to).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET state = $1")).
		WithArgs(int64(2), int64(0), from, to).
		WillReturnError(errors.New("deadlock detected"))

	count, err := repo.PromoteDueSoon(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = repo.PromoteDueSoon(context.Background(), from, to)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE id = $1")).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Equal(t, sql.ErrNoRows, repo.Delete(context.Background(), 11))
	assert.NoError(t, mock.ExpectationsWereMet())
}
