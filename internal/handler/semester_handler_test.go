package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
)

type fakeSemesterSrv struct {
	err     error
	userID  int64
	deleted int64
}

func (f *fakeSemesterSrv) Create(_ context.Context, userID int64, req models.CreateSemesterRequest) (*models.Semester, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Semester{ID: 1, UserID: userID, Name: req.Name}, nil
}

func (f *fakeSemesterSrv) Delete(_ context.Context, userID, semesterID int64) error {
	f.userID, f.deleted = userID, semesterID
	return f.err
}

type fakeSubjectSrv struct {
	err        error
	semesterID int64
	deleted    int64
}

func (f *fakeSubjectSrv) Create(_ context.Context, userID, semesterID int64, req models.CreateSubjectRequest) (*models.Subject, error) {
	f.semesterID = semesterID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Subject{ID: 2, SemesterID: semesterID, Name: req.Name}, nil
}

func (f *fakeSubjectSrv) Delete(_ context.Context, userID, subjectID int64) error {
	f.deleted = subjectID
	return f.err
}

func TestSemesterHandlerCreate(t *testing.T) {
	srv := &fakeSemesterSrv{}
	handler := NewSemesterHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/semesters", map[string]string{"name": "2025-2"})
	withUser(c, 9)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(9), srv.userID)
	assert.Equal(t, "2025-2", decode(t, rec).Data["name"])
}

func TestSemesterHandlerCreateConflict(t *testing.T) {
	handler := NewSemesterHandler(&fakeSemesterSrv{err: appErrors.ErrSemesterNameTaken})

	c, rec := newTestContext(http.MethodPost, "/semesters", map[string]string{"name": "2025-2"})
	withUser(c, 9)
	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SEMESTER_NAME_TAKEN", decode(t, rec).Error.Code)
}

func TestSemesterHandlerDelete(t *testing.T) {
	srv := &fakeSemesterSrv{}
	handler := NewSemesterHandler(srv)

	c, rec := newTestContext(http.MethodDelete, "/semesters/5", nil)
	withUser(c, 9)
	withParam(c, "semId", "5")
	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(5), srv.deleted)
}

func TestSubjectHandlerCreate(t *testing.T) {
	srv := &fakeSubjectSrv{}
	handler := NewSubjectHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/semesters/5/subjects", map[string]string{"name": "Math"})
	withUser(c, 9)
	withParam(c, "semId", "5")
	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(5), srv.semesterID)

	srv.err = appErrors.ErrSubjectNameTaken
	c, rec = newTestContext(http.MethodPost, "/semesters/5/subjects", map[string]string{"name": "Math"})
	withUser(c, 9)
	withParam(c, "semId", "5")
	handler.Create(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubjectHandlerDeleteValidatesID(t *testing.T) {
	srv := &fakeSubjectSrv{}
	handler := NewSubjectHandler(srv)

	c, rec := newTestContext(http.MethodDelete, "/subjects/0", nil)
	withUser(c, 9)
	withParam(c, "subId", "0")
	handler.Delete(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, srv.deleted)
}
