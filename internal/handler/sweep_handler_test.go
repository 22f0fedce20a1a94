package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
)

type fakeDispatcher struct {
	source string
	err    error
}

func (f *fakeDispatcher) Dispatch(source string) (*models.SweepTicket, error) {
	f.source = source
	if f.err != nil {
		return nil, f.err
	}
	return &models.SweepTicket{JobID: "job-1", EnqueuedAt: time.Now()}, nil
}

func TestSweepHandlerTrigger(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	handler := NewSweepHandler(dispatcher, []int64{9})

	c, rec := newTestContext(http.MethodPost, "/admin/sweeps", nil)
	withUser(c, 9)
	handler.Trigger(c)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "api:user:9", dispatcher.source)
	assert.Equal(t, "job-1", decode(t, rec).Data["job_id"])
}

func TestSweepHandlerQueueFull(t *testing.T) {
	handler := NewSweepHandler(&fakeDispatcher{err: appErrors.Wrap(errors.New("queue full"), appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "a sweep is already pending")}, []int64{9})

	c, rec := newTestContext(http.MethodPost, "/admin/sweeps", nil)
	withUser(c, 9)
	handler.Trigger(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSweepHandlerRejectsNonOperators(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	handler := NewSweepHandler(dispatcher, []int64{1})

	c, rec := newTestContext(http.MethodPost, "/admin/sweeps", nil)
	withUser(c, 9)
	handler.Trigger(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, dispatcher.source)

	c, rec = newTestContext(http.MethodPost, "/admin/sweeps", nil)
	handler.Trigger(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, dispatcher.source)
}

func TestSweepHandlerDisabledWithoutOperators(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	handler := NewSweepHandler(dispatcher, nil)

	c, rec := newTestContext(http.MethodPost, "/admin/sweeps", nil)
	withUser(c, 9)
	handler.Trigger(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, dispatcher.source)
}
