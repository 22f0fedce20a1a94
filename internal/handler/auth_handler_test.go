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

type fakeAuthSrv struct {
	resp       *models.LoginResponse
	err        error
	credential string
	name       string
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.credential = req.Credential
	return f.resp, f.err
}

func (f *fakeAuthSrv) Register(_ context.Context, req models.CreateUserRequest) (*models.LoginResponse, error) {
	f.name = req.Name
	return f.resp, f.err
}

type fakeProfileSrv struct {
	profile *models.UserProfile
	userID  int64
}

func (f *fakeProfileSrv) Profile(_ context.Context, userID int64) (*models.UserProfile, error) {
	f.userID = userID
	if f.profile == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return f.profile, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	lastSem := int64(3)
	srv := &fakeAuthSrv{resp: &models.LoginResponse{AccessToken: "token", User: models.UserProfile{ID: 1, LastSemID: &lastSem}}}
	handler := NewAuthHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/auth/login", map[string]string{"credential": "id-token"})
	handler.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id-token", srv.credential)
	envelope := decode(t, rec)
	assert.Equal(t, "token", envelope.Data["access_token"])
	assert.Equal(t, float64(3), envelope.Data["user"].(map[string]interface{})["last_sem_id"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAuthHandlerLoginPropagatesErrors(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{err: appErrors.ErrInvalidCredential})
	c, rec := newTestContext(http.MethodPost, "/auth/login", map[string]string{"credential": "forged"})
	handler.Login(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIAL", decode(t, rec).Error.Code)
}

func TestAuthHandlerRegister(t *testing.T) {
	srv := &fakeAuthSrv{resp: &models.LoginResponse{AccessToken: "token", Created: true}}
	handler := NewAuthHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/users", map[string]string{"name": "Jiwoo"})
	handler.Register(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Jiwoo", srv.name)
}

func TestUserHandlerMe(t *testing.T) {
	srv := &fakeProfileSrv{profile: &models.UserProfile{ID: 9, Name: "Jiwoo"}}
	handler := NewUserHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/me", nil)
	withUser(c, 9)
	handler.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), srv.userID)
	assert.Nil(t, decode(t, rec).Data["last_sem_id"])

	c, rec = newTestContext(http.MethodGet, "/me", nil)
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
