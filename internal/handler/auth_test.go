package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/GoArmGo/OrnaCloud/internal/logger"
	"github.com/GoArmGo/OrnaCloud/internal/usecase"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuth — AuthUseCase с заранее заданным результатом Resolve
type stubAuth struct {
	usecase.AuthUseCase
	info     *domain.SessionInfo
	err      error
	gotToken string
}

func (s *stubAuth) Resolve(_ context.Context, token string) (*domain.SessionInfo, error) {
	s.gotToken = token
	return s.info, s.err
}

func TestRequireSessionRenewsCookie(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	user := domain.User{ID: uuid.New(), Username: "ann"}
	auth := &stubAuth{info: &domain.SessionInfo{
		User:      user,
		Token:     "tok",
		ExpiresAt: now.Add(time.Hour),
		Renewed:   true,
	}}
	h := NewAuthHandler(auth, CookieConfig{Secure: true}, logger.Discard())
	h.now = func() time.Time { return now }

	var seen domain.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/memos", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	h.RequireSession(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", auth.gotToken)
	assert.Equal(t, user.ID, seen.ID)

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.Secure)
}

func TestRequireSessionWithoutRenewalKeepsCookie(t *testing.T) {
	auth := &stubAuth{info: &domain.SessionInfo{User: domain.User{ID: uuid.New()}, Token: "tok"}}
	h := NewAuthHandler(auth, CookieConfig{}, logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/memos", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	h.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, sessionCookie(rec))
}

func TestRequireSessionRejects(t *testing.T) {
	auth := &stubAuth{err: domain.NewError(domain.ErrUnauthorized, "session is invalid or expired")}
	h := NewAuthHandler(auth, CookieConfig{}, logger.Discard())

	called := false
	req := httptest.NewRequest(http.MethodGet, "/memos", nil)
	rec := httptest.NewRecorder()
	h.RequireSession(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "", auth.gotToken)
	assert.JSONEq(t, `{"error":"session is invalid or expired"}`, rec.Body.String())
}

func TestIdentityFromContextAnonymous(t *testing.T) {
	assert.True(t, IdentityFromContext(context.Background()).IsAnonymous())
}
