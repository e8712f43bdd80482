package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/GoArmGo/OrnaCloud/internal/usecase"
)

// SessionCookieName — имя cookie с токеном сессии
const SessionCookieName = "session"

// CookieConfig — параметры cookie сессии
type CookieConfig struct {
	Secure bool
}

// AuthHandler — обработчик регистрации, входа и проверки сессии.
type AuthHandler struct {
	auth   usecase.AuthUseCase
	cookie CookieConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthHandler создаёт новый экземпляр AuthHandler.
func NewAuthHandler(auth usecase.AuthUseCase, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie, logger: logger, now: time.Now}
}

// Signup — POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in usecase.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	res, err := h.auth.Signup(r.Context(), in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	respondWithJSON(w, http.StatusCreated, res.Identity, h.logger)
}

// Login — POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in usecase.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	res, err := h.auth.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	respondWithJSON(w, http.StatusOK, res.Identity, h.logger)
}

// Logout — DELETE /logout. Cookie очищается в любом случае.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.auth.Logout(r.Context(), sessionToken(r))
	h.clearSessionCookie(w)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Check — GET /check: текущий пользователь или 401
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.auth.CheckSession(r.Context(), sessionToken(r))
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated", h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, identity, h.logger)
}

// RequireSession пропускает запрос только с действующей сессией и кладёт
// domain.Identity в контекст запроса.
func (h *AuthHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := h.auth.Resolve(r.Context(), sessionToken(r))
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		if info.Renewed {
			h.setSessionCookie(w, info.Token, info.ExpiresAt)
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), info.User.Identity())))
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(h.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

type identityKey struct{}

// WithIdentity кладёт пользователя в контекст
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext возвращает пользователя, положенного RequireSession.
// Без него возвращается анонимная identity.
func IdentityFromContext(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityKey{}).(domain.Identity)
	return identity
}
