package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/jmoiron/sqlx"
)

type SessionStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewSessionStorage(db *sqlx.DB, logger *slog.Logger) *SessionStorage {
	return &SessionStorage{db: db, logger: logger}
}

func (s *SessionStorage) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, last_activity)
		VALUES (:token, :user_id, :expires_at, :last_activity)
	`, session)
	if err != nil {
		s.logger.Error("failed to create session", "user_id", session.UserID, "error", err)
		return fmt.Errorf("ошибка при создании сессии: %w", err)
	}

	s.logger.Info("session created", "user_id", session.UserID, "expires_at", session.ExpiresAt)
	return nil
}

// sessionRow — строка sessions JOIN users
type sessionRow struct {
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	domain.User
}

// ValidateSession возвращает владельца действующей сессии.
// Отсутствующая или истёкшая сессия даёт domain.ErrUnauthorized.
func (s *SessionStorage) ValidateSession(ctx context.Context, token string, now time.Time) (*domain.SessionInfo, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `
		SELECT s.token, s.expires_at,
			u.id, u.username, u.password_hash, u.name, u.lastname, u.age, u.category_id, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > $2
	`, token, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.ErrUnauthorized, "session is invalid or expired")
		}
		s.logger.Error("failed to validate session", "error", err)
		return nil, fmt.Errorf("ошибка при проверке сессии: %w", err)
	}

	return &domain.SessionInfo{User: row.User, Token: row.Token, ExpiresAt: row.ExpiresAt}, nil
}

func (s *SessionStorage) RenewSession(ctx context.Context, token string, now, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = $2, last_activity = $3 WHERE token = $1`,
		token, expiresAt, now)
	if err != nil {
		s.logger.Error("failed to renew session", "error", err)
		return fmt.Errorf("ошибка при продлении сессии: %w", err)
	}
	return nil
}

// DeleteSession удаляет сессию; отсутствие сессии не считается ошибкой
func (s *SessionStorage) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		s.logger.Error("failed to delete session", "error", err)
		return fmt.Errorf("ошибка при удалении сессии: %w", err)
	}
	return nil
}

func (s *SessionStorage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	start := time.Now()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		s.logger.Error("failed to delete expired sessions", "error", err)
		return 0, fmt.Errorf("ошибка при очистке сессий: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ошибка при очистке сессий: %w", err)
	}

	s.logger.Info("expired sessions removed",
		"count", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return n, nil
}
