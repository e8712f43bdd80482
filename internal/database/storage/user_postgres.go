package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, password_hash, name, lastname, age, category_id, created_at`

// UserStorage реализует интерфейс ports.UserStorage поверх sqlx
type UserStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewUserStorage(db *sqlx.DB, logger *slog.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

// CreateUser сохраняет нового пользователя. Занятое имя возвращает domain.ErrConflict.
func (s *UserStorage) CreateUser(ctx context.Context, user *domain.User) error {
	start := time.Now()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, name, lastname, age, category_id, created_at)
		VALUES (:id, :username, :password_hash, :name, :lastname, :age, :category_id, :created_at)
	`, user)
	if err != nil {
		if cerr := mapPQError(err, "username already exists"); cerr != nil {
			s.logger.Warn("user rejected by database", "username", user.Username, "error", cerr)
			return cerr
		}
		s.logger.Error("failed to insert user", "username", user.Username, "error", err)
		return fmt.Errorf("insert user: %w", err)
	}

	s.logger.Info("user created successfully",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *UserStorage) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *UserStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *UserStorage) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	start := time.Now()

	var user domain.User
	if err := s.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("user not found", "key", arg)
			return nil, domain.NewError(domain.ErrNotFound, "user not found")
		}
		s.logger.Error("failed to select user", "key", arg, "error", err)
		return nil, fmt.Errorf("select user: %w", err)
	}

	s.logger.Info("user found",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &user, nil
}
