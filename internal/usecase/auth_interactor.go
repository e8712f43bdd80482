package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/core/ports"
	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenBytes = 32

var errInvalidCredentials = domain.NewError(domain.ErrUnauthorized, "invalid username or password")

// AuthConfig — параметры сессий и хеширования
type AuthConfig struct {
	SessionTTL time.Duration
	BcryptCost int
}

// authUseCase implements AuthUseCase
type authUseCase struct {
	users      ports.UserStorage
	sessions   ports.SessionStorage
	categories ports.CategoryStorage
	cfg        AuthConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthUseCase создает новый экземпляр AuthUseCase
func NewAuthUseCase(
	users ports.UserStorage,
	sessions ports.SessionStorage,
	categories ports.CategoryStorage,
	cfg AuthConfig,
	logger *slog.Logger,
) AuthUseCase {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &authUseCase{
		users:      users,
		sessions:   sessions,
		categories: categories,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

const maxPasswordBytes = 72

func (uc *authUseCase) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Lastname = strings.TrimSpace(in.Lastname)

	if err := domain.ValidateStruct(in); err != nil {
		return nil, err
	}
	// bcrypt ограничивает длину в байтах, а max в тегах считает символы
	if len(in.Password) > maxPasswordBytes {
		return nil, domain.Validation("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}

	ok, err := uc.categories.CategoryExists(ctx, in.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при проверке категории: %w", err)
	}
	if !ok {
		return nil, domain.Validation("category_id", "category_id does not exist")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка хеширования пароля: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     in.Username,
		PasswordHash: string(hash),
		Name:         in.Name,
		Lastname:     in.Lastname,
		Age:          in.Age,
		CategoryID:   in.CategoryID,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	uc.logger.Info("user signed up", "user_id", user.ID, "username", user.Username)
	return uc.openSession(ctx, user)
}

func (uc *authUseCase) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := domain.ValidateStruct(in); err != nil {
		return nil, err
	}

	user, err := uc.users.GetUserByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warn("login for unknown user", "username", in.Username)
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("usecase: ошибка при поиске пользователя: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		uc.logger.Warn("login with wrong password", "user_id", user.ID)
		return nil, errInvalidCredentials
	}

	uc.logger.Info("user logged in", "user_id", user.ID)
	return uc.openSession(ctx, user)
}

func (uc *authUseCase) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := uc.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("usecase: ошибка при завершении сессии: %w", err)
	}
	return nil
}

func (uc *authUseCase) CheckSession(ctx context.Context, token string) (domain.Identity, bool) {
	info, err := uc.Resolve(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			uc.logger.Error("session check failed", "error", err)
		}
		return domain.Identity{}, false
	}
	return info.User.Identity(), true
}

func (uc *authUseCase) Resolve(ctx context.Context, token string) (*domain.SessionInfo, error) {
	if token == "" {
		return nil, domain.NewError(domain.ErrUnauthorized, "authentication required")
	}

	now := uc.now().UTC()
	info, err := uc.sessions.ValidateSession(ctx, token, now)
	if err != nil {
		return nil, err
	}

	// продлеваем сессию, когда прошла половина срока
	if info.ExpiresAt.Sub(now) < uc.cfg.SessionTTL/2 {
		expiresAt := now.Add(uc.cfg.SessionTTL)
		if err := uc.sessions.RenewSession(ctx, token, now, expiresAt); err != nil {
			uc.logger.Warn("failed to renew session", "user_id", info.User.ID, "error", err)
		} else {
			info.ExpiresAt = expiresAt
			info.Renewed = true
		}
	}
	return info, nil
}

func (uc *authUseCase) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return uc.sessions.DeleteExpiredSessions(ctx, uc.now().UTC())
}

func (uc *authUseCase) openSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка генерации токена: %w", err)
	}

	now := uc.now().UTC()
	session := &domain.Session{
		Token:        token,
		UserID:       user.ID,
		ExpiresAt:    now.Add(uc.cfg.SessionTTL),
		LastActivity: now,
	}
	if err := uc.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при создании сессии: %w", err)
	}

	return &AuthResult{Identity: user.Identity(), Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// categoryUseCase implements CategoryUseCase
type categoryUseCase struct {
	categories ports.CategoryStorage
}

func NewCategoryUseCase(categories ports.CategoryStorage) CategoryUseCase {
	return &categoryUseCase{categories: categories}
}

func (uc *categoryUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return uc.categories.ListCategories(ctx)
}

func (uc *categoryUseCase) EnsureDefaults(ctx context.Context) error {
	return uc.categories.SeedCategories(ctx, domain.DefaultCategories)
}
