package usecase

import (
	"context"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
)

// SignupInput — данные регистрации
type SignupInput struct {
	Username   string `json:"username" validate:"required,max=255"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	Name       string `json:"name" validate:"required,max=255"`
	Lastname   string `json:"lastname" validate:"required,max=255"`
	Age        int    `json:"age" validate:"required,gte=18,lte=150"`
	CategoryID int    `json:"category_id" validate:"required"`
}

// LoginInput — учётные данные для входа
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult — пользователь и выданная ему сессия
type AuthResult struct {
	Identity  domain.Identity
	Token     string
	ExpiresAt time.Time
}

// AuthUseCase определяет бизнес-логику аутентификации на серверных сессиях
type AuthUseCase interface {
	// Signup регистрирует пользователя и сразу открывает для него сессию
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)

	// Login проверяет пароль и открывает новую сессию
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)

	// Logout закрывает сессию. Повторный вызов не является ошибкой.
	Logout(ctx context.Context, token string) error

	// CheckSession сообщает, кто вошёл в систему; ошибки хранилища трактуются как "никто"
	CheckSession(ctx context.Context, token string) (domain.Identity, bool)

	// Resolve проверяет сессию для защищённых маршрутов и продлевает её при необходимости.
	// Невалидная сессия возвращает domain.ErrUnauthorized.
	Resolve(ctx context.Context, token string) (*domain.SessionInfo, error)

	// PurgeExpiredSessions удаляет истёкшие сессии
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// CategoryUseCase — справочник категорий пользователей
type CategoryUseCase interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	// EnsureDefaults засевает стандартные категории
	EnsureDefaults(ctx context.Context) error
}
