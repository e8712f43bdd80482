package ports

import (
	"context"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/google/uuid"
)

// RecordStorage определяет методы хранилища для Memo и Invoice.
// Все выборки ограничены владельцем: чужая запись неотличима от отсутствующей (domain.ErrNotFound).
type RecordStorage[R domain.Record] interface {
	Create(ctx context.Context, rec R) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (R, error)
	List(ctx context.Context, ownerID uuid.UUID, filter domain.RecordFilter) ([]R, error)
	Update(ctx context.Context, rec R) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// MemoStorage добавляет выборку мемо с ближайшим сроком действия
type MemoStorage interface {
	RecordStorage[*domain.Memo]
	ListUpcoming(ctx context.Context, ownerID uuid.UUID, from domain.Date) ([]*domain.Memo, error)
}

// InvoiceStorage — хранилище счетов
type InvoiceStorage interface {
	RecordStorage[*domain.Invoice]
}

// CompanyStorage возвращает компании, с которыми работает пользователь
type CompanyStorage interface {
	ListCompanies(ctx context.Context, ownerID uuid.UUID) ([]string, error)
}

// UserStorage определяет методы для взаимодействия с хранилищем пользователей
type UserStorage interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// SessionStorage хранит серверные сессии
type SessionStorage interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	// ValidateSession возвращает владельца сессии, если она не истекла к моменту now
	ValidateSession(ctx context.Context, token string, now time.Time) (*domain.SessionInfo, error)
	RenewSession(ctx context.Context, token string, now, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// CategoryStorage — справочник категорий
type CategoryStorage interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CategoryExists(ctx context.Context, id int) (bool, error)
	SeedCategories(ctx context.Context, names []string) error
}
