package usecase

import (
	"context"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/google/uuid"
)

// RecordUseCase определяет операции над деловыми документами (мемо и счета).
// Каждая операция выполняется от имени identity и видит только его записи.
type RecordUseCase[R domain.Record] interface {
	// Create проверяет и сохраняет запись, затем уведомляет покупателя (если указан email).
	// Ошибка уведомления не отменяет создание.
	Create(ctx context.Context, identity domain.Identity, patch domain.Patch[R]) (R, error)

	// List возвращает записи владельца, опционально отфильтрованные по компании
	List(ctx context.Context, identity domain.Identity, filter domain.RecordFilter) ([]R, error)

	Get(ctx context.Context, identity domain.Identity, id uuid.UUID) (R, error)

	// Update частично обновляет запись: меняются только переданные поля
	Update(ctx context.Context, identity domain.Identity, id uuid.UUID, patch domain.Patch[R]) (R, error)

	// Replace полностью заменяет содержимое записи; обязательные поля должны быть переданы
	Replace(ctx context.Context, identity domain.Identity, id uuid.UUID, patch domain.Patch[R]) (R, error)

	Delete(ctx context.Context, identity domain.Identity, id uuid.UUID) error
}

// MemoUseCase добавляет выборку актуальных мемо
type MemoUseCase interface {
	RecordUseCase[*domain.Memo]

	// Upcoming возвращает мемо, срок действия которых истекает сегодня или позже
	Upcoming(ctx context.Context, identity domain.Identity) ([]*domain.Memo, error)
}

type InvoiceUseCase interface {
	RecordUseCase[*domain.Invoice]
}

// CompanyUseCase возвращает компании, с которыми работает пользователь
type CompanyUseCase interface {
	ListCompanies(ctx context.Context, identity domain.Identity) ([]string, error)
}
