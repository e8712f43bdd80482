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

const memoColumns = `id, user_id, title, memo_number, expiry_date, wholesaler_details, buyer_details,
	items, total_value, remarks, company, email, created_at, updated_at`

type MemoStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewMemoStorage(db *sqlx.DB, logger *slog.Logger) *MemoStorage {
	return &MemoStorage{db: db, logger: logger}
}

// Create сохраняет новое мемо
func (s *MemoStorage) Create(ctx context.Context, memo *domain.Memo) error {
	start := time.Now()

	if memo.ID == uuid.Nil {
		memo.ID = uuid.New()
	}

	query := `
	INSERT INTO memos (id, user_id, title, memo_number, expiry_date, wholesaler_details, buyer_details,
		items, total_value, remarks, company, email, created_at, updated_at)
	VALUES (:id, :user_id, :title, :memo_number, :expiry_date, :wholesaler_details, :buyer_details,
		:items, :total_value, :remarks, :company, :email, :created_at, :updated_at)
	`

	if _, err := s.db.NamedExecContext(ctx, query, memo); err != nil {
		if cerr := mapPQError(err, "memo_number already exists"); cerr != nil {
			s.logger.Warn("memo rejected by database", "memo_number", memo.MemoNumber, "user_id", memo.OwnerID, "error", cerr)
			return cerr
		}
		s.logger.Error("failed to save memo", "memo_number", memo.MemoNumber, "error", err)
		return fmt.Errorf("ошибка при сохранении мемо: %w", err)
	}

	s.logger.Info("memo saved successfully",
		"id", memo.ID,
		"user_id", memo.OwnerID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// GetByID получает мемо владельца по ID
func (s *MemoStorage) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Memo, error) {
	start := time.Now()

	var memo domain.Memo
	query := `SELECT ` + memoColumns + ` FROM memos WHERE id = $1 AND user_id = $2 LIMIT 1`

	if err := s.db.GetContext(ctx, &memo, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("memo not found by id", "id", id, "user_id", ownerID)
			return nil, domain.NewError(domain.ErrNotFound, "memo not found")
		}
		s.logger.Error("failed to get memo by id", "id", id, "error", err)
		return nil, fmt.Errorf("ошибка при получении мемо по ID: %w", err)
	}

	s.logger.Info("memo retrieved by id",
		"id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &memo, nil
}

// List возвращает мемо владельца, опционально отфильтрованные по компании
func (s *MemoStorage) List(ctx context.Context, ownerID uuid.UUID, filter domain.RecordFilter) ([]*domain.Memo, error) {
	start := time.Now()

	q, args := companyClause(`SELECT `+memoColumns+` FROM memos WHERE user_id = $1`, []any{ownerID}, filter)
	q += ` ORDER BY created_at, id`

	memos := []*domain.Memo{}
	if err := s.db.SelectContext(ctx, &memos, q, args...); err != nil {
		s.logger.Error("failed to list memos", "user_id", ownerID, "company", filter.Company, "error", err)
		return nil, fmt.Errorf("ошибка при получении списка мемо: %w", err)
	}

	s.logger.Info("listed memos successfully",
		"user_id", ownerID,
		"company", filter.Company,
		"prefix", filter.Prefix,
		"count", len(memos),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return memos, nil
}

// ListUpcoming возвращает мемо, срок действия которых не истёк на дату from
func (s *MemoStorage) ListUpcoming(ctx context.Context, ownerID uuid.UUID, from domain.Date) ([]*domain.Memo, error) {
	start := time.Now()

	q := `
	SELECT ` + memoColumns + ` FROM memos
	WHERE user_id = $1 AND expiry_date IS NOT NULL AND expiry_date >= $2
	ORDER BY expiry_date, id
	`

	memos := []*domain.Memo{}
	if err := s.db.SelectContext(ctx, &memos, q, ownerID, from); err != nil {
		s.logger.Error("failed to list upcoming memos", "user_id", ownerID, "error", err)
		return nil, fmt.Errorf("ошибка при получении актуальных мемо: %w", err)
	}

	s.logger.Info("listed upcoming memos",
		"user_id", ownerID,
		"from", from.String(),
		"count", len(memos),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return memos, nil
}

// Update перезаписывает поля мемо; запись должна принадлежать memo.OwnerID
func (s *MemoStorage) Update(ctx context.Context, memo *domain.Memo) error {
	start := time.Now()

	query := `
	UPDATE memos SET
		title = :title,
		memo_number = :memo_number,
		expiry_date = :expiry_date,
		wholesaler_details = :wholesaler_details,
		buyer_details = :buyer_details,
		items = :items,
		total_value = :total_value,
		remarks = :remarks,
		company = :company,
		email = :email,
		updated_at = :updated_at
	WHERE id = :id AND user_id = :user_id
	`

	res, err := s.db.NamedExecContext(ctx, query, memo)
	if err != nil {
		if cerr := mapPQError(err, "memo_number already exists"); cerr != nil {
			return cerr
		}
		s.logger.Error("failed to update memo", "id", memo.ID, "error", err)
		return fmt.Errorf("ошибка при обновлении мемо: %w", err)
	}

	if err := expectAffected(res); err != nil {
		s.logger.Warn("memo to update not found", "id", memo.ID, "user_id", memo.OwnerID)
		return domain.NewError(domain.ErrNotFound, "memo not found")
	}

	s.logger.Info("memo updated successfully",
		"id", memo.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Delete удаляет мемо владельца
func (s *MemoStorage) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	start := time.Now()

	res, err := s.db.ExecContext(ctx, `DELETE FROM memos WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		s.logger.Error("failed to delete memo", "id", id, "error", err)
		return fmt.Errorf("ошибка при удалении мемо: %w", err)
	}

	if err := expectAffected(res); err != nil {
		s.logger.Warn("memo to delete not found", "id", id, "user_id", ownerID)
		return domain.NewError(domain.ErrNotFound, "memo not found")
	}

	s.logger.Info("memo deleted",
		"id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// expectAffected возвращает sql.ErrNoRows, если запрос не затронул ни одной строки
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
