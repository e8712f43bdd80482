package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CompanyStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewCompanyStorage(db *sqlx.DB, logger *slog.Logger) *CompanyStorage {
	return &CompanyStorage{db: db, logger: logger}
}

// ListCompanies возвращает уникальные компании из мемо и счетов пользователя
func (s *CompanyStorage) ListCompanies(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	start := time.Now()

	query := `
	SELECT company FROM memos WHERE user_id = $1
	UNION
	SELECT company FROM invoices WHERE user_id = $1
	ORDER BY company
	`

	companies := []string{}
	if err := s.db.SelectContext(ctx, &companies, query, ownerID); err != nil {
		s.logger.Error("failed to list companies", "user_id", ownerID, "error", err)
		return nil, fmt.Errorf("ошибка при получении списка компаний: %w", err)
	}

	s.logger.Info("listed companies",
		"user_id", ownerID,
		"count", len(companies),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return companies, nil
}
