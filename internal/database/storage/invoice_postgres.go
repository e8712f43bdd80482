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

const invoiceColumns = `id, user_id, title, invoice_number, wholesaler_details, buyer_details,
	items, total_value, company, email, created_at, updated_at`

type InvoiceStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewInvoiceStorage(db *sqlx.DB, logger *slog.Logger) *InvoiceStorage {
	return &InvoiceStorage{db: db, logger: logger}
}

// Create сохраняет новый счёт
func (s *InvoiceStorage) Create(ctx context.Context, invoice *domain.Invoice) error {
	start := time.Now()

	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}

	query := `
	INSERT INTO invoices (id, user_id, title, invoice_number, wholesaler_details, buyer_details,
		items, total_value, company, email, created_at, updated_at)
	VALUES (:id, :user_id, :title, :invoice_number, :wholesaler_details, :buyer_details,
		:items, :total_value, :company, :email, :created_at, :updated_at)
	`

	if _, err := s.db.NamedExecContext(ctx, query, invoice); err != nil {
		if cerr := mapPQError(err, "invoice_number already exists"); cerr != nil {
			s.logger.Warn("invoice rejected by database", "invoice_number", invoice.InvoiceNumber, "user_id", invoice.OwnerID, "error", cerr)
			return cerr
		}
		s.logger.Error("failed to save invoice", "invoice_number", invoice.InvoiceNumber, "error", err)
		return fmt.Errorf("ошибка при сохранении счёта: %w", err)
	}

	s.logger.Info("invoice saved successfully",
		"id", invoice.ID,
		"user_id", invoice.OwnerID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// GetByID получает счёт владельца по ID
func (s *InvoiceStorage) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Invoice, error) {
	start := time.Now()

	var invoice domain.Invoice
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND user_id = $2 LIMIT 1`

	if err := s.db.GetContext(ctx, &invoice, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("invoice not found by id", "id", id, "user_id", ownerID)
			return nil, domain.NewError(domain.ErrNotFound, "invoice not found")
		}
		s.logger.Error("failed to get invoice by id", "id", id, "error", err)
		return nil, fmt.Errorf("ошибка при получении счёта по ID: %w", err)
	}

	s.logger.Info("invoice retrieved by id",
		"id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &invoice, nil
}

// List возвращает счета владельца с учётом фильтра по компании
func (s *InvoiceStorage) List(ctx context.Context, ownerID uuid.UUID, filter domain.RecordFilter) ([]*domain.Invoice, error) {
	start := time.Now()

	q, args := companyClause(`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = $1`, []any{ownerID}, filter)
	q += ` ORDER BY created_at, id`

	invoices := []*domain.Invoice{}
	if err := s.db.SelectContext(ctx, &invoices, q, args...); err != nil {
		s.logger.Error("failed to list invoices", "user_id", ownerID, "company", filter.Company, "error", err)
		return nil, fmt.Errorf("ошибка при получении списка счетов: %w", err)
	}

	s.logger.Info("listed invoices successfully",
		"user_id", ownerID,
		"company", filter.Company,
		"prefix", filter.Prefix,
		"count", len(invoices),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return invoices, nil
}

func (s *InvoiceStorage) Update(ctx context.Context, invoice *domain.Invoice) error {
	start := time.Now()

	query := `
	UPDATE invoices SET
		title = :title,
		invoice_number = :invoice_number,
		wholesaler_details = :wholesaler_details,
		buyer_details = :buyer_details,
		items = :items,
		total_value = :total_value,
		company = :company,
		email = :email,
		updated_at = :updated_at
	WHERE id = :id AND user_id = :user_id
	`

	res, err := s.db.NamedExecContext(ctx, query, invoice)
	if err != nil {
		if cerr := mapPQError(err, "invoice_number already exists"); cerr != nil {
			return cerr
		}
		s.logger.Error("failed to update invoice", "id", invoice.ID, "error", err)
		return fmt.Errorf("ошибка при обновлении счёта: %w", err)
	}

	if err := expectAffected(res); err != nil {
		s.logger.Warn("invoice to update not found", "id", invoice.ID, "user_id", invoice.OwnerID)
		return domain.NewError(domain.ErrNotFound, "invoice not found")
	}

	s.logger.Info("invoice updated successfully",
		"id", invoice.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *InvoiceStorage) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	start := time.Now()

	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		s.logger.Error("failed to delete invoice", "id", id, "error", err)
		return fmt.Errorf("ошибка при удалении счёта: %w", err)
	}

	if err := expectAffected(res); err != nil {
		s.logger.Warn("invoice to delete not found", "id", id, "user_id", ownerID)
		return domain.NewError(domain.ErrNotFound, "invoice not found")
	}

	s.logger.Info("invoice deleted",
		"id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
