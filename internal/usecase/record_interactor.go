package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/core/ports"
	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/GoArmGo/OrnaCloud/internal/messaging/payloads"
	"github.com/GoArmGo/OrnaCloud/internal/metrics"
	"github.com/google/uuid"
)

// RecordConfig — общие параметры usecase'ов документов
type RecordConfig struct {
	NotifyTimeout time.Duration
}

// recordUseCase implements RecordUseCase для любого вида документа
type recordUseCase[R domain.Record] struct {
	storage   ports.RecordStorage[R]
	publisher ports.NotificationPublisher
	newRecord func() R
	cfg       RecordConfig
	logger    *slog.Logger
	now       func() time.Time
}

func newRecordUseCase[R domain.Record](
	storage ports.RecordStorage[R],
	publisher ports.NotificationPublisher,
	newRecord func() R,
	cfg RecordConfig,
	logger *slog.Logger,
) *recordUseCase[R] {
	return &recordUseCase[R]{
		storage:   storage,
		publisher: publisher,
		newRecord: newRecord,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (uc *recordUseCase[R]) Create(ctx context.Context, identity domain.Identity, patch domain.Patch[R]) (R, error) {
	var zero R
	if err := requireIdentity(identity); err != nil {
		return zero, err
	}
	if err := patch.Complete(); err != nil {
		return zero, err
	}

	rec := uc.newRecord()
	patch.Apply(rec)
	rec.SetID(uuid.New())
	rec.SetOwnerID(identity.ID)
	rec.Touch(uc.now().UTC())

	if err := rec.Validate(); err != nil {
		return zero, err
	}
	if err := uc.storage.Create(ctx, rec); err != nil {
		return zero, err
	}

	metrics.RecordOperation(string(rec.Kind()), "create")
	uc.logger.Info("record created", "kind", rec.Kind(), "id", rec.GetID(), "user_id", identity.ID)

	if err := uc.notify(ctx, rec); err != nil {
		uc.logger.Warn("record created without notification",
			"kind", rec.Kind(),
			"id", rec.GetID(),
			"error", err,
		)
	}
	return rec, nil
}

func (uc *recordUseCase[R]) List(ctx context.Context, identity domain.Identity, filter domain.RecordFilter) ([]R, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	return uc.storage.List(ctx, identity.ID, filter)
}

func (uc *recordUseCase[R]) Get(ctx context.Context, identity domain.Identity, id uuid.UUID) (R, error) {
	var zero R
	if err := requireIdentity(identity); err != nil {
		return zero, err
	}
	return uc.storage.GetByID(ctx, identity.ID, id)
}

func (uc *recordUseCase[R]) Update(ctx context.Context, identity domain.Identity, id uuid.UUID, patch domain.Patch[R]) (R, error) {
	var zero R
	if err := requireIdentity(identity); err != nil {
		return zero, err
	}

	rec, err := uc.storage.GetByID(ctx, identity.ID, id)
	if err != nil {
		return zero, err
	}
	patch.Apply(rec)
	return uc.save(ctx, rec, "update")
}

func (uc *recordUseCase[R]) Replace(ctx context.Context, identity domain.Identity, id uuid.UUID, patch domain.Patch[R]) (R, error) {
	var zero R
	if err := requireIdentity(identity); err != nil {
		return zero, err
	}
	if err := patch.Complete(); err != nil {
		return zero, err
	}

	existing, err := uc.storage.GetByID(ctx, identity.ID, id)
	if err != nil {
		return zero, err
	}
	rec := uc.newRecord()
	patch.Apply(rec)
	rec.CopyMeta(existing)
	return uc.save(ctx, rec, "replace")
}

func (uc *recordUseCase[R]) Delete(ctx context.Context, identity domain.Identity, id uuid.UUID) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if err := uc.storage.Delete(ctx, identity.ID, id); err != nil {
		return err
	}
	metrics.RecordOperation(string(uc.newRecord().Kind()), "delete")
	return nil
}

// save проверяет изменённую запись и сохраняет её
func (uc *recordUseCase[R]) save(ctx context.Context, rec R, operation string) (R, error) {
	var zero R
	rec.Touch(uc.now().UTC())
	if err := rec.Validate(); err != nil {
		return zero, err
	}
	if err := uc.storage.Update(ctx, rec); err != nil {
		return zero, err
	}
	metrics.RecordOperation(string(rec.Kind()), operation)
	return rec, nil
}

// notify публикует уведомление о созданной записи.
// Публикация ограничена NotifyTimeout и не зависит от отмены запроса клиентом.
func (uc *recordUseCase[R]) notify(ctx context.Context, rec R) error {
	recipient := rec.NotifyEmail()
	if recipient == "" || uc.publisher == nil {
		return nil
	}

	payload := payloads.NewNotification(rec.Kind().Title(), rec.GetID(), recipient, rec.Summary(), uc.now().UTC())

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.NotifyTimeout)
	defer cancel()

	err := uc.publisher.PublishNotification(pubCtx, payload)
	metrics.Notification(string(rec.Kind()), "publish", err)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotificationFailure, err)
	}

	uc.logger.Info("notification published", "kind", rec.Kind(), "record_id", rec.GetID())
	return nil
}

func requireIdentity(identity domain.Identity) error {
	if identity.IsAnonymous() {
		return domain.NewError(domain.ErrUnauthorized, "authentication required")
	}
	return nil
}

// memoUseCase implements MemoUseCase
type memoUseCase struct {
	*recordUseCase[*domain.Memo]
	memos ports.MemoStorage
}

// NewMemoUseCase создает usecase мемо поверх общего usecase документов
func NewMemoUseCase(memos ports.MemoStorage, publisher ports.NotificationPublisher, cfg RecordConfig, logger *slog.Logger) MemoUseCase {
	return &memoUseCase{
		recordUseCase: newRecordUseCase[*domain.Memo](memos, publisher, domain.NewMemo, cfg, logger),
		memos:         memos,
	}
}

func (uc *memoUseCase) Upcoming(ctx context.Context, identity domain.Identity) ([]*domain.Memo, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	y, m, d := uc.now().Date()
	return uc.memos.ListUpcoming(ctx, identity.ID, domain.NewDate(y, m, d))
}

// invoiceUseCase implements InvoiceUseCase
type invoiceUseCase struct {
	*recordUseCase[*domain.Invoice]
}

func NewInvoiceUseCase(invoices ports.InvoiceStorage, publisher ports.NotificationPublisher, cfg RecordConfig, logger *slog.Logger) InvoiceUseCase {
	return &invoiceUseCase{
		recordUseCase: newRecordUseCase[*domain.Invoice](invoices, publisher, domain.NewInvoice, cfg, logger),
	}
}

// companyUseCase implements CompanyUseCase
type companyUseCase struct {
	companies ports.CompanyStorage
}

func NewCompanyUseCase(companies ports.CompanyStorage) CompanyUseCase {
	return &companyUseCase{companies: companies}
}

func (uc *companyUseCase) ListCompanies(ctx context.Context, identity domain.Identity) ([]string, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	return uc.companies.ListCompanies(ctx, identity.ID)
}
