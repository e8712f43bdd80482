package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/core/ports/portstest"
	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/GoArmGo/OrnaCloud/internal/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = domain.Identity{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Username: "alice"}
	bob   = domain.Identity{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Username: "bob"}
)

type memoFixture struct {
	uc        *memoUseCase
	store     *portstest.MemoStore
	publisher *portstest.Publisher
}

func newMemoFixture(t *testing.T) *memoFixture {
	t.Helper()
	store := portstest.NewMemoStore()
	publisher := &portstest.Publisher{}
	uc := NewMemoUseCase(store, publisher, RecordConfig{NotifyTimeout: time.Second}, logger.Discard()).(*memoUseCase)
	uc.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }
	return &memoFixture{uc: uc, store: store, publisher: publisher}
}

func strPtr(s string) *string { return &s }

func moneyPtr(v float64) *domain.Money {
	m := domain.Money(v)
	return &m
}

func memoPatch(number, company string) *domain.MemoPatch {
	return &domain.MemoPatch{
		Title:             strPtr("Spring order"),
		MemoNumber:        strPtr(number),
		WholesalerDetails: strPtr("Orna Wholesale"),
		BuyerDetails:      strPtr("Jane"),
		Items:             strPtr("rings x3"),
		TotalValue:        moneyPtr(120),
		Company:           strPtr(company),
	}
}

func TestCreateMemo(t *testing.T) {
	f := newMemoFixture(t)

	patch := memoPatch("M-1", "Acme")
	patch.Email = strPtr("jane@example.com")

	memo, err := f.uc.Create(context.Background(), alice, patch)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, memo.ID)
	assert.Equal(t, alice.ID, memo.OwnerID)
	assert.False(t, memo.CreatedAt.IsZero())
	assert.Equal(t, memo.CreatedAt, memo.UpdatedAt)
	assert.Equal(t, 1, f.store.Len())

	require.Equal(t, 1, f.publisher.Count())
	published := f.publisher.Published[0]
	assert.Equal(t, "memo", published.Kind)
	assert.Equal(t, memo.ID, published.RecordID)
	assert.Equal(t, "jane@example.com", published.Recipient)
	assert.Equal(t, "New Memo Created", published.Subject)
	assert.Equal(t, "Memo Created: Spring order\nDetails: rings x3", published.Body)
	assert.Equal(t, []bool{true}, f.publisher.Deadlines)
}

func TestCreateMemoWithoutEmailSkipsNotification(t *testing.T) {
	f := newMemoFixture(t)

	_, err := f.uc.Create(context.Background(), alice, memoPatch("M-1", "Acme"))
	require.NoError(t, err)
	assert.Zero(t, f.publisher.Count())
	assert.Empty(t, f.publisher.Deadlines)
}

func TestCreateSucceedsWhenNotificationFails(t *testing.T) {
	f := newMemoFixture(t)
	f.publisher.Err = errors.New("broker unavailable")

	patch := memoPatch("M-1", "Acme")
	patch.Email = strPtr("jane@example.com")

	memo, err := f.uc.Create(context.Background(), alice, patch)
	require.NoError(t, err)
	assert.NotNil(t, memo)
	assert.Equal(t, 1, f.store.Len())
}

func TestNotifyWrapsFailure(t *testing.T) {
	f := newMemoFixture(t)
	f.publisher.Err = errors.New("broker unavailable")

	memo := &domain.Memo{ID: uuid.New(), Title: "t", Items: "i", Email: "jane@example.com"}
	err := f.uc.notify(context.Background(), memo)
	assert.True(t, errors.Is(err, domain.ErrNotificationFailure))
}

func TestNotifyIgnoresCanceledRequest(t *testing.T) {
	f := newMemoFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	memo := &domain.Memo{ID: uuid.New(), Title: "t", Items: "i", Email: "jane@example.com"}
	require.NoError(t, f.uc.notify(ctx, memo))
	assert.Equal(t, 1, f.publisher.Count())
}

func TestCreateMemoValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.MemoPatch)
		message string
	}{
		{"missing title", func(p *domain.MemoPatch) { p.Title = nil }, "title is required"},
		{"blank title", func(p *domain.MemoPatch) { p.Title = strPtr("   ") }, "title is required"},
		{"missing total", func(p *domain.MemoPatch) { p.TotalValue = nil }, "total_value is required"},
		{"negative total", func(p *domain.MemoPatch) { p.TotalValue = moneyPtr(-1) }, "total_value must be greater than or equal to 0"},
		{"bad email", func(p *domain.MemoPatch) { p.Email = strPtr("not-an-email") }, "email must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMemoFixture(t)
			patch := memoPatch("M-1", "Acme")
			tt.mutate(patch)

			_, err := f.uc.Create(context.Background(), alice, patch)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			assert.Equal(t, tt.message, domain.Message(err))
			assert.Zero(t, f.store.Len())
			assert.Zero(t, f.publisher.Count())
		})
	}
}

func TestCreateRequiresIdentity(t *testing.T) {
	f := newMemoFixture(t)

	_, err := f.uc.Create(context.Background(), domain.Identity{}, memoPatch("M-1", "Acme"))
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = f.uc.List(context.Background(), domain.Identity{}, domain.RecordFilter{})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestCreateDuplicateNumberPerOwner(t *testing.T) {
	f := newMemoFixture(t)

	_, err := f.uc.Create(context.Background(), alice, memoPatch("M-1", "Acme"))
	require.NoError(t, err)

	_, err = f.uc.Create(context.Background(), alice, memoPatch("M-1", "Acme"))
	assert.True(t, errors.Is(err, domain.ErrConflict))

	_, err = f.uc.Create(context.Background(), bob, memoPatch("M-1", "Acme"))
	assert.NoError(t, err)
}

func TestListScopedToOwnerAndFiltered(t *testing.T) {
	f := newMemoFixture(t)
	ctx := context.Background()

	for i, company := range []string{"Acme", "Acme Corp", "The Acme"} {
		_, err := f.uc.Create(ctx, alice, memoPatch("A-"+string(rune('1'+i)), company))
		require.NoError(t, err)
	}
	_, err := f.uc.Create(ctx, bob, memoPatch("B-1", "Acme"))
	require.NoError(t, err)

	all, err := f.uc.List(ctx, alice, domain.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, m := range all {
		assert.Equal(t, alice.ID, m.OwnerID)
	}

	exact, err := f.uc.List(ctx, alice, domain.ParseCompanyFilter("Acme"))
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "Acme", exact[0].Company)

	prefix, err := f.uc.List(ctx, alice, domain.ParseCompanyFilter("Acme*"))
	require.NoError(t, err)
	assert.Len(t, prefix, 2)

	none, err := f.uc.List(ctx, alice, domain.ParseCompanyFilter("Nobody"))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGetForeignRecordIsNotFound(t *testing.T) {
	f := newMemoFixture(t)
	ctx := context.Background()

	memo, err := f.uc.Create(ctx, alice, memoPatch("M-1", "Acme"))
	require.NoError(t, err)

	got, err := f.uc.Get(ctx, alice, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, memo.ID, got.ID)

	_, err = f.uc.Get(ctx, bob, memo.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.uc.Update(ctx, bob, memo.ID, &domain.MemoPatch{Title: strPtr("hijack")})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = f.uc.Delete(ctx, bob, memo.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	got, err = f.uc.Get(ctx, alice, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spring order", got.Title)
}

func TestUpdateIsPartial(t *testing.T) {
	f := newMemoFixture(t)
	ctx := context.Background()

	patch := memoPatch("M-1", "Acme")
	patch.Remarks = strPtr("fragile")
	memo, err := f.uc.Create(ctx, alice, patch)
	require.NoError(t, err)

	f.uc.now = func() time.Time { return time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC) }

	updated, err := f.uc.Update(ctx, alice, memo.ID, &domain.MemoPatch{TotalValue: moneyPtr(99.5)})
	require.NoError(t, err)
	assert.Equal(t, domain.Money(99.5), updated.TotalValue)
	assert.Equal(t, "fragile", updated.Remarks)
	assert.Equal(t, memo.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(memo.UpdatedAt))

	stored, err := f.uc.Get(ctx, alice, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(99.5), stored.TotalValue)
}

func TestUpdateValidatesMergedRecord(t *testing.T) {
	f := newMemoFixture(t)
	ctx := context.Background()

	memo, err := f.uc.Create(ctx, alice, memoPatch("M-1", "Acme"))
	require.NoError(t, err)

	_, err = f.uc.Update(ctx, alice, memo.ID, &domain.MemoPatch{Company: strPtr(" ")})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	stored, err := f.uc.Get(ctx, alice, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.Company)
}

func TestReplaceClearsOmittedOptionalFields(t *testing.T) {
	f := newMemoFixture(t)
	ctx := context.Background()

	patch := memoPatch("M-1", "Acme")
	patch.Remarks = strPtr("fragile")
	memo, err := f.uc.Create(ctx, alice, patch)
	require.NoError(t, err)

	replaced, err := f.uc.Replace(ctx, alice, memo.ID, memoPatch("M-2", "Beta"))
	require.NoError(t, err)
	assert.Equal(t, memo.ID, replaced.ID)
	assert.Equal(t, alice.ID, replaced.OwnerID)
	assert.Equal(t, "M-2", replaced.MemoNumber)
	assert.Empty(t, replaced.Remarks)
	assert.Equal(t, memo.CreatedAt, replaced.CreatedAt)

	_, err = f.uc.Replace(ctx, alice, memo.ID, &domain.MemoPatch{Title: strPtr("only title")})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestDelete(t *testing.T) {
	f := newMemoFixture(t)
	ctx := context.Background()

	memo, err := f.uc.Create(ctx, alice, memoPatch("M-1", "Acme"))
	require.NoError(t, err)

	require.NoError(t, f.uc.Delete(ctx, alice, memo.ID))
	_, err = f.uc.Get(ctx, alice, memo.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = f.uc.Delete(ctx, alice, memo.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpcoming(t *testing.T) {
	f := newMemoFixture(t)
	ctx := context.Background()

	dates := map[string]domain.Date{
		"past":   domain.NewDate(2026, time.October, 15),
		"today":  domain.NewDate(2026, time.October, 16),
		"future": domain.NewDate(2026, time.December, 1),
	}
	for number, date := range dates {
		patch := memoPatch(number, "Acme")
		patch.ExpiryDate = domain.OptionalDate{Set: true, Date: date}
		_, err := f.uc.Create(ctx, alice, patch)
		require.NoError(t, err)
	}
	_, err := f.uc.Create(ctx, alice, memoPatch("no-date", "Acme"))
	require.NoError(t, err)

	upcoming, err := f.uc.Upcoming(ctx, alice)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "today", upcoming[0].MemoNumber)
	assert.Equal(t, "future", upcoming[1].MemoNumber)
}

func TestInvoiceUseCase(t *testing.T) {
	store := portstest.NewInvoiceStore()
	publisher := &portstest.Publisher{}
	uc := NewInvoiceUseCase(store, publisher, RecordConfig{NotifyTimeout: time.Second}, logger.Discard())
	ctx := context.Background()

	invoice, err := uc.Create(ctx, alice, &domain.InvoicePatch{
		Title:             strPtr("Invoice"),
		InvoiceNumber:     strPtr("I-1"),
		WholesalerDetails: strPtr("Orna"),
		BuyerDetails:      strPtr("Jane"),
		Items:             strPtr("chains"),
		TotalValue:        moneyPtr(10),
		Company:           strPtr("Acme"),
		Email:             strPtr("jane@example.com"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, publisher.Count())
	assert.Equal(t, "invoice", publisher.Published[0].Kind)
	assert.Equal(t, "New Invoice Created", publisher.Published[0].Subject)
	assert.Equal(t, "Invoice Created: Invoice\nDetails: chains", publisher.Published[0].Body)

	updated, err := uc.Update(ctx, alice, invoice.ID, &domain.InvoicePatch{Items: strPtr("chains x2")})
	require.NoError(t, err)
	assert.Equal(t, "chains x2", updated.Items)
	assert.Equal(t, 1, publisher.Count())

	require.NoError(t, uc.Delete(ctx, alice, invoice.ID))
	assert.Zero(t, store.Len())
}

func TestCompanyUseCase(t *testing.T) {
	memos := portstest.NewMemoStore()
	invoices := portstest.NewInvoiceStore()
	ctx := context.Background()

	memoUC := NewMemoUseCase(memos, nil, RecordConfig{NotifyTimeout: time.Second}, logger.Discard())
	_, err := memoUC.Create(ctx, alice, memoPatch("M-1", "Beta"))
	require.NoError(t, err)
	_, err = memoUC.Create(ctx, alice, memoPatch("M-2", "Acme"))
	require.NoError(t, err)
	_, err = memoUC.Create(ctx, bob, memoPatch("M-1", "Gamma"))
	require.NoError(t, err)

	uc := NewCompanyUseCase(&portstest.CompanyStore{Memos: memos, Invoices: invoices})
	companies, err := uc.ListCompanies(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Beta"}, companies)

	_, err = uc.ListCompanies(ctx, domain.Identity{})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
