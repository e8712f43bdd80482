package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Memo представляет модель мемо, соответствует таблице memos в бд
type Memo struct {
	ID                uuid.UUID `json:"id" db:"id"`
	OwnerID           uuid.UUID `json:"user_id" db:"user_id"`
	Title             string    `json:"title" db:"title" validate:"required,max=255"`
	MemoNumber        string    `json:"memo_number" db:"memo_number" validate:"required,max=64"`
	ExpiryDate        Date      `json:"expiry_date" db:"expiry_date" validate:"-"`
	WholesalerDetails string    `json:"wholesaler_details" db:"wholesaler_details" validate:"required"`
	BuyerDetails      string    `json:"buyer_details" db:"buyer_details" validate:"required"`
	Items             string    `json:"items" db:"items" validate:"required"`
	TotalValue        Money     `json:"total_value" db:"total_value" validate:"gte=0"`
	Remarks           string    `json:"remarks" db:"remarks"`
	Company           string    `json:"company" db:"company" validate:"required,max=255"`
	Email             string    `json:"email" db:"email" validate:"omitempty,max=255,email"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// NewMemo используется usecase'ом как конструктор пустой записи
func NewMemo() *Memo { return &Memo{} }

func (m *Memo) Kind() Kind { return KindMemo }
func (m *Memo) GetID() uuid.UUID { return m.ID }
func (m *Memo) SetID(id uuid.UUID) { m.ID = id }
func (m *Memo) GetOwnerID() uuid.UUID { return m.OwnerID }
func (m *Memo) SetOwnerID(id uuid.UUID) { m.OwnerID = id }
func (m *Memo) GetCompany() string { return m.Company }
func (m *Memo) NotifyEmail() string { return m.Email }
func (m *Memo) Validate() error { return ValidateStruct(m) }
func (m *Memo) Clone() *Memo { c := *m; return &c }

func (m *Memo) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

func (m *Memo) Summary() string {
	return fmt.Sprintf("Memo Created: %s\nDetails: %s", m.Title, m.Items)
}

func (m *Memo) CopyMeta(from Record) {
	src, ok := from.(*Memo)
	if !ok {
		return
	}
	m.ID = src.ID
	m.OwnerID = src.OwnerID
	m.CreatedAt = src.CreatedAt
	m.UpdatedAt = src.UpdatedAt
}

// MemoPatch — входные поля мемо из запроса
type MemoPatch struct {
	Title             *string      `json:"title"`
	MemoNumber        *string      `json:"memo_number"`
	ExpiryDate        OptionalDate `json:"expiry_date"`
	WholesalerDetails *string      `json:"wholesaler_details"`
	BuyerDetails      *string      `json:"buyer_details"`
	Items             *string      `json:"items"`
	TotalValue        *Money       `json:"total_value"`
	Remarks           *string      `json:"remarks"`
	Company           *string      `json:"company"`
	Email             *string      `json:"email"`
}

func (p *MemoPatch) Apply(m *Memo) {
	applyString(&m.Title, p.Title)
	applyString(&m.MemoNumber, p.MemoNumber)
	if p.ExpiryDate.Set {
		m.ExpiryDate = p.ExpiryDate.Date
	}
	applyString(&m.WholesalerDetails, p.WholesalerDetails)
	applyString(&m.BuyerDetails, p.BuyerDetails)
	applyString(&m.Items, p.Items)
	if p.TotalValue != nil {
		m.TotalValue = *p.TotalValue
	}
	applyString(&m.Remarks, p.Remarks)
	applyString(&m.Company, p.Company)
	applyString(&m.Email, p.Email)
}

func (p *MemoPatch) Complete() error {
	checks := []struct {
		ok    bool
		field string
	}{
		{p.Title != nil, "title"},
		{p.MemoNumber != nil, "memo_number"},
		{p.WholesalerDetails != nil, "wholesaler_details"},
		{p.BuyerDetails != nil, "buyer_details"},
		{p.Items != nil, "items"},
		{p.TotalValue != nil, "total_value"},
		{p.Company != nil, "company"},
	}
	for _, c := range checks {
		if err := requireField(c.ok, c.field); err != nil {
			return err
		}
	}
	return nil
}
