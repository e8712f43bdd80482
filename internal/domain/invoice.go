package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Invoice представляет модель счёта, соответствует таблице invoices в бд
type Invoice struct {
	ID                uuid.UUID `json:"id" db:"id"`
	OwnerID           uuid.UUID `json:"user_id" db:"user_id"`
	Title             string    `json:"title" db:"title" validate:"required,max=255"`
	InvoiceNumber     string    `json:"invoice_number" db:"invoice_number" validate:"required,max=64"`
	WholesalerDetails string    `json:"wholesaler_details" db:"wholesaler_details" validate:"required"`
	BuyerDetails      string    `json:"buyer_details" db:"buyer_details" validate:"required"`
	Items             string    `json:"items" db:"items" validate:"required"`
	TotalValue        Money     `json:"total_value" db:"total_value" validate:"gte=0"`
	Company           string    `json:"company" db:"company" validate:"required,max=255"`
	Email             string    `json:"email" db:"email" validate:"omitempty,max=255,email"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

func NewInvoice() *Invoice { return &Invoice{} }

func (i *Invoice) Kind() Kind { return KindInvoice }
func (i *Invoice) GetID() uuid.UUID { return i.ID }
func (i *Invoice) SetID(id uuid.UUID) { i.ID = id }
func (i *Invoice) GetOwnerID() uuid.UUID { return i.OwnerID }
func (i *Invoice) SetOwnerID(id uuid.UUID) { i.OwnerID = id }
func (i *Invoice) GetCompany() string { return i.Company }
func (i *Invoice) NotifyEmail() string { return i.Email }
func (i *Invoice) Validate() error { return ValidateStruct(i) }
func (i *Invoice) Clone() *Invoice { c := *i; return &c }

func (i *Invoice) Touch(now time.Time) {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
}

func (i *Invoice) Summary() string {
	return fmt.Sprintf("Invoice Created: %s\nDetails: %s", i.Title, i.Items)
}

func (i *Invoice) CopyMeta(from Record) {
	src, ok := from.(*Invoice)
	if !ok {
		return
	}
	i.ID = src.ID
	i.OwnerID = src.OwnerID
	i.CreatedAt = src.CreatedAt
	i.UpdatedAt = src.UpdatedAt
}

// InvoicePatch — входные поля счёта из запроса
type InvoicePatch struct {
	Title             *string `json:"title"`
	InvoiceNumber     *string `json:"invoice_number"`
	WholesalerDetails *string `json:"wholesaler_details"`
	BuyerDetails      *string `json:"buyer_details"`
	Items             *string `json:"items"`
	TotalValue        *Money  `json:"total_value"`
	Company           *string `json:"company"`
	Email             *string `json:"email"`
}

func (p *InvoicePatch) Apply(i *Invoice) {
	applyString(&i.Title, p.Title)
	applyString(&i.InvoiceNumber, p.InvoiceNumber)
	applyString(&i.WholesalerDetails, p.WholesalerDetails)
	applyString(&i.BuyerDetails, p.BuyerDetails)
	applyString(&i.Items, p.Items)
	if p.TotalValue != nil {
		i.TotalValue = *p.TotalValue
	}
	applyString(&i.Company, p.Company)
	applyString(&i.Email, p.Email)
}

func (p *InvoicePatch) Complete() error {
	if err := requireField(p.Title != nil, "title"); err != nil {
		return err
	}
	if err := requireField(p.InvoiceNumber != nil, "invoice_number"); err != nil {
		return err
	}
	if err := requireField(p.WholesalerDetails != nil, "wholesaler_details"); err != nil {
		return err
	}
	if err := requireField(p.BuyerDetails != nil, "buyer_details"); err != nil {
		return err
	}
	if err := requireField(p.Items != nil, "items"); err != nil {
		return err
	}
	if err := requireField(p.TotalValue != nil, "total_value"); err != nil {
		return err
	}
	return requireField(p.Company != nil, "company")
}
