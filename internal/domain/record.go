package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind различает виды деловых документов
type Kind string

const (
	KindMemo    Kind = "memo"
	KindInvoice Kind = "invoice"
)

// Title возвращает название вида с заглавной буквы ("Memo", "Invoice")
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Record — общий контракт для Memo и Invoice. Все реализации — указатели.
type Record interface {
	Kind() Kind
	GetID() uuid.UUID
	SetID(id uuid.UUID)
	GetOwnerID() uuid.UUID
	SetOwnerID(id uuid.UUID)
	GetCompany() string
	// NotifyEmail — адрес покупателя для уведомления, пустой если не задан
	NotifyEmail() string
	// Summary — текст уведомления о создании
	Summary() string
	Validate() error
	// CopyMeta переносит служебные поля (id, владелец, даты) из другой записи того же вида
	CopyMeta(from Record)
	// Touch проставляет created_at (если пусто) и updated_at
	Touch(now time.Time)
}

// Patch — входные данные для create/update. Поля-указатели: nil означает "не передано".
type Patch[R Record] interface {
	// Apply переносит переданные поля в запись
	Apply(rec R)
	// Complete проверяет, что переданы все обязательные поля (для create и PUT)
	Complete() error
}

// RecordFilter сужает список записей владельца по компании
type RecordFilter struct {
	Company string
	Prefix  bool
}

// ParseCompanyFilter: "Acme" — точное совпадение, "Acme*" — по префиксу
func ParseCompanyFilter(raw string) RecordFilter {
	raw = strings.TrimSpace(raw)
	if strings.HasSuffix(raw, "*") {
		return RecordFilter{Company: strings.TrimSuffix(raw, "*"), Prefix: true}
	}
	return RecordFilter{Company: raw}
}

// IsEmpty — фильтр ничего не сужает
func (f RecordFilter) IsEmpty() bool {
	return f.Company == ""
}

// Match проверяет компанию на соответствие фильтру
func (f RecordFilter) Match(company string) bool {
	if f.IsEmpty() {
		return true
	}
	if f.Prefix {
		return strings.HasPrefix(company, f.Company)
	}
	return company == f.Company
}

func requireField(ok bool, field string) error {
	if !ok {
		return Validation(field, field+" is required")
	}
	return nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
