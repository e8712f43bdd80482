package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout — формат календарной даты в API и в БД
const DateLayout = "2006-01-02"

// Date — календарная дата без времени. Нулевое значение означает "не задана".
type Date struct {
	time.Time
}

// NewDate обрезает время до календарной даты в UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate разбирает дату формата YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return Validation("expiry_date", "expiry_date must be a date string (YYYY-MM-DD)")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return Validation("expiry_date", fmt.Sprintf("expiry_date %q is not a valid calendar date (YYYY-MM-DD)", s))
	}
	*d = parsed
	return nil
}

// Value реализует driver.Valuer: пустая дата пишется как NULL
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

// Scan реализует sql.Scanner
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("domain.Date: неподдерживаемый тип %T", src)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("domain.Date: %w", err)
	}
	*d = parsed
	return nil
}

// OptionalDate — дата во входном patch'е. Set отличает отсутствующее поле от явного null,
// поэтому {"expiry_date": null} очищает дату, а пропущенное поле её не трогает.
type OptionalDate struct {
	Set  bool
	Date Date
}

func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	if err := o.Date.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Set = true
	return nil
}

// Money — неотрицательная сумма. Принимает из JSON как число, так и числовую строку,
// потому что формы клиента отправляют значения полей строками.
type Money float64

func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Validation("total_value", "total_value must be numeric")
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Validation("total_value", "total_value must be numeric")
	}
	*m = Money(v)
	return nil
}
