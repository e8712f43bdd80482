package storage

import (
	"errors"
	"strconv"
	"strings"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/lib/pq"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
	// класс 22 — data exception: переполнение, слишком длинная строка и т.п.
	dataExceptionClass = "22"
)

// mapPQError переводит ошибки postgres, вызванные данными клиента, в доменные:
// нарушение уникальности — ErrConflict с сообщением conflict, недопустимое значение — ErrValidation.
// Для прочих ошибок возвращает nil.
func mapPQError(err error, conflict string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch {
	case string(pqErr.Code) == uniqueViolation:
		return domain.NewError(domain.ErrConflict, conflict)
	case string(pqErr.Code) == checkViolation, string(pqErr.Code.Class()) == dataExceptionClass:
		if pqErr.Column != "" {
			return domain.Validation(pqErr.Column, pqErr.Column+" is out of range")
		}
		return domain.NewError(domain.ErrValidation, "value is out of range")
	}
	return nil
}

// escapeLike экранирует спецсимволы LIKE, чтобы префикс искался буквально
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// companyClause добавляет условие фильтра по компании к запросу
func companyClause(query string, args []any, filter domain.RecordFilter) (string, []any) {
	if filter.IsEmpty() {
		return query, args
	}
	if filter.Prefix {
		args = append(args, escapeLike(filter.Company)+"%")
		return query + ` AND company LIKE $` + strconv.Itoa(len(args)) + ` ESCAPE '\'`, args
	}
	args = append(args, filter.Company)
	return query + ` AND company = $` + strconv.Itoa(len(args)), args
}
