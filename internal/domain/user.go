// internal/domain/user.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User представляет модель пользователя в системе.
// Соответствует таблице 'users' в базе данных.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Lastname     string    `json:"lastname" db:"lastname"`
	Age          int       `json:"age" db:"age"`
	CategoryID   int       `json:"category_id" db:"category_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Identity — аутентифицированный пользователь, полученный из сессии.
// Передаётся в каждый защищённый usecase явно, без глобального состояния.
type Identity struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Lastname   string    `json:"lastname"`
	Age        int       `json:"age"`
	CategoryID int       `json:"category_id"`
}

// Identity возвращает публичное представление пользователя (без пароля)
func (u *User) Identity() Identity {
	return Identity{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Lastname:   u.Lastname,
		Age:        u.Age,
		CategoryID: u.CategoryID,
	}
}

// IsAnonymous сообщает, что идентичность пустая
func (i Identity) IsAnonymous() bool {
	return i.ID == uuid.Nil
}

// Session — серверная сессия, ключ которой хранится в cookie
type Session struct {
	Token        string    `db:"token"`
	UserID       uuid.UUID `db:"user_id"`
	ExpiresAt    time.Time `db:"expires_at"`
	LastActivity time.Time `db:"last_activity"`
}

// SessionInfo — результат проверки сессии
type SessionInfo struct {
	User      User
	Token     string
	ExpiresAt time.Time
	Renewed   bool
}

// Category — справочник категорий пользователей
type Category struct {
	ID   int    `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

func (Category) TableName() string {
	return "categories"
}

// DefaultCategories засеваются при старте, если их нет
var DefaultCategories = []string{"Wholesale", "Designer", "Individual", "Other"}
