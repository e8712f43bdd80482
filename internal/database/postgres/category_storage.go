package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormCategoryStorage реализует интерфейс ports.CategoryStorage с использованием GORM
type GormCategoryStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// OpenGorm открывает GORM поверх уже установленного соединения sqlx,
// чтобы не держать второй пул подключений
func OpenGorm(conn *sql.DB) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации GORM: %w", err)
	}
	return db, nil
}

// NewGormCategoryStorage создает новый экземпляр GormCategoryStorage
func NewGormCategoryStorage(db *gorm.DB, logger *slog.Logger) *GormCategoryStorage {
	return &GormCategoryStorage{db: db, logger: logger}
}

// ListCategories возвращает справочник категорий, упорядоченный по id
func (s *GormCategoryStorage) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	if result := s.db.WithContext(ctx).Order("id").Find(&categories); result.Error != nil {
		s.logger.Error("failed to list categories", "error", result.Error)
		return nil, fmt.Errorf("ошибка при получении категорий с GORM: %w", result.Error)
	}
	return categories, nil
}

func (s *GormCategoryStorage) CategoryExists(ctx context.Context, id int) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		s.logger.Error("failed to check category", "category_id", id, "error", result.Error)
		return false, fmt.Errorf("ошибка при проверке категории с GORM: %w", result.Error)
	}
	return count > 0, nil
}

// SeedCategories создаёт отсутствующие категории по имени
func (s *GormCategoryStorage) SeedCategories(ctx context.Context, names []string) error {
	for _, name := range names {
		category := domain.Category{Name: name}
		result := s.db.WithContext(ctx).Where(domain.Category{Name: name}).FirstOrCreate(&category)
		if result.Error != nil {
			return fmt.Errorf("ошибка при создании категории %q с GORM: %w", name, result.Error)
		}
		if result.RowsAffected > 0 {
			s.logger.Info("category created", "category_id", category.ID, "name", name)
		}
	}
	return nil
}
