package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/usecase"
)

// DirectoryHandler отдаёт справочные данные: компании, актуальные мемо, категории.
type DirectoryHandler struct {
	memos      usecase.MemoUseCase
	companies  usecase.CompanyUseCase
	categories usecase.CategoryUseCase
	logger     *slog.Logger
}

func NewDirectoryHandler(
	memos usecase.MemoUseCase,
	companies usecase.CompanyUseCase,
	categories usecase.CategoryUseCase,
	logger *slog.Logger,
) *DirectoryHandler {
	return &DirectoryHandler{memos: memos, companies: companies, categories: categories, logger: logger}
}

// UpcomingMemos — GET /memos/upcoming
func (h *DirectoryHandler) UpcomingMemos(w http.ResponseWriter, r *http.Request) {
	memos, err := h.memos.Upcoming(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, memos, h.logger)
}

// Companies — GET /companies
func (h *DirectoryHandler) Companies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companies.ListCompanies(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, companies, h.logger)
}

// Categories — GET /api/categories, доступен без сессии (нужен форме регистрации)
func (h *DirectoryHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, categories, h.logger)
}

// Pinger — проверка доступности зависимости (например, *sqlx.DB)
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health — GET /healthz
func Health(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				logger.Error("health check failed", "error", err)
				respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, logger)
				return
			}
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
