package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/GoArmGo/OrnaCloud/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RecordHandler — CRUD-обработчик документа одного вида (мемо или счёт).
type RecordHandler[R domain.Record] struct {
	uc       usecase.RecordUseCase[R]
	newPatch func() domain.Patch[R]
	kind     domain.Kind
	logger   *slog.Logger
}

// NewRecordHandler создаёт обработчик; newPatch возвращает пустой patch для разбора тела запроса.
func NewRecordHandler[R domain.Record](
	uc usecase.RecordUseCase[R],
	kind domain.Kind,
	newPatch func() domain.Patch[R],
	logger *slog.Logger,
) *RecordHandler[R] {
	return &RecordHandler[R]{uc: uc, newPatch: newPatch, kind: kind, logger: logger}
}

// Mount регистрирует маршруты CRUD в роутере
func (h *RecordHandler[R]) Mount(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Put("/{id}", h.Replace)
	r.Delete("/{id}", h.Delete)
}

func (h *RecordHandler[R]) Create(w http.ResponseWriter, r *http.Request) {
	patch := h.newPatch()
	if err := decodeJSON(w, r, patch); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	rec, err := h.uc.Create(r.Context(), IdentityFromContext(r.Context()), patch)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, rec, h.logger)
}

// List — GET /?company=Acme (точное совпадение) или ?company=Acme* (по префиксу)
func (h *RecordHandler[R]) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ParseCompanyFilter(r.URL.Query().Get("company"))

	records, err := h.uc.List(r.Context(), IdentityFromContext(r.Context()), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, records, h.logger)
}

func (h *RecordHandler[R]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.uc.Get(r.Context(), IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, rec, h.logger)
}

// Update — PATCH: меняются только переданные поля
func (h *RecordHandler[R]) Update(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.uc.Update)
}

// Replace — PUT: запись заменяется целиком
func (h *RecordHandler[R]) Replace(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.uc.Replace)
}

func (h *RecordHandler[R]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	if err := h.uc.Delete(r.Context(), IdentityFromContext(r.Context()), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordHandler[R]) write(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, identity domain.Identity, id uuid.UUID, patch domain.Patch[R]) (R, error),
) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	patch := h.newPatch()
	if err := decodeJSON(w, r, patch); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	rec, err := apply(r.Context(), IdentityFromContext(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, rec, h.logger)
}

// recordID разбирает {id}; некорректный id неотличим от отсутствующей записи
func (h *RecordHandler[R]) recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, string(h.kind)+" not found", h.logger)
		return uuid.Nil, false
	}
	return id, true
}
