package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/orchidcommerce/orchidbe/internal/domain"
	"github.com/orchidcommerce/orchidbe/internal/service/catalog"
)

// CacheInvalidator сбрасывает закэшированный товар после изменения каталога.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, orchidID string)
}

// CatalogHandler обслуживает REST-операции над орхидеями и категориями.
type CatalogHandler struct {
	service *catalog.Service
	cache   CacheInvalidator
}

// NewCatalogHandler создаёт обработчик каталога. cache может быть nil.
func NewCatalogHandler(service *catalog.Service, cache CacheInvalidator) *CatalogHandler {
	return &CatalogHandler{service: service, cache: cache}
}

func (h *CatalogHandler) invalidate(ctx context.Context, orchidID string) {
	if h.cache != nil {
		h.cache.Invalidate(ctx, orchidID)
	}
}

type orchidPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsNatural   bool   `json:"is_natural"`
	URL         string `json:"url"`
	PriceMinor  int64  `json:"price_minor"`
	IsAvailable bool   `json:"is_available"`
	CategoryID  string `json:"category_id"`
}

func (p orchidPayload) input() catalog.OrchidInput {
	return catalog.OrchidInput{
		Name:        p.Name,
		Description: p.Description,
		IsNatural:   p.IsNatural,
		URL:         p.URL,
		PriceMinor:  p.PriceMinor,
		IsAvailable: p.IsAvailable,
		CategoryID:  p.CategoryID,
	}
}

type categoryPayload struct {
	Name string `json:"name"`
}

type orchidView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsNatural   bool   `json:"is_natural"`
	URL         string `json:"url"`
	PriceMinor  int64  `json:"price_minor"`
	IsAvailable bool   `json:"is_available"`
	CategoryID  string `json:"category_id"`
}

func toOrchidView(orchid domain.Orchid) orchidView {
	return orchidView{
		ID:          orchid.ID,
		Name:        orchid.Name,
		Description: orchid.Description,
		IsNatural:   orchid.IsNatural,
		URL:         orchid.URL,
		PriceMinor:  orchid.PriceMinor,
		IsAvailable: orchid.IsAvailable,
		CategoryID:  orchid.CategoryID,
	}
}

func toOrchidViews(orchids []domain.Orchid) []orchidView {
	views := make([]orchidView, 0, len(orchids))
	for _, orchid := range orchids {
		views = append(views, toOrchidView(orchid))
	}
	return views
}

type categoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toCategoryView(category domain.Category) categoryView {
	return categoryView{ID: category.ID, Name: category.Name}
}

// CreateOrchid обрабатывает POST /api/orchids.
func (h *CatalogHandler) CreateOrchid(w http.ResponseWriter, r *http.Request) {
	var payload orchidPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	orchid, err := h.service.CreateOrchid(identityFrom(r.Context()), payload.input())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, toOrchidView(orchid))
}

// GetOrchid обрабатывает GET /api/orchids/{id}.
func (h *CatalogHandler) GetOrchid(w http.ResponseWriter, r *http.Request) {
	orchid, err := h.service.GetOrchid(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toOrchidView(orchid))
}

// ListOrchids обрабатывает GET /api/orchids. Параметр ?category={id}
// сужает выдачу до одной категории.
func (h *CatalogHandler) ListOrchids(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var (
		orchids []domain.Orchid
		err     error
	)
	if categoryID := r.URL.Query().Get("category"); categoryID != "" {
		orchids, err = h.service.ListOrchidsByCategory(identity, categoryID)
	} else {
		orchids, err = h.service.ListOrchids(identity)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toOrchidViews(orchids))
}

// UpdateOrchid обрабатывает PUT /api/orchids/{id}.
func (h *CatalogHandler) UpdateOrchid(w http.ResponseWriter, r *http.Request) {
	var payload orchidPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	orchid, err := h.service.UpdateOrchid(identityFrom(r.Context()), r.PathValue("id"), payload.input())
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r.Context(), orchid.ID)

	writeData(w, http.StatusOK, toOrchidView(orchid))
}

// DeleteOrchid обрабатывает DELETE /api/orchids/{id}.
func (h *CatalogHandler) DeleteOrchid(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.DeleteOrchid(identityFrom(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r.Context(), id)

	writeData(w, http.StatusOK, nil)
}

// CreateCategory обрабатывает POST /api/categories.
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	category, err := h.service.CreateCategory(identityFrom(r.Context()), payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, toCategoryView(category))
}

// GetCategory обрабатывает GET /api/categories/{id}.
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.GetCategory(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toCategoryView(category))
}

// ListCategories обрабатывает GET /api/categories.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	categories, err := h.service.ListCategories()
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]categoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, toCategoryView(category))
	}
	writeData(w, http.StatusOK, views)
}

// UpdateCategory обрабатывает PUT /api/categories/{id}.
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	category, err := h.service.UpdateCategory(identityFrom(r.Context()), r.PathValue("id"), payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, toCategoryView(category))
}

// DeleteCategory обрабатывает DELETE /api/categories/{id}.
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(identityFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}
