package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"objectcatalog/models"
)

type Response struct {
	TotalItems int      `json:"totalItems"`
	Items      []Object `json:"items"`
}

type Object struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedDate time.Time `json:"createdDate"`
	Categories  []string  `json:"categories"`
}

type ObjectInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	CategoryIDs []uint  `json:"categoryIds"`
}

type ObjectProvider interface {
	GetByID(ctx context.Context, id uint) (*models.Object, error)
	GetFiltered(ctx context.Context, offset, limit int, filters models.ObjectFilters) ([]models.Object, int64, error)
	Create(ctx context.Context, input models.ObjectInput) (*models.Object, error)
	Update(ctx context.Context, id uint, input models.ObjectInput) (*models.Object, error)
	Delete(ctx context.Context, id uint) error
}

type CatalogHandler struct {
	repo ObjectProvider
}

func NewCatalogHandler(r ObjectProvider) *CatalogHandler {
	return &CatalogHandler{
		repo: r,
	}
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	// Parse pagination query params
	offset := 0
	limit := 10

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}

	// Parse filters
	filters := models.ObjectFilters{
		Search: r.URL.Query().Get("search"),
	}
	if cStr := r.URL.Query().Get("category"); cStr != "" {
		if c, err := strconv.ParseUint(cStr, 10, 32); err == nil {
			categoryID := uint(c)
			filters.CategoryID = &categoryID
		}
	}

	res, total, err := h.repo.GetFiltered(r.Context(), offset, limit, filters)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]Object, len(res))
	for i := range res {
		items[i] = toObject(&res[i])
	}

	writeJSON(w, http.StatusOK, Response{
		TotalItems: int(total),
		Items:      items,
	})
}

func (h *CatalogHandler) HandleGetObject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	object, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toObject(object))
}

func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input ObjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	object, err := h.repo.Create(r.Context(), toModelInput(input))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toObject(object))
}

func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var input ObjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	object, err := h.repo.Update(r.Context(), id, toModelInput(input))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toObject(object))
}

func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "Invalid object id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

func toModelInput(input ObjectInput) models.ObjectInput {
	return models.ObjectInput{
		Name:        input.Name,
		Description: input.Description,
		Price:       decimal.NewFromFloat(input.Price),
		CategoryIDs: input.CategoryIDs,
	}
}

func toObject(o *models.Object) Object {
	categories := make([]string, len(o.Categories))
	for i, c := range o.Categories {
		categories[i] = c.Name
	}
	return Object{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		Price:       o.Price.InexactFloat64(),
		CreatedDate: o.CreatedDate,
		Categories:  categories,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrObjectNotFound):
		http.Error(w, "Object not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
