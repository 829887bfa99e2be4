package http

import (
	"net/http"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/service"
)

type ItemHandler struct {
	itemSvc     service.ItemService
	categorySvc service.CategoryService
	imageSvc    service.ImageStorageService
}

func NewItemHandler(itemSvc service.ItemService, categorySvc service.CategoryService, imageSvc service.ImageStorageService) *ItemHandler {
	return &ItemHandler{itemSvc: itemSvc, categorySvc: categorySvc, imageSvc: imageSvc}
}

type itemRequest struct {
	Name         string                  `json:"name"`
	Category     string                  `json:"category"`
	ImageURL     string                  `json:"image_url"`
	MarketRate   int64                   `json:"market_rate"`
	Quantity     int32                   `json:"quantity"`
	Availability domain.ItemAvailability `json:"availability"`
}

func (req itemRequest) input() service.ItemInput {
	return service.ItemInput{
		Name:         req.Name,
		Category:     req.Category,
		ImageURL:     req.ImageURL,
		MarketRate:   req.MarketRate,
		Quantity:     req.Quantity,
		Availability: req.Availability,
	}
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	availability := domain.ItemAvailability(r.URL.Query().Get("availability"))
	items, err := h.itemSvc.ListItems(r.Context(), availability)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.itemSvc.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.itemSvc.CreateItem(r.Context(), userID(r.Context()), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.itemSvc.UpdateItem(r.Context(), userID(r.Context()), id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.itemSvc.DeleteItem(r.Context(), userID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categorySvc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *ItemHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.categorySvc.CreateCategory(r.Context(), userID(r.Context()), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ItemHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.categorySvc.DeleteCategory(r.Context(), userID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type uploadURLResponse struct {
	Key         string    `json:"key"`
	UploadURL   string    `json:"upload_url"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *ItemHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	key, up, down, expires, err := h.imageSvc.GetUploadURL(r.Context(), userID(r.Context()), req.Filename, req.ContentType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadURLResponse{Key: key, UploadURL: up, DownloadURL: down, ExpiresAt: expires})
}
