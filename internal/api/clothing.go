package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/erazemk/omara/internal/imaging"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

// ClothingHandler handles clothing CRUD endpoints.
type ClothingHandler struct {
	DB *sql.DB
}

// List handles GET /api/clothing.
func (h *ClothingHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	filter := model.FilterFromValues(r.URL.Query())

	items, err := store.ListClothing(r.Context(), h.DB, claims.UserID, filter)
	if err != nil {
		zap.L().Error("listing clothing", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to list clothing")
		return
	}
	if items == nil {
		items = []model.ClothingItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/clothing/{id}.
func (h *ClothingHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	item, err := store.GetClothing(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		zap.L().Error("getting clothing item", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to get clothing item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "clothing item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/clothing.
func (h *ClothingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	form, err := parseClothingForm(w, r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := store.CreateClothing(r.Context(), h.DB, claims.UserID, form.input)
	if err != nil {
		zap.L().Error("creating clothing item", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to create clothing item")
		return
	}

	zap.L().Info("clothing item created", zap.String("user", claims.Email), zap.String("item", item.ID))
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/clothing/{id}. A request without an image keeps the
// current photo.
func (h *ClothingHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	form, err := parseClothingForm(w, r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	found, err := store.UpdateClothing(r.Context(), h.DB, claims.UserID, id, form.input)
	if err != nil {
		zap.L().Error("updating clothing item", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to update clothing item")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "clothing item not found")
		return
	}

	item, err := store.GetClothing(r.Context(), h.DB, claims.UserID, id)
	if err != nil || item == nil {
		jsonError(w, http.StatusInternalServerError, "failed to reload clothing item")
		return
	}

	zap.L().Info("clothing item updated", zap.String("user", claims.Email), zap.String("item", id))
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/clothing/{id}.
func (h *ClothingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	found, err := store.DeleteClothing(r.Context(), h.DB, claims.UserID, id)
	if err != nil {
		zap.L().Error("deleting clothing item", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to delete clothing item")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "clothing item not found")
		return
	}

	zap.L().Info("clothing item deleted", zap.String("user", claims.Email), zap.String("item", id))
	jsonResponse(w, http.StatusNoContent, nil)
}

// GetImage handles GET /api/clothing/{id}/image.
func (h *ClothingHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	data, mime, err := store.GetClothingImage(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		zap.L().Error("getting clothing image", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		zap.L().Warn("writing image response", zap.Error(err))
	}
}

type clothingForm struct {
	input store.ClothingInput
}

// parseClothingForm reads the multipart body shared by create and update.
func parseClothingForm(w http.ResponseWriter, r *http.Request) (*clothingForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		return nil, errors.New("file too large or invalid multipart form")
	}

	form := &clothingForm{
		input: store.ClothingInput{
			Name:  strings.TrimSpace(r.FormValue("name")),
			Color: strings.TrimSpace(r.FormValue("color")),
			Brand: strings.TrimSpace(r.FormValue("brand")),
		},
	}
	if form.input.Name == "" {
		return nil, errors.New("name required")
	}
	if form.input.Color == "" {
		return nil, errors.New("color required")
	}
	category, err := model.ParseCategory(r.FormValue("category"))
	if err != nil {
		return nil, err
	}
	form.input.Category = category

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return nil, errors.New("invalid image upload")
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		return nil, err
	}
	form.input.Image = photo.Data
	form.input.ImageMIME = photo.MIME
	return form, nil
}
