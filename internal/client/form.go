package client

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/erazemk/omara/internal/model"
)

// ItemForm is the multipart payload for creating or updating a clothing item.
// Image bytes are passed through untouched; the server normalizes them.
type ItemForm struct {
	Name     string
	Category model.Category
	Color    string
	Brand    string

	Image     []byte
	ImageName string
}

// FormFromItem pre-fills a form with item's current values, without a photo.
func FormFromItem(item *model.ClothingItem) ItemForm {
	return ItemForm{
		Name:     item.Name,
		Category: item.Category,
		Color:    item.Color,
		Brand:    item.Brand,
	}
}

// Validate checks the required fields.
func (f ItemForm) Validate() error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return &ValidationError{Field: "name", Reason: "required"}
	case !f.Category.Valid():
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", f.Category)}
	case strings.TrimSpace(f.Color) == "":
		return &ValidationError{Field: "color", Reason: "required"}
	}
	return nil
}

// encode renders the form as a multipart body and returns it with its
// content type.
func (f ItemForm) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"name", f.Name},
		{"category", string(f.Category)},
		{"color", f.Color},
		{"brand", f.Brand},
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", kv[0], err)
		}
	}

	if len(f.Image) > 0 {
		name := filepath.Base(f.ImageName)
		if name == "." || name == "/" {
			name = "photo"
		}
		fw, err := mw.CreateFormFile("image", name)
		if err != nil {
			return nil, "", fmt.Errorf("creating image part: %w", err)
		}
		if _, err := fw.Write(f.Image); err != nil {
			return nil, "", fmt.Errorf("writing image part: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
