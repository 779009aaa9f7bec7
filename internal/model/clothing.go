package model

import (
	"strings"
	"time"
)

// ClothingItem is a single piece of clothing owned by a user.
type ClothingItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	Color     string    `json:"color"`
	Brand     string    `json:"brand,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is the kind of a clothing item.
type Category string

// Clothing categories.
const (
	CategoryShirt     Category = "SHIRT"
	CategoryPants     Category = "PANTS"
	CategoryShoes     Category = "SHOES"
	CategoryJacket    Category = "JACKET"
	CategoryAccessory Category = "ACCESSORY"
	CategoryOther     Category = "OTHER"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryShirt,
	CategoryPants,
	CategoryShoes,
	CategoryJacket,
	CategoryAccessory,
	CategoryOther,
}

// CommonColors is the palette offered by the filter bar. Colors outside it
// are accepted.
var CommonColors = []string{
	"Black", "White", "Blue", "Red", "Green", "Gray", "Brown",
	"Navy", "Beige", "Pink", "Yellow", "Orange", "Purple",
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory parses a category case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", &ValidationError{Field: "category", Reason: "unknown category " + s}
	}
	return c, nil
}

// FormatCategory turns "ACCESSORY" into "Accessory".
func FormatCategory(c Category) string {
	if c == "" {
		return ""
	}
	s := string(c)
	return s[:1] + strings.ToLower(s[1:])
}

// ImagePath is the API path serving the photo of item id.
func ImagePath(id string) string {
	return "/api/clothing/" + id + "/image"
}
