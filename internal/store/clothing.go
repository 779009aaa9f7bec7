package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/erazemk/omara/internal/model"
)

// ClothingInput holds the replaceable fields of a clothing item. A nil Image
// leaves the current photo in place on update.
type ClothingInput struct {
	Name      string
	Category  model.Category
	Color     string
	Brand     string
	Image     []byte
	ImageMIME string
}

const clothingColumns = `id, owner_id, name, category, color, brand, image_mime, created_at, updated_at`

// CreateClothing creates a new clothing item owned by ownerID.
func CreateClothing(ctx context.Context, db *sql.DB, ownerID int64, in ClothingInput) (*model.ClothingItem, error) {
	id := uuid.NewString()
	var image any
	if in.Image != nil {
		image = in.Image
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO clothing_items (id, owner_id, name, category, color, brand, image, image_mime)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, in.Name, string(in.Category), in.Color, nullString(in.Brand), image, nullString(in.ImageMIME),
	)
	if err != nil {
		return nil, fmt.Errorf("creating clothing item: %w", err)
	}

	return GetClothing(ctx, db, ownerID, id)
}

// GetClothing returns an item by ID. Items of other owners are reported as
// missing.
func GetClothing(ctx context.Context, db *sql.DB, ownerID int64, id string) (*model.ClothingItem, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+clothingColumns+` FROM clothing_items WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	item, err := scanClothing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting clothing item: %w", err)
	}
	return item, nil
}

// ListClothing returns the owner's items matching f. Name and brand match
// case-insensitive substrings, color matches case-insensitively, category
// matches exactly.
func ListClothing(ctx context.Context, db *sql.DB, ownerID int64, f model.FilterCriteria) ([]model.ClothingItem, error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}

	if f.Name != "" {
		where = append(where, `name LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Name))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Color != "" {
		where = append(where, "color = ? COLLATE NOCASE")
		args = append(args, f.Color)
	}
	if f.Brand != "" {
		where = append(where, `brand LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Brand))
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+clothingColumns+` FROM clothing_items
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY name COLLATE NOCASE, id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing clothing items: %w", err)
	}
	defer rows.Close()

	var items []model.ClothingItem
	for rows.Next() {
		item, err := scanClothing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning clothing item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateClothing replaces an item's fields, and its photo when in.Image is
// set. It reports whether the item exists for this owner.
func UpdateClothing(ctx context.Context, db *sql.DB, ownerID int64, id string, in ClothingInput) (bool, error) {
	query := `UPDATE clothing_items SET name = ?, category = ?, color = ?, brand = ?, updated_at = CURRENT_TIMESTAMP`
	args := []any{in.Name, string(in.Category), in.Color, nullString(in.Brand)}
	if in.Image != nil {
		query += `, image = ?, image_mime = ?`
		args = append(args, in.Image, in.ImageMIME)
	}
	query += ` WHERE id = ? AND owner_id = ?`
	args = append(args, id, ownerID)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("updating clothing item: %w", err)
	}
	return affected(result)
}

// DeleteClothing removes an item. It reports whether the item existed for
// this owner.
func DeleteClothing(ctx context.Context, db *sql.DB, ownerID int64, id string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM clothing_items WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting clothing item: %w", err)
	}
	return affected(result)
}

// GetClothingImage returns an item's photo and its MIME type. Data is nil when
// the item has no photo.
func GetClothingImage(ctx context.Context, db *sql.DB, ownerID int64, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM clothing_items WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting clothing image: %w", err)
	}
	return image, mime.String, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClothing(s scanner) (*model.ClothingItem, error) {
	item := &model.ClothingItem{}
	var category string
	var brand, imageMime sql.NullString
	err := s.Scan(&item.ID, &item.OwnerID, &item.Name, &category, &item.Color, &brand, &imageMime, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Category = model.Category(category)
	item.Brand = brand.String
	if imageMime.Valid {
		item.ImageURL = model.ImagePath(item.ID)
	}
	return item, nil
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting affected rows: %w", err)
	}
	return n > 0, nil
}
