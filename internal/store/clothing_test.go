package store

import (
	"context"
	"testing"

	"github.com/erazemk/omara/internal/db"
	"github.com/erazemk/omara/internal/model"
)

func TestCreateAndGetClothing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, database, "ana@example.com", "hash")

	item, err := CreateClothing(ctx, database, user.ID, ClothingInput{
		Name: "Oxford shirt", Category: model.CategoryShirt, Color: "White", Brand: "Uniqlo",
	})
	if err != nil {
		t.Fatalf("CreateClothing: %v", err)
	}
	if item.ID == "" {
		t.Fatal("expected generated id")
	}
	if item.OwnerID != user.ID {
		t.Errorf("expected owner %d, got %d", user.ID, item.OwnerID)
	}
	if item.ImageURL != "" {
		t.Errorf("expected no image url, got %q", item.ImageURL)
	}

	got, err := GetClothing(ctx, database, user.ID, item.ID)
	if err != nil {
		t.Fatalf("GetClothing: %v", err)
	}
	if got.Brand != "Uniqlo" || got.Category != model.CategoryShirt {
		t.Errorf("unexpected item: %+v", got)
	}
}

func TestClothingOwnershipIsolation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana, _ := CreateUser(ctx, database, "ana@example.com", "hash")
	bor, _ := CreateUser(ctx, database, "bor@example.com", "hash")

	item, _ := CreateClothing(ctx, database, ana.ID, ClothingInput{Name: "Boots", Category: model.CategoryShoes, Color: "Brown"})

	got, err := GetClothing(ctx, database, bor.ID, item.ID)
	if err != nil {
		t.Fatalf("GetClothing: %v", err)
	}
	if got != nil {
		t.Error("another owner's item must not be visible")
	}

	found, err := DeleteClothing(ctx, database, bor.ID, item.ID)
	if err != nil {
		t.Fatalf("DeleteClothing: %v", err)
	}
	if found {
		t.Error("another owner must not delete the item")
	}

	items, _ := ListClothing(ctx, database, bor.ID, model.FilterCriteria{})
	if len(items) != 0 {
		t.Errorf("expected 0 items for second owner, got %d", len(items))
	}
}

func TestListClothingFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, database, "ana@example.com", "hash")

	seed := []ClothingInput{
		{Name: "Blue Oxford", Category: model.CategoryShirt, Color: "Blue", Brand: "Uniqlo"},
		{Name: "Linen shirt", Category: model.CategoryShirt, Color: "White", Brand: "Zara"},
		{Name: "Chinos", Category: model.CategoryPants, Color: "Beige", Brand: "Uniqlo"},
		{Name: "100%_wool scarf", Category: model.CategoryAccessory, Color: "Gray"},
	}
	for _, in := range seed {
		if _, err := CreateClothing(ctx, database, user.ID, in); err != nil {
			t.Fatalf("CreateClothing: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter model.FilterCriteria
		want   int
	}{
		{"no filter", model.FilterCriteria{}, 4},
		{"category", model.FilterCriteria{Category: "SHIRT"}, 2},
		{"name substring ignores case", model.FilterCriteria{Name: "oxford"}, 1},
		{"color ignores case", model.FilterCriteria{Color: "white"}, 1},
		{"brand substring", model.FilterCriteria{Brand: "uni"}, 2},
		{"combined", model.FilterCriteria{Category: "PANTS", Brand: "Uniqlo"}, 1},
		{"wildcards are literal", model.FilterCriteria{Name: "%_"}, 1},
		{"no match", model.FilterCriteria{Category: "SHOES"}, 0},
	}

	for _, tt := range tests {
		items, err := ListClothing(ctx, database, user.ID, tt.filter)
		if err != nil {
			t.Fatalf("%s: ListClothing: %v", tt.name, err)
		}
		if len(items) != tt.want {
			t.Errorf("%s: expected %d items, got %d", tt.name, tt.want, len(items))
		}
	}
}

func TestUpdateAndDeleteClothing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, database, "ana@example.com", "hash")

	item, _ := CreateClothing(ctx, database, user.ID, ClothingInput{Name: "Jacket", Category: model.CategoryJacket, Color: "Black", Brand: "Acme"})

	found, err := UpdateClothing(ctx, database, user.ID, item.ID, ClothingInput{Name: "Rain jacket", Category: model.CategoryJacket, Color: "Navy"})
	if err != nil || !found {
		t.Fatalf("UpdateClothing: found=%v err=%v", found, err)
	}

	got, _ := GetClothing(ctx, database, user.ID, item.ID)
	if got.Name != "Rain jacket" || got.Color != "Navy" || got.Brand != "" {
		t.Errorf("fields not replaced wholesale: %+v", got)
	}

	found, _ = UpdateClothing(ctx, database, user.ID, "missing", ClothingInput{Name: "x", Category: model.CategoryOther, Color: "x"})
	if found {
		t.Error("expected missing item to report not found")
	}

	found, err = DeleteClothing(ctx, database, user.ID, item.ID)
	if err != nil || !found {
		t.Fatalf("DeleteClothing: found=%v err=%v", found, err)
	}
	got, _ = GetClothing(ctx, database, user.ID, item.ID)
	if got != nil {
		t.Error("expected item to be gone after delete")
	}
}

func TestClothingImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, database, "ana@example.com", "hash")

	item, err := CreateClothing(ctx, database, user.ID, ClothingInput{
		Name: "Photo", Category: model.CategoryOther, Color: "Red",
		Image: []byte("fake image data"), ImageMIME: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("CreateClothing: %v", err)
	}
	if item.ImageURL != model.ImagePath(item.ID) {
		t.Errorf("created item has image url %q", item.ImageURL)
	}

	data, mime, err := GetClothingImage(ctx, database, user.ID, item.ID)
	if err != nil {
		t.Fatalf("GetClothingImage: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("expected image data, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected mime 'image/jpeg', got %q", mime)
	}

	got, _ := GetClothing(ctx, database, user.ID, item.ID)
	if got.ImageURL != model.ImagePath(item.ID) {
		t.Errorf("expected image url %q, got %q", model.ImagePath(item.ID), got.ImageURL)
	}
}

func TestUpdateClothingImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, database, "ana@example.com", "hash")
	item, _ := CreateClothing(ctx, database, user.ID, ClothingInput{
		Name: "Scarf", Category: model.CategoryAccessory, Color: "Red",
		Image: []byte("first"), ImageMIME: "image/jpeg",
	})

	in := ClothingInput{Name: "Scarf", Category: model.CategoryAccessory, Color: "Navy"}
	if _, err := UpdateClothing(ctx, database, user.ID, item.ID, in); err != nil {
		t.Fatalf("UpdateClothing: %v", err)
	}
	data, _, _ := GetClothingImage(ctx, database, user.ID, item.ID)
	if string(data) != "first" {
		t.Errorf("update without image replaced photo: %q", data)
	}

	in.Image, in.ImageMIME = []byte("second"), "image/jpeg"
	if _, err := UpdateClothing(ctx, database, user.ID, item.ID, in); err != nil {
		t.Fatalf("UpdateClothing: %v", err)
	}
	data, _, _ = GetClothingImage(ctx, database, user.ID, item.ID)
	if string(data) != "second" {
		t.Errorf("expected new photo, got %q", data)
	}
}

// A rejected photo write must not leave a photo-less item behind.
func TestCreateClothingWithImageIsAtomic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, database, "ana@example.com", "hash")

	_, err := database.Exec(`CREATE TRIGGER reject_photos BEFORE INSERT ON clothing_items
		WHEN NEW.image IS NOT NULL BEGIN SELECT RAISE(ABORT, 'photo rejected'); END`)
	if err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	_, err = CreateClothing(ctx, database, user.ID, ClothingInput{
		Name: "Coat", Category: model.CategoryJacket, Color: "Gray",
		Image: []byte("data"), ImageMIME: "image/jpeg",
	})
	if err == nil {
		t.Fatal("expected create to fail")
	}

	items, err := ListClothing(ctx, database, user.ID, model.FilterCriteria{})
	if err != nil {
		t.Fatalf("ListClothing: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items after failed create, got %d", len(items))
	}
}
