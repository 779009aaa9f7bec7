package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/omara/internal/db"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(database, testJWTSecret))
	t.Cleanup(server.Close)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	store.CreateUser(ctx, database, "ana@example.com", string(hash))
	store.CreateUser(ctx, database, "bor@example.com", string(hash))

	return server
}

func login(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp["token"] == "" {
		t.Fatal("empty token from login")
	}
	return loginResp["token"]
}

func authRequest(method, url, token string, body *bytes.Buffer, contentType string) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, url, body)
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func newClothingForm(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if withImage {
		fw, _ := mw.CreateFormFile("image", "photo.png")
		img := image.NewRGBA(image.Rect(0, 0, 16, 16))
		img.Set(0, 0, color.RGBA{255, 0, 0, 255})
		png.Encode(fw, img)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestLoginEndpoint(t *testing.T) {
	server := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"email": "ana@example.com", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterEndpoint(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		email, password string
		want            int
	}{
		{"cene@example.com", "long-enough", http.StatusCreated},
		{"cene@example.com", "long-enough", http.StatusConflict},
		{"not-an-email", "long-enough", http.StatusBadRequest},
		{"dana@example.com", "short", http.StatusBadRequest},
	}

	for _, tt := range tests {
		body, _ := json.Marshal(map[string]string{"email": tt.email, "password": tt.password})
		resp, err := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("register request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("register(%q, %q): expected %d, got %d", tt.email, tt.password, tt.want, resp.StatusCode)
		}
	}
}

func TestClothingAPIFlow(t *testing.T) {
	server := setupTestServer(t)
	token := login(t, server, "ana@example.com")

	// Create with photo.
	body, ct := newClothingForm(t, map[string]string{
		"name": "Oxford", "category": "shirt", "color": "Blue", "brand": "Uniqlo",
	}, true)
	resp, _ := http.DefaultClient.Do(authRequest("POST", server.URL+"/api/clothing", token, body, ct))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created model.ClothingItem
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created.Category != model.CategoryShirt || created.ImageURL == "" {
		t.Fatalf("unexpected created item: %+v", created)
	}

	// Filtered list.
	resp, _ = http.DefaultClient.Do(authRequest("GET", server.URL+"/api/clothing?category=SHIRT&name=oxf", token, nil, ""))
	var items []model.ClothingItem
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	resp, _ = http.DefaultClient.Do(authRequest("GET", server.URL+"/api/clothing?category=PANTS", token, nil, ""))
	items = nil
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 0 {
		t.Errorf("expected 0 pants, got %d", len(items))
	}

	// Update without photo keeps the photo.
	body, ct = newClothingForm(t, map[string]string{"name": "Oxford", "category": "SHIRT", "color": "White"}, false)
	resp, _ = http.DefaultClient.Do(authRequest("PUT", server.URL+"/api/clothing/"+created.ID, token, body, ct))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var updated model.ClothingItem
	json.NewDecoder(resp.Body).Decode(&updated)
	resp.Body.Close()
	if updated.Color != "White" || updated.Brand != "" || updated.ImageURL == "" {
		t.Errorf("unexpected updated item: %+v", updated)
	}

	resp, _ = http.DefaultClient.Do(authRequest("GET", server.URL+created.ImageURL, token, nil, ""))
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("expected jpeg photo, got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	resp.Body.Close()

	// Delete, then delete again.
	resp, _ = http.DefaultClient.Do(authRequest("DELETE", server.URL+"/api/clothing/"+created.ID, token, nil, ""))
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp, _ = http.DefaultClient.Do(authRequest("DELETE", server.URL+"/api/clothing/"+created.ID, token, nil, ""))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestClothingValidation(t *testing.T) {
	server := setupTestServer(t)
	token := login(t, server, "ana@example.com")

	for _, fields := range []map[string]string{
		{"category": "SHIRT", "color": "Blue"},
		{"name": "Hat", "category": "HAT", "color": "Blue"},
		{"name": "Hat", "category": "ACCESSORY"},
	} {
		body, ct := newClothingForm(t, fields, false)
		resp, _ := http.DefaultClient.Do(authRequest("POST", server.URL+"/api/clothing", token, body, ct))
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("fields %v: expected 400, got %d", fields, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestClothingOwnerIsolation(t *testing.T) {
	server := setupTestServer(t)
	ana := login(t, server, "ana@example.com")
	bor := login(t, server, "bor@example.com")

	body, ct := newClothingForm(t, map[string]string{"name": "Boots", "category": "SHOES", "color": "Brown"}, false)
	resp, _ := http.DefaultClient.Do(authRequest("POST", server.URL+"/api/clothing", ana, body, ct))
	var created model.ClothingItem
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	resp, _ = http.DefaultClient.Do(authRequest("GET", server.URL+"/api/clothing/"+created.ID, bor, nil, ""))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for another owner's item, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	server := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/clothing")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server := setupTestServer(t)
	token := login(t, server, "ana@example.com")

	resp, _ := http.DefaultClient.Do(authRequest("POST", server.URL+"/api/auth/logout", token, nil, ""))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.DefaultClient.Do(authRequest("GET", server.URL+"/api/clothing", token, nil, ""))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateWithFailedPhotoWriteLeavesNoItem(t *testing.T) {
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(database, testJWTSecret))
	t.Cleanup(server.Close)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	store.CreateUser(context.Background(), database, "ana@example.com", string(hash))
	token := login(t, server, "ana@example.com")

	if _, err := database.Exec(`CREATE TRIGGER reject_photos BEFORE INSERT ON clothing_items
		WHEN NEW.image IS NOT NULL BEGIN SELECT RAISE(ABORT, 'photo rejected'); END`); err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	body, ct := newClothingForm(t, map[string]string{"name": "Coat", "category": "JACKET", "color": "Gray"}, true)
	resp, err := http.DefaultClient.Do(authRequest("POST", server.URL+"/api/clothing", token, body, ct))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	resp, _ = http.DefaultClient.Do(authRequest("GET", server.URL+"/api/clothing", token, nil, ""))
	var items []model.ClothingItem
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 0 {
		t.Errorf("expected no items after failed create, got %d", len(items))
	}
}
