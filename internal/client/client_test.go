package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/omara/internal/api"
	"github.com/erazemk/omara/internal/db"
	"github.com/erazemk/omara/internal/model"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestAPI(t *testing.T) string {
	t.Helper()
	database := db.NewTestDB(t)
	server := httptest.NewServer(api.NewRouter(database, "test-secret"))
	t.Cleanup(server.Close)
	return server.URL
}

func loggedIn(t *testing.T, baseURL, email string) *Client {
	t.Helper()
	ctx := context.Background()
	auth, err := NewAuth(baseURL)
	require.NoError(t, err)

	creds := Credentials{Email: email, Password: "correct horse"}
	require.NoError(t, auth.Register(ctx, creds))
	token, err := auth.Login(ctx, creds)
	require.NoError(t, err)

	c, err := New(baseURL, staticToken(token))
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com", staticToken(""))
	assert.Error(t, err)
	_, err = NewAuth("://nope")
	assert.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	baseURL := newTestAPI(t)
	auth, err := NewAuth(baseURL)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, auth.Register(ctx, Credentials{Email: "ana@example.com", Password: "correct horse"}))

	_, err = auth.Login(ctx, Credentials{Email: "ana@example.com", Password: "wrong horse"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.NotEmpty(t, remote.Message())
}

func TestRegisterDuplicate(t *testing.T) {
	baseURL := newTestAPI(t)
	auth, err := NewAuth(baseURL)
	require.NoError(t, err)

	ctx := context.Background()
	creds := Credentials{Email: "ana@example.com", Password: "correct horse"}
	require.NoError(t, auth.Register(ctx, creds))

	err = auth.Register(ctx, creds)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusConflict, remote.Status)
}

func TestClothingLifecycle(t *testing.T) {
	baseURL := newTestAPI(t)
	c := loggedIn(t, baseURL, "ana@example.com")
	ctx := context.Background()

	items, err := c.ListClothing(ctx, model.FilterCriteria{})
	require.NoError(t, err)
	assert.Empty(t, items)

	created, err := c.CreateClothing(ctx, ItemForm{
		Name: "Oxford shirt", Category: model.CategoryShirt, Color: "Blue", Brand: "Uniqlo",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Oxford shirt", created.Name)

	_, err = c.CreateClothing(ctx, ItemForm{Name: "Chinos", Category: model.CategoryPants, Color: "Beige"})
	require.NoError(t, err)

	items, err = c.ListClothing(ctx, model.FilterCriteria{Category: "SHIRT"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)

	items, err = c.ListClothing(ctx, model.FilterCriteria{Brand: "uniq"})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	form := FormFromItem(created)
	form.Color = "Navy"
	updated, err := c.UpdateClothing(ctx, created.ID, form)
	require.NoError(t, err)
	assert.Equal(t, "Navy", updated.Color)
	assert.Equal(t, "Uniqlo", updated.Brand)

	got, err := c.GetClothing(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Navy", got.Color)

	require.NoError(t, c.DeleteClothing(ctx, created.ID))

	err = c.DeleteClothing(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.GetClothing(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClothingOwnerIsolation(t *testing.T) {
	baseURL := newTestAPI(t)
	ana := loggedIn(t, baseURL, "ana@example.com")
	bor := loggedIn(t, baseURL, "bor@example.com")
	ctx := context.Background()

	item, err := ana.CreateClothing(ctx, ItemForm{Name: "Boots", Category: model.CategoryShoes, Color: "Brown"})
	require.NoError(t, err)

	items, err := bor.ListClothing(ctx, model.FilterCriteria{})
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.True(t, errors.Is(bor.DeleteClothing(ctx, item.ID), ErrNotFound))
}

func TestClothingWithoutToken(t *testing.T) {
	baseURL := newTestAPI(t)
	c, err := New(baseURL, staticToken(""))
	require.NoError(t, err)

	_, err = c.ListClothing(context.Background(), model.FilterCriteria{})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestCreateValidatesBeforeSending(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	t.Cleanup(server.Close)

	c, err := New(server.URL, staticToken("x"))
	require.NoError(t, err)

	_, err = c.CreateClothing(context.Background(), ItemForm{Category: model.CategoryShirt, Color: "Red"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
	assert.Zero(t, hits)
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	c, err := New(baseURL, staticToken("x"))
	require.NoError(t, err)

	_, err = c.ListClothing(context.Background(), model.FilterCriteria{})
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "list clothing", terr.Op)
}

func TestRemoteErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":"name is required"}`, "name is required"},
		{"  plain failure\n", "plain failure"},
		{"", ""},
	}
	for _, tt := range tests {
		e := &RemoteError{Op: "x", Status: http.StatusBadRequest, Body: []byte(tt.body)}
		assert.Equal(t, tt.want, e.Message(), "body %q", tt.body)
	}
}

func TestItemFormValidate(t *testing.T) {
	tests := []struct {
		name  string
		form  ItemForm
		field string
	}{
		{"ok", ItemForm{Name: "a", Category: model.CategoryOther, Color: "Red"}, ""},
		{"blank name", ItemForm{Name: " ", Category: model.CategoryOther, Color: "Red"}, "name"},
		{"bad category", ItemForm{Name: "a", Category: "HAT", Color: "Red"}, "category"},
		{"no color", ItemForm{Name: "a", Category: model.CategoryOther}, "color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
