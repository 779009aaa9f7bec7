package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	clothingHandler := &ClothingHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)

	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Clothing, scoped to the authenticated owner.
	mux.Handle("GET /api/clothing", authMW(http.HandlerFunc(clothingHandler.List)))
	mux.Handle("POST /api/clothing", authMW(http.HandlerFunc(clothingHandler.Create)))
	mux.Handle("GET /api/clothing/{id}", authMW(http.HandlerFunc(clothingHandler.Get)))
	mux.Handle("PUT /api/clothing/{id}", authMW(http.HandlerFunc(clothingHandler.Update)))
	mux.Handle("DELETE /api/clothing/{id}", authMW(http.HandlerFunc(clothingHandler.Delete)))
	mux.Handle("GET /api/clothing/{id}/image", authMW(http.HandlerFunc(clothingHandler.GetImage)))

	return mux
}
