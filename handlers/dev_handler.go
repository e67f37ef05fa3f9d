package handlers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"questboardAPI/services"
)

type DevHandler struct {
	db          *pgxpool.Pool
	authService *services.AuthService
	adminEmails []string
}

func NewDevHandler(db *pgxpool.Pool, authService *services.AuthService, adminEmails []string) *DevHandler {
	return &DevHandler{db: db, authService: authService, adminEmails: adminEmails}
}

// ResetDB wipes every table and reseeds the admin accounts. Refused outright
// in production.
func (h *DevHandler) ResetDB(w http.ResponseWriter, r *http.Request) {
	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		respondWithError(w, http.StatusForbidden, "Database reset is disabled in production")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	_, err := h.db.Exec(ctx, `
		TRUNCATE TABLE device_tokens, submissions, participants, tasks, admins
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		log.Printf("Reset DB error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to reset database")
		return
	}

	if err := h.authService.SeedAdmins(ctx, h.adminEmails); err != nil {
		log.Printf("Reseed admins error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to reseed admins")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Database reset successfully"})
}
