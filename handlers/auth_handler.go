package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"questboardAPI/middleware"
	"questboardAPI/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) CheckAdminEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		respondWithError(w, http.StatusBadRequest, "Email is required")
		return
	}

	isAdmin, err := h.authService.IsAdminEmail(ctx, body.Email)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to check admin email")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"isAdmin": isAdmin})
}

func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		respondWithError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.authService.RequestAdminOTP(ctx, body.Email); err != nil {
		if errors.Is(err, services.ErrAdminNotFound) {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized: Admin account not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to send OTP")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "OTP sent successfully",
		"email":   body.Email,
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var body struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || len(body.OTP) != 6 {
		respondWithError(w, http.StatusBadRequest, "Invalid input data")
		return
	}

	token, admin, err := h.authService.VerifyAdminOTP(ctx, body.Email, body.OTP)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidOTP):
			respondWithError(w, http.StatusUnauthorized, "Invalid email or OTP")
		case errors.Is(err, services.ErrOTPExpired):
			respondWithError(w, http.StatusUnauthorized, "OTP has expired")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to verify OTP")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"admin":   admin,
	})
}

// ValidateAdminToken confirms the caller's session is still backed by a
// live admin account. Mounted behind the admin auth middleware.
func (h *AuthHandler) ValidateAdminToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	adminID, ok := middleware.GetAdminID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	admin, err := h.authService.GetAdmin(ctx, adminID)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Admin not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"admin": admin,
	})
}
