package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"questboardAPI/internal/notification"
	"questboardAPI/internal/participant"
	"questboardAPI/middleware"
	"questboardAPI/services"
)

type ParticipantHandler struct {
	authService        *services.AuthService
	participantService *services.ParticipantService
}

func NewParticipantHandler(authService *services.AuthService, participantService *services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{
		authService:        authService,
		participantService: participantService,
	}
}

func (h *ParticipantHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req participant.OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "Email is required")
		return
	}

	isNewUser, err := h.authService.RequestParticipantOTP(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrRegistrationRequired) {
			respondWithJSON(w, http.StatusBadRequest, map[string]any{
				"error":     "Name and college are required for new users",
				"isNewUser": true,
			})
			return
		}
		log.Printf("Request participant OTP error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to send OTP")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":   "OTP sent successfully",
		"email":     participant.NormalizeEmail(req.Email),
		"isNewUser": isNewUser,
	})
}

func (h *ParticipantHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req participant.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, p, err := h.authService.VerifyParticipantOTP(ctx, req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidOTP):
			respondWithError(w, http.StatusUnauthorized, "Invalid email or OTP")
		case errors.Is(err, services.ErrOTPExpired):
			respondWithError(w, http.StatusUnauthorized, "OTP has expired")
		default:
			log.Printf("Verify participant OTP error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to verify OTP")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":     "OTP verified successfully",
		"token":       token,
		"participant": p,
	})
}

func (h *ParticipantHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := participantIDFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req participant.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.participantService.UpdateProfile(ctx, id, &req)
	if err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Participant not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":     "Profile updated successfully",
		"participant": p,
	})
}

// ValidateToken confirms the participant session and returns the profile.
func (h *ParticipantHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := participantIDFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	p, err := h.participantService.GetByID(ctx, id)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Participant not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"valid":       true,
		"participant": p,
	})
}

func (h *ParticipantHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := participantIDFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req notification.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.participantService.RegisterDevice(ctx, id, &req); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device registered successfully"})
}

func participantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	raw, ok := middleware.GetParticipantID(ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
