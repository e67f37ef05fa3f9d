package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"questboardAPI/internal/submission"
	"questboardAPI/services"
)

type SubmissionHandler struct {
	submissionService  *services.SubmissionService
	participantService *services.ParticipantService
}

func NewSubmissionHandler(submissionService *services.SubmissionService, participantService *services.ParticipantService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService:  submissionService,
		participantService: participantService,
	}
}

func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, ok := participantIDFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req submission.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.submissionService.Create(ctx, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, submission.ErrDuplicate):
			respondWithError(w, http.StatusConflict, "You already have an active submission for this task")
		case errors.Is(err, submission.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Participant not found")
		default:
			log.Printf("Create submission error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to create submission")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{
		"message":    "Submission received and pending review",
		"submission": sub,
	})
}

// MySubmissions returns the authenticated participant's submissions and
// current totals.
func (h *SubmissionHandler) MySubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := participantIDFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	subs, err := h.participantService.GetSubmissions(ctx, id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch submissions")
		return
	}

	stats, err := h.participantService.GetStats(ctx, id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"stats":       stats,
	})
}

func (h *SubmissionHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	page, limit := parsePagination(r, 20)
	filters := services.AdminListFilters{
		Status:   r.URL.Query().Get("status"),
		TaskType: r.URL.Query().Get("taskType"),
		Email:    r.URL.Query().Get("email"),
	}

	items, total, err := h.submissionService.AdminList(ctx, page, limit, filters)
	if err != nil {
		log.Printf("Admin list submissions error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch submissions")
		return
	}

	totalPages := (total + limit - 1) / limit
	respondWithJSON(w, http.StatusOK, map[string]any{
		"submissions": items,
		"pagination": map[string]int{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}

func (h *SubmissionHandler) Review(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid submission ID")
		return
	}

	var req submission.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.submissionService.Review(ctx, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, submission.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Submission not found")
		case errors.Is(err, submission.ErrInvalidTransition):
			respondWithError(w, http.StatusConflict, "Submission cannot transition to the requested status")
		default:
			log.Printf("Review submission error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to review submission")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":    "Submission reviewed successfully",
		"submission": sub,
	})
}

func parsePagination(r *http.Request, defaultLimit int) (page, limit int) {
	page = 1
	limit = defaultLimit

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return page, limit
}
