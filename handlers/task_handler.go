package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"questboardAPI/internal/task"
	"questboardAPI/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List returns the task catalog. The endpoint is public so the frontend can
// render available challenges without a session.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tasks, err := h.taskService.List(ctx)
	if err != nil {
		log.Printf("List tasks error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch tasks")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req task.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.taskService.Create(ctx, &req)
	if err != nil {
		if errors.Is(err, task.ErrInvalid) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Create task error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{
		"message": "Task created successfully",
		"task":    t,
	})
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req task.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.taskService.Update(ctx, id, &req)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Task not found")
			return
		}
		log.Printf("Update task error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update task")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message": "Task updated successfully",
		"task":    t,
	})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := h.taskService.Delete(ctx, id); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Task not found")
			return
		}
		log.Printf("Delete task error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func (h *TaskHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.taskService.AdminStats(ctx)
	if err != nil {
		log.Printf("Admin stats error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
