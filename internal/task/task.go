package task

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("task not found")
	ErrInvalid  = errors.New("invalid task")
)

type Task struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Type             string    `json:"type"`
	Points           int       `json:"points"`
	IsVariablePoints bool      `json:"isVariablePoints"`
	CreatedAt        time.Time `json:"createdAt"`
}

type CreateRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Type             string `json:"type"`
	Points           int    `json:"points"`
	IsVariablePoints bool   `json:"isVariablePoints"`
}

type UpdateRequest struct {
	Name             *string `json:"name,omitempty"`
	Description      *string `json:"description,omitempty"`
	Type             *string `json:"type,omitempty"`
	Points           *int    `json:"points,omitempty"`
	IsVariablePoints *bool   `json:"isVariablePoints,omitempty"`
}

// AdminStats feeds the admin dashboard headline numbers.
type AdminStats struct {
	TotalTasks         int `json:"totalTasks"`
	TotalParticipants  int `json:"totalParticipants"`
	TotalSubmissions   int `json:"totalSubmissions"`
	PendingSubmissions int `json:"pendingSubmissions"`
}
