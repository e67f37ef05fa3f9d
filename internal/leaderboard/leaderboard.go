package leaderboard

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a ranked projection of a participant, recomputed on every read.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	TotalPoints int       `json:"totalPoints"`
	TaskCount   int       `json:"taskCount"`
	Rank        int       `json:"rank"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type Leaderboard struct {
	Leaderboard []*Entry   `json:"leaderboard"`
	Pagination  Pagination `json:"pagination"`
}

// ExportRow carries the extra columns of the admin CSV export.
type ExportRow struct {
	Rank        int
	Name        string
	Email       string
	TotalPoints int
	TaskCount   int
	JoinedAt    time.Time
}
