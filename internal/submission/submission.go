package submission

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// TaskTypes lists the accepted task categories.
var TaskTypes = []string{"CHALLENGE", "MENTOR_SESSION", "POWERUP_CHALLENGE", "EASTER_EGG"}

var (
	ErrNotFound  = errors.New("submission not found")
	ErrDuplicate = errors.New("a submission for this task already exists and is not rejected")
)

type Submission struct {
	ID            uuid.UUID `json:"id"`
	ParticipantID uuid.UUID `json:"participantId"`
	TaskName      string    `json:"taskName"`
	TaskType      string    `json:"taskType"`
	FileURL       string    `json:"fileUrl"`
	Status        Status    `json:"status"`
	Points        *int      `json:"points"`
	Note          *string   `json:"note"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ParticipantInfo is the owner summary joined onto admin submission listings.
type ParticipantInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type WithParticipant struct {
	Submission
	Participant ParticipantInfo `json:"participant"`
}

type CreateRequest struct {
	TaskName string `json:"taskName"`
	TaskType string `json:"taskType"`
	FileURL  string `json:"fileUrl"`
}

func (r *CreateRequest) Validate() error {
	r.TaskName = strings.TrimSpace(r.TaskName)
	if r.TaskName == "" || len(r.TaskName) > 200 {
		return fmt.Errorf("taskName must be 1-200 characters")
	}
	validType := false
	for _, t := range TaskTypes {
		if r.TaskType == t {
			validType = true
			break
		}
	}
	if !validType {
		return fmt.Errorf("invalid taskType %q", r.TaskType)
	}
	if !strings.HasPrefix(r.FileURL, "http://") && !strings.HasPrefix(r.FileURL, "https://") {
		return fmt.Errorf("fileUrl must be a valid URL")
	}
	return nil
}

// ReviewRequest is an admin decision on a pending or previously reviewed
// submission. Points are only meaningful on approval.
type ReviewRequest struct {
	Status Status  `json:"status"`
	Points *int    `json:"points,omitempty"`
	Note   *string `json:"note,omitempty"`
}

func (r *ReviewRequest) Validate() error {
	switch r.Status {
	case StatusApproved:
		if r.Points == nil {
			return fmt.Errorf("points are required when approving")
		}
		if *r.Points < 0 || *r.Points > 1000 {
			return fmt.Errorf("points must be between 0 and 1000")
		}
	case StatusRejected:
	default:
		return fmt.Errorf("status must be APPROVED or REJECTED")
	}
	if r.Note != nil && len(*r.Note) > 500 {
		return fmt.Errorf("note too long")
	}
	return nil
}
