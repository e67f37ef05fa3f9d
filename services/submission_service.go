package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"questboardAPI/internal/participant"
	"questboardAPI/internal/submission"
)

// SubmissionService owns the submission lifecycle and the participant
// ledger it feeds. Every mutation runs in one transaction: the submission
// row is locked, the status written, and the totals adjusted with atomic
// increments, so concurrent reviews never lose an update.
type SubmissionService struct {
	db         *pgxpool.Pool
	dispatcher *ReviewDispatcher
}

func NewSubmissionService(db *pgxpool.Pool) *SubmissionService {
	return &SubmissionService{db: db}
}

// SetDispatcher wires the realtime/notification fan-out. Optional; without
// it mutations still commit, nothing is broadcast.
func (s *SubmissionService) SetDispatcher(d *ReviewDispatcher) {
	s.dispatcher = d
}

// Create files a submission for a task, or resets a previously rejected one
// back to pending. A live (non-rejected) submission for the same task is a
// conflict and leaves the ledger untouched.
func (s *SubmissionService) Create(ctx context.Context, participantID uuid.UUID, req *submission.CreateRequest) (*submission.WithParticipant, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var pName, pEmail string
	err = tx.QueryRow(ctx,
		`SELECT name, email FROM participants WHERE id = $1`, participantID,
	).Scan(&pName, &pEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, participant.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up participant: %w", err)
	}

	var existingID uuid.UUID
	var existingStatus submission.Status
	err = tx.QueryRow(ctx, `
		SELECT id, status FROM submissions
		WHERE participant_id = $1 AND task_name = $2
		FOR UPDATE
	`, participantID, req.TaskName).Scan(&existingID, &existingStatus)
	switch {
	case err == nil:
		if existingStatus != submission.StatusRejected {
			return nil, submission.ErrDuplicate
		}
	case errors.Is(err, pgx.ErrNoRows):
		existingID = uuid.Nil
	default:
		return nil, fmt.Errorf("failed to look up existing submission: %w", err)
	}

	sub := &submission.WithParticipant{}
	sub.Participant = submission.ParticipantInfo{Name: pName, Email: pEmail}

	const returning = `RETURNING id, participant_id, task_name, task_type, file_url, status, points, note, created_at, updated_at`
	if existingID != uuid.Nil {
		// Resubmission overwrites the rejected record.
		err = tx.QueryRow(ctx, `
			UPDATE submissions
			SET file_url = $1, task_type = $2, status = 'PENDING', points = NULL, note = NULL, updated_at = NOW()
			WHERE id = $3 `+returning,
			req.FileURL, req.TaskType, existingID,
		).Scan(
			&sub.ID, &sub.ParticipantID, &sub.TaskName, &sub.TaskType, &sub.FileURL,
			&sub.Status, &sub.Points, &sub.Note, &sub.CreatedAt, &sub.UpdatedAt,
		)
	} else {
		err = tx.QueryRow(ctx, `
			INSERT INTO submissions (id, participant_id, task_name, task_type, file_url, status, created_at, updated_at)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, 'PENDING', NOW(), NOW()) `+returning,
			participantID, req.TaskName, req.TaskType, req.FileURL,
		).Scan(
			&sub.ID, &sub.ParticipantID, &sub.TaskName, &sub.TaskType, &sub.FileURL,
			&sub.Status, &sub.Points, &sub.Note, &sub.CreatedAt, &sub.UpdatedAt,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write submission: %w", err)
	}

	delta := submission.CreationDelta()
	_, err = tx.Exec(ctx, `
		UPDATE participants
		SET task_count = task_count + $1, updated_at = NOW()
		WHERE id = $2
	`, delta.Tasks, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust task count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit submission: %w", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.SubmissionCreated(sub)
	}
	return sub, nil
}

// Review applies an admin decision. The ledger adjustment and the status
// write commit together or not at all.
func (s *SubmissionService) Review(ctx context.Context, id uuid.UUID, req *submission.ReviewRequest) (*submission.WithParticipant, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current submission.Status
	var currentPoints *int
	var participantID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT status, points, participant_id FROM submissions
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&current, &currentPoints, &participantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, submission.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up submission: %w", err)
	}

	// Points only count toward the ledger while the submission is approved.
	prevPoints := 0
	if current == submission.StatusApproved && currentPoints != nil {
		prevPoints = *currentPoints
	}
	nextPoints := 0
	if req.Points != nil {
		nextPoints = *req.Points
	}

	delta, err := submission.ReviewDelta(current, prevPoints, req.Status, nextPoints)
	if err != nil {
		return nil, err
	}

	sub := &submission.WithParticipant{}
	var newPoints *int
	if req.Status == submission.StatusApproved {
		newPoints = req.Points
	} else {
		newPoints = currentPoints
	}
	err = tx.QueryRow(ctx, `
		UPDATE submissions
		SET status = $1, points = $2, note = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, participant_id, task_name, task_type, file_url, status, points, note, created_at, updated_at
	`, req.Status, newPoints, req.Note, id).Scan(
		&sub.ID, &sub.ParticipantID, &sub.TaskName, &sub.TaskType, &sub.FileURL,
		&sub.Status, &sub.Points, &sub.Note, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update submission: %w", err)
	}

	if !delta.IsZero() {
		_, err = tx.Exec(ctx, `
			UPDATE participants
			SET total_points = total_points + $1, task_count = task_count + $2, updated_at = NOW()
			WHERE id = $3
		`, delta.Points, delta.Tasks, participantID)
		if err != nil {
			return nil, fmt.Errorf("failed to adjust participant totals: %w", err)
		}
	}

	err = tx.QueryRow(ctx,
		`SELECT name, email FROM participants WHERE id = $1`, participantID,
	).Scan(&sub.Participant.Name, &sub.Participant.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up participant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit review: %w", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.SubmissionReviewed(sub)
	}
	return sub, nil
}

// AdminList returns a filtered, paginated view of all submissions with
// owner info and the matching task definition when one exists.
type AdminListFilters struct {
	Status   string
	TaskType string
	Email    string
}

type AdminListItem struct {
	submission.WithParticipant
	Task *TaskInfo `json:"task"`
}

type TaskInfo struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	Points           int       `json:"points"`
	IsVariablePoints bool      `json:"isVariablePoints"`
}

func (s *SubmissionService) AdminList(ctx context.Context, page, limit int, f AdminListFilters) ([]*AdminListItem, int, error) {
	skip := (page - 1) * limit

	rows, err := s.db.Query(ctx, `
		SELECT s.id, s.participant_id, s.task_name, s.task_type, s.file_url, s.status,
		       s.points, s.note, s.created_at, s.updated_at,
		       p.name, p.email,
		       t.id, t.name, t.type, t.points, t.is_variable_points
		FROM submissions s
		JOIN participants p ON p.id = s.participant_id
		LEFT JOIN tasks t ON t.name = s.task_name AND t.type = s.task_type
		WHERE ($1 = '' OR s.status = $1)
		  AND ($2 = '' OR s.task_type = $2)
		  AND ($3 = '' OR p.email = $3)
		ORDER BY s.created_at DESC
		OFFSET $4 LIMIT $5
	`, f.Status, f.TaskType, f.Email, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	defer rows.Close()

	var items []*AdminListItem
	for rows.Next() {
		item := &AdminListItem{}
		var taskID *uuid.UUID
		var taskName, taskType *string
		var taskPoints *int
		var taskVariable *bool
		err := rows.Scan(
			&item.ID, &item.ParticipantID, &item.TaskName, &item.TaskType, &item.FileURL,
			&item.Status, &item.Points, &item.Note, &item.CreatedAt, &item.UpdatedAt,
			&item.Participant.Name, &item.Participant.Email,
			&taskID, &taskName, &taskType, &taskPoints, &taskVariable,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan submission: %w", err)
		}
		if taskID != nil {
			item.Task = &TaskInfo{
				ID:               *taskID,
				Name:             *taskName,
				Type:             *taskType,
				Points:           *taskPoints,
				IsVariablePoints: *taskVariable,
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read submissions: %w", err)
	}

	var total int
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM submissions s
		JOIN participants p ON p.id = s.participant_id
		WHERE ($1 = '' OR s.status = $1)
		  AND ($2 = '' OR s.task_type = $2)
		  AND ($3 = '' OR p.email = $3)
	`, f.Status, f.TaskType, f.Email).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	if items == nil {
		items = []*AdminListItem{}
	}
	return items, total, nil
}
