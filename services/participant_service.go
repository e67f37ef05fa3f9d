package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"questboardAPI/internal/notification"
	"questboardAPI/internal/participant"
	"questboardAPI/internal/submission"
)

type ParticipantService struct {
	db *pgxpool.Pool
}

func NewParticipantService(db *pgxpool.Pool) *ParticipantService {
	return &ParticipantService{db: db}
}

func (s *ParticipantService) GetByID(ctx context.Context, id uuid.UUID) (*participant.Participant, error) {
	p := &participant.Participant{}
	err := s.db.QueryRow(ctx, `
		SELECT id, email, name, college, gender, total_points, task_count, created_at, updated_at
		FROM participants
		WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Email, &p.Name, &p.College, &p.Gender,
		&p.TotalPoints, &p.TaskCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, participant.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// GetStats reads the slim totals tuple pushed over the realtime channel.
func (s *ParticipantService) GetStats(ctx context.Context, id uuid.UUID) (*participant.Stats, error) {
	st := &participant.Stats{}
	err := s.db.QueryRow(ctx, `
		SELECT id, email, total_points, task_count FROM participants WHERE id = $1
	`, id).Scan(&st.ID, &st.Email, &st.TotalPoints, &st.TaskCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, participant.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participant stats: %w", err)
	}
	return st, nil
}

func (s *ParticipantService) UpdateProfile(ctx context.Context, id uuid.UUID, req *participant.UpdateProfileRequest) (*participant.Participant, error) {
	_, err := s.db.Exec(ctx, `
		UPDATE participants
		SET name    = COALESCE($1, name),
		    college = COALESCE($2, college),
		    gender  = COALESCE($3, gender),
		    updated_at = NOW()
		WHERE id = $4
	`, req.Name, req.College, req.Gender, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetSubmissions returns a participant's own submissions, newest first.
func (s *ParticipantService) GetSubmissions(ctx context.Context, id uuid.UUID) ([]*submission.Submission, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, participant_id, task_name, task_type, file_url, status, points, note, created_at, updated_at
		FROM submissions
		WHERE participant_id = $1
		ORDER BY created_at DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	defer rows.Close()

	var subs []*submission.Submission
	for rows.Next() {
		sub := &submission.Submission{}
		err := rows.Scan(
			&sub.ID, &sub.ParticipantID, &sub.TaskName, &sub.TaskType, &sub.FileURL,
			&sub.Status, &sub.Points, &sub.Note, &sub.CreatedAt, &sub.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *ParticipantService) RegisterDevice(ctx context.Context, id uuid.UUID, req *notification.RegisterDeviceRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO device_tokens (id, participant_id, platform, token, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, NOW())
		ON CONFLICT (participant_id, token) DO UPDATE SET platform = EXCLUDED.platform
	`, id, req.Platform, req.Token)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *ParticipantService) DeviceTokens(ctx context.Context, id uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT platform, token FROM device_tokens WHERE participant_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Platform, &t.Token); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Roster row for the participants spreadsheet export.
type RosterEntry struct {
	Name    string
	Email   string
	College *string
}

// Roster lists every participant alphabetically for the Excel export.
func (s *ParticipantService) Roster(ctx context.Context) ([]RosterEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT name, email, college FROM participants ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch participants: %w", err)
	}
	defer rows.Close()

	var out []RosterEntry
	for rows.Next() {
		var e RosterEntry
		if err := rows.Scan(&e.Name, &e.Email, &e.College); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
