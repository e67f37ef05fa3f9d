package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"questboardAPI/internal/task"
)

type TaskService struct {
	db *pgxpool.Pool
}

func NewTaskService(db *pgxpool.Pool) *TaskService {
	return &TaskService{db: db}
}

func (s *TaskService) Create(ctx context.Context, req *task.CreateRequest) (*task.Task, error) {
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	if name == "" || description == "" {
		return nil, fmt.Errorf("%w: name and description are required", task.ErrInvalid)
	}
	if !req.IsVariablePoints && req.Points <= 0 {
		return nil, fmt.Errorf("%w: valid points value is required for fixed point tasks", task.ErrInvalid)
	}

	points := req.Points
	if req.IsVariablePoints {
		points = 0
	}

	t := &task.Task{}
	err := s.db.QueryRow(ctx, `
		INSERT INTO tasks (id, name, description, type, points, is_variable_points, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NOW())
		RETURNING id, name, description, type, points, is_variable_points, created_at
	`, name, description, req.Type, points, req.IsVariablePoints).Scan(
		&t.ID, &t.Name, &t.Description, &t.Type, &t.Points, &t.IsVariablePoints, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return t, nil
}

// List returns every task, newest first. Same shape for admins and the
// public board.
func (s *TaskService) List(ctx context.Context) ([]*task.Task, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, type, points, is_variable_points, created_at
		FROM tasks
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t := &task.Task{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Type, &t.Points, &t.IsVariablePoints, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *TaskService) Update(ctx context.Context, id uuid.UUID, req *task.UpdateRequest) (*task.Task, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		req.Description = &trimmed
	}

	t := &task.Task{}
	err := s.db.QueryRow(ctx, `
		UPDATE tasks
		SET name               = COALESCE($1, name),
		    description        = COALESCE($2, description),
		    type               = COALESCE($3, type),
		    points             = COALESCE($4, points),
		    is_variable_points = COALESCE($5, is_variable_points)
		WHERE id = $6
		RETURNING id, name, description, type, points, is_variable_points, created_at
	`, req.Name, req.Description, req.Type, req.Points, req.IsVariablePoints, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.Type, &t.Points, &t.IsVariablePoints, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, task.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}
	return nil
}

// AdminStats aggregates the dashboard headline counts in one round trip.
func (s *TaskService) AdminStats(ctx context.Context) (*task.AdminStats, error) {
	stats := &task.AdminStats{}
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tasks),
			(SELECT COUNT(*) FROM participants),
			(SELECT COUNT(*) FROM submissions),
			(SELECT COUNT(*) FROM submissions WHERE status = 'PENDING')
	`).Scan(&stats.TotalTasks, &stats.TotalParticipants, &stats.TotalSubmissions, &stats.PendingSubmissions)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch admin stats: %w", err)
	}
	return stats, nil
}
