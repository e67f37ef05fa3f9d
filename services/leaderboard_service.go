package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"questboardAPI/internal/leaderboard"
	"questboardAPI/internal/ranking"
)

// snapshotLimit bounds the realtime broadcast to the top of the board,
// matching the default page size of the public endpoint.
const snapshotLimit = 50

type LeaderboardService struct {
	db *pgxpool.Pool
}

func NewLeaderboardService(db *pgxpool.Pool) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// GetLeaderboard returns one ranked window of the standings. Only
// participants with points appear; ordering and rank assignment follow
// (totalPoints desc, taskCount desc, name asc) with competition ranking.
// Ranks are computed within the fetched window against the page offset.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, page, limit int) (*leaderboard.Leaderboard, error) {
	skip := (page - 1) * limit

	rows, err := s.db.Query(ctx, `
		SELECT id, name, total_points, task_count
		FROM participants
		WHERE total_points > 0
		ORDER BY total_points DESC, task_count DESC, name ASC
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.Entry
	var keys []ranking.Key
	for rows.Next() {
		e := &leaderboard.Entry{}
		if err := rows.Scan(&e.ID, &e.Name, &e.TotalPoints, &e.TaskCount); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, e)
		keys = append(keys, ranking.Key{Points: e.TotalPoints, Tasks: e.TaskCount})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	for i, r := range ranking.Assign(keys, skip) {
		entries[i].Rank = r
	}

	var total int
	err = s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM participants WHERE total_points > 0`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count leaderboard: %w", err)
	}

	if entries == nil {
		entries = []*leaderboard.Entry{}
	}
	return &leaderboard.Leaderboard{
		Leaderboard: entries,
		Pagination: leaderboard.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// Snapshot is the broadcast payload: the first page of the standings with
// the same envelope the HTTP endpoint serves.
func (s *LeaderboardService) Snapshot(ctx context.Context) (*leaderboard.Leaderboard, error) {
	return s.GetLeaderboard(ctx, 1, snapshotLimit)
}

// ExportRows loads the full ranked standings for the CSV export, skip=0.
func (s *LeaderboardService) ExportRows(ctx context.Context) ([]leaderboard.ExportRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT name, email, total_points, task_count, created_at
		FROM participants
		WHERE total_points > 0
		ORDER BY total_points DESC, task_count DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch export rows: %w", err)
	}
	defer rows.Close()

	var out []leaderboard.ExportRow
	var keys []ranking.Key
	for rows.Next() {
		var r leaderboard.ExportRow
		if err := rows.Scan(&r.Name, &r.Email, &r.TotalPoints, &r.TaskCount, &r.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		out = append(out, r)
		keys = append(keys, ranking.Key{Points: r.TotalPoints, Tasks: r.TaskCount})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export rows: %w", err)
	}

	for i, rank := range ranking.Assign(keys, 0) {
		out[i].Rank = rank
	}
	return out, nil
}

// RenderCSV writes the export in the agreed column order. Pure so it can be
// tested without a database.
func RenderCSV(rows []leaderboard.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Rank", "Name", "Email", "Total Points", "Task Count", "Join Date"}); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Rank),
			r.Name,
			r.Email,
			strconv.Itoa(r.TotalPoints),
			strconv.Itoa(r.TaskCount),
			r.JoinedAt.UTC().Format("2006-01-02"),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
