package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questboardAPI/internal/leaderboard"
)

func TestRenderCSV(t *testing.T) {
	joined := time.Date(2026, 2, 14, 23, 30, 0, 0, time.UTC)
	rows := []leaderboard.ExportRow{
		{Rank: 1, Name: "Alice", Email: "alice@example.com", TotalPoints: 120, TaskCount: 4, JoinedAt: joined},
		{Rank: 1, Name: "Bob", Email: "bob@example.com", TotalPoints: 120, TaskCount: 4, JoinedAt: joined},
		{Rank: 3, Name: "Cara", Email: "cara@example.com", TotalPoints: 90, TaskCount: 5, JoinedAt: joined},
	}

	data, err := RenderCSV(rows)
	require.NoError(t, err)

	expected := "Rank,Name,Email,Total Points,Task Count,Join Date\n" +
		"1,Alice,alice@example.com,120,4,2026-02-14\n" +
		"1,Bob,bob@example.com,120,4,2026-02-14\n" +
		"3,Cara,cara@example.com,90,5,2026-02-14\n"
	assert.Equal(t, expected, string(data))
}

func TestRenderCSVEmpty(t *testing.T) {
	data, err := RenderCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "Rank,Name,Email,Total Points,Task Count,Join Date\n", string(data))
}

func TestRenderCSVEscapesCommas(t *testing.T) {
	joined := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []leaderboard.ExportRow{
		{Rank: 1, Name: `Singh, Priya`, Email: "priya@example.com", TotalPoints: 40, TaskCount: 1, JoinedAt: joined},
	}

	data, err := RenderCSV(rows)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Singh, Priya"`)
}
