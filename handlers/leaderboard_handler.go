package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"questboardAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	participantService *services.ParticipantService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService, participantService *services.ParticipantService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		participantService: participantService,
	}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, limit := parsePagination(r, 50)

	lb, err := h.leaderboardService.GetLeaderboard(ctx, page, limit)
	if err != nil {
		log.Printf("Get leaderboard error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, lb)
}

// ExportCSV streams the full standings as a CSV attachment.
func (h *LeaderboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	rows, err := h.leaderboardService.ExportRows(ctx)
	if err != nil {
		log.Printf("Export leaderboard error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to export leaderboard")
		return
	}

	data, err := services.RenderCSV(rows)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to render CSV")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.csv"`)
	w.Write(data)
}

// ExportExcel streams the participant roster as an xlsx attachment.
func (h *LeaderboardHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	roster, err := h.participantService.Roster(ctx)
	if err != nil {
		log.Printf("Export roster error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to export participants")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Participants"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Name", "Email", "College"}
	widths := []int{len("Name"), len("Email"), len("College")}
	for i, hdr := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hdr)
	}

	for i, p := range roster {
		college := ""
		if p.College != nil {
			college = *p.College
		}
		values := []string{p.Name, p.Email, college}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
			if len(v) > widths[j] {
				widths[j] = len(v)
			}
		}
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, float64(width+2))
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	}
	f.AutoFilter(sheet, "A1:C1", nil)

	filename := fmt.Sprintf("participants-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(w); err != nil {
		log.Printf("Write excel export: %v", err)
	}
}
