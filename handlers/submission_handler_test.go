package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questboardAPI/middleware"
	"questboardAPI/services"
)

func newSubmissionHandlerForTest() *SubmissionHandler {
	// Nil pool is fine for requests rejected before any query runs.
	return NewSubmissionHandler(services.NewSubmissionService(nil), services.NewParticipantService(nil))
}

func withParticipant(req *http.Request, id uuid.UUID) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ParticipantIDKey, id.String())
	return req.WithContext(ctx)
}

func TestCreateSubmissionRequiresAuth(t *testing.T) {
	h := newSubmissionHandlerForTest()

	req := httptest.NewRequest(http.MethodPost, "/api/submissions", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateSubmissionRejectsBadPayload(t *testing.T) {
	h := newSubmissionHandlerForTest()
	pid := uuid.New()

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing task name", `{"taskType":"CHALLENGE","fileUrl":"https://x.test/p"}`},
		{"unknown task type", `{"taskName":"T","taskType":"SPRINT","fileUrl":"https://x.test/p"}`},
		{"bad url scheme", `{"taskName":"T","taskType":"CHALLENGE","fileUrl":"ftp://x.test/p"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/submissions", strings.NewReader(tc.body))
			req = withParticipant(req, pid)
			rr := httptest.NewRecorder()

			h.Create(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestReviewRejectsBadRequests(t *testing.T) {
	h := newSubmissionHandlerForTest()

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/admin/submissions/not-a-uuid", strings.NewReader(`{}`))
		req = mux.SetURLVars(req, map[string]string{"id": "not-a-uuid"})
		rr := httptest.NewRecorder()

		h.Review(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("approve without points", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodPatch, "/api/admin/submissions/"+id, strings.NewReader(`{"status":"APPROVED"}`))
		req = mux.SetURLVars(req, map[string]string{"id": id})
		rr := httptest.NewRecorder()

		h.Review(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("status pending not reviewable", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodPatch, "/api/admin/submissions/"+id, strings.NewReader(`{"status":"PENDING"}`))
		req = mux.SetURLVars(req, map[string]string{"id": id})
		rr := httptest.NewRecorder()

		h.Review(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestParsePagination(t *testing.T) {
	mk := func(q string) *http.Request {
		return httptest.NewRequest(http.MethodGet, "/api/leaderboard"+q, nil)
	}

	page, limit := parsePagination(mk(""), 50)
	assert.Equal(t, 1, page)
	assert.Equal(t, 50, limit)

	page, limit = parsePagination(mk("?page=3&limit=10"), 50)
	assert.Equal(t, 3, page)
	assert.Equal(t, 10, limit)

	// Garbage and out-of-range values fall back to defaults.
	page, limit = parsePagination(mk("?page=-1&limit=9999"), 20)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	page, limit = parsePagination(mk("?page=abc&limit=xyz"), 20)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)
}
