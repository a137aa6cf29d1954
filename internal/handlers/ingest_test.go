package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ffpredict/predictor-api/internal/models"
)

func TestIngestStats(t *testing.T) {
	valid := `{"player_id":1,"season":2025,"week":1,"recent_team":"KC","opponent_team":"DEN","carries":12,"targets":3,"fantasy_points":15.4}`

	tests := []struct {
		name         string
		body         string
		full         bool
		wantStatus   int
		wantAccepted int
		wantRejected int
	}{
		{
			name:         "single valid record",
			body:         valid,
			wantStatus:   http.StatusAccepted,
			wantAccepted: 1,
		},
		{
			name:         "mixed valid and invalid",
			body:         valid + "\n{broken\n" + `{"player_id":0,"season":2025,"week":1,"recent_team":"KC"}`,
			wantStatus:   http.StatusAccepted,
			wantAccepted: 1,
			wantRejected: 2,
		},
		{
			name:         "all invalid",
			body:         "{broken\n{also broken",
			wantStatus:   http.StatusBadRequest,
			wantRejected: 2,
		},
		{
			name:         "blank lines ignored",
			body:         "\n\n" + valid + "\n\n",
			wantStatus:   http.StatusAccepted,
			wantAccepted: 1,
		},
		{
			name:         "queue full rejects",
			body:         valid,
			full:         true,
			wantStatus:   http.StatusBadRequest,
			wantRejected: 1,
		},
		{
			name:       "empty body",
			body:       "",
			wantStatus: http.StatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &MockQueue{Full: tt.full}
			h := newTestHandler(&MockPredictionService{}, nil, queue)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/stats", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.IngestStats(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			var resp models.IngestResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.Accepted != tt.wantAccepted || resp.Rejected != tt.wantRejected {
				t.Errorf("counts = %+v, want accepted %d rejected %d", resp, tt.wantAccepted, tt.wantRejected)
			}
			if len(queue.Enqueued) != tt.wantAccepted {
				t.Errorf("enqueued %d records, want %d", len(queue.Enqueued), tt.wantAccepted)
			}
		})
	}
}

func TestIngestStatsQueuesParsedRecord(t *testing.T) {
	queue := &MockQueue{}
	h := newTestHandler(&MockPredictionService{}, nil, queue)

	body := `{"player_id":7,"season":2025,"week":2,"recent_team":"NYJ","opponent_team":"NE","carries":8,"targets":6,"fantasy_points":11.2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/stats", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.IngestStats(rr, req)

	if len(queue.Enqueued) != 1 {
		t.Fatalf("enqueued %d records, want 1", len(queue.Enqueued))
	}
	rec := queue.Enqueued[0]
	if rec.PlayerID != 7 || rec.RecentTeam != "NYJ" || rec.FantasyPoints != 11.2 {
		t.Errorf("queued record = %+v", rec)
	}
}
