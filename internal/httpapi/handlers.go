package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/alertapi/internal/domain"
)

const (
	defaultLimit  = 50
	healthTimeout = 2 * time.Second
	isoMillis     = "2006-01-02T15:04:05.000Z07:00"
)

type indexResponse struct {
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Message: "Alert API Server",
		Status:  "running",
		Endpoints: map[string]string{
			"alerts": "POST /alerts - Receive Grafana alerts",
			"recent": "GET /alerts?limit=N - Recent alerts",
			"health": "GET /health - Health check",
		},
	})
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// handleHealth always answers 200; database reachability is reported as data.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	db := "connected"
	if err := s.Store.Ping(ctx); err != nil {
		db = "disconnected"
		s.Logger.Warn("db_ping_failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Database:  db,
		Timestamp: time.Now().UTC().Format(isoMillis),
	})
}

type ingestPayload struct {
	Alerts json.RawMessage `json:"alerts"`
}

type ingestResponse struct {
	Message   string                 `json:"message"`
	Processed int                    `json:"processed"`
	Inserted  int                    `json:"inserted"`
	Alerts    []domain.InsertedAlert `json:"alerts"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var p ingestPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "Request body too large", Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body", Message: err.Error()})
		return
	}

	var items []json.RawMessage
	if len(p.Alerts) == 0 || json.Unmarshal(p.Alerts, &items) != nil || len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:    "No alerts found in request body",
			Expected: "Array of alerts in body.alerts",
		})
		return
	}

	s.Logger.Debug("alert_webhook_received", zap.Int("count", len(items)), zap.ByteString("alerts", p.Alerts))

	// A started batch runs to completion even if the caller goes away.
	res := s.Ingester.Process(context.WithoutCancel(r.Context()), items)
	if err := res.Err(); err != nil {
		s.Logger.Warn("alert_batch_partial",
			zap.Int("processed", res.Processed),
			zap.Int("inserted", len(res.Inserted)),
			zap.Error(err),
		)
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Message:   "Alerts processed successfully",
		Processed: res.Processed,
		Inserted:  len(res.Inserted),
		Alerts:    res.Inserted,
	})
}

type recentResponse struct {
	Alerts []domain.AlertRecord `json:"alerts"`
	Count  int                  `json:"count"`
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	rows, err := s.Store.Recent(r.Context(), limit)
	if err != nil {
		s.Logger.Error("fetch_alerts_failed", zap.Int("limit", limit), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to fetch alerts", Message: err.Error()})
		return
	}
	if rows == nil {
		rows = []domain.AlertRecord{}
	}
	writeJSON(w, http.StatusOK, recentResponse{Alerts: rows, Count: len(rows)})
}

// parseLimit returns the default for a missing, unparsable or non-positive value.
func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	return n
}
