// Package server exposes the pipeline's HTTP trigger surface. Each stage
// has an endpoint that accepts lead payloads, hands the work to the runner,
// and acknowledges immediately; processing happens asynchronously and its
// outcome is observable through the run registry.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stratusdb/leadflow/core"
	"github.com/stratusdb/leadflow/logging"
	"github.com/stratusdb/leadflow/runner"
	"github.com/stratusdb/leadflow/stage"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8000"

// Options configures the HTTP server.
type Options struct {
	Addr   string
	Logger logging.Logger
}

// Server routes stage trigger requests to their controllers via the runner.
type Server struct {
	ingestion *stage.Controller
	scoring   *stage.Controller
	outreach  *stage.Controller
	runner    *runner.Runner
	logger    logging.Logger

	httpServer *http.Server
}

// New wires the stage controllers and runner into an HTTP server.
func New(ingestion, scoring, outreach *stage.Controller, r *runner.Runner, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:   DefaultAddr,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		ingestion: ingestion,
		scoring:   scoring,
		outreach:  outreach,
		runner:    r,
		logger:    opts.Logger,
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the route table. Exposed so tests can drive the server
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("/api/lead-ingestion-agent", s.handleIngestion)
	mux.HandleFunc("/api/lead-scoring-agent", s.handleScoring)
	mux.HandleFunc("/api/lead-outreach-agent", s.handleOutreach)
	mux.HandleFunc("GET /api/runs/{id}", s.handleRunStatus)

	return mux
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server.listen", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP listener. In-flight runs keep going;
// drain them through the runner.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "Welcome to the API!"})
}

// handleIngestion triggers the research stage. POST bodies may be either
// change-event envelopes (items carrying a fullDocument) or literal lead
// payloads; GET triggers a canned sample lead for local testing. The
// response is always an immediate acknowledgment.
func (s *Server) handleIngestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.submitIngestion(r.Context(), sampleLead())
		writeAck(w, "Lead Ingestion Agent Started")
		return
	}

	items, err := decodeItems(r)
	if err != nil {
		s.logger.Warn("server.ingestion.bad_body", "error", err.Error())
		writeAck(w, "Lead Ingestion Agent Started")
		return
	}

	for _, item := range items {
		lead, ok := leadFromItem(item)
		if !ok {
			s.logger.Warn("server.ingestion.no_lead_data")
			continue
		}

		s.submitIngestion(r.Context(), lead)
	}

	writeAck(w, "Lead Ingestion Agent Started")
}

func (s *Server) submitIngestion(ctx context.Context, lead core.LeadRecord) {
	s.runner.Submit(ctx, s.ingestion.Name(), func(runCtx context.Context, runID string) error {
		return s.ingestion.Process(runCtx, runID, stage.Input{Lead: lead})
	})
}

// handleScoring triggers the scoring stage on research stage output items.
func (s *Server) handleScoring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeAck(w, "Lead Scoring Agent Started")
		return
	}

	items, err := decodeItems(r)
	if err != nil {
		s.logger.Warn("server.scoring.bad_body", "error", err.Error())
		writeAck(w, "Lead Scoring Agent Started")
		return
	}

	for _, item := range items {
		lead := leadFromLeadData(item)
		content, _ := item["content"].(string)

		s.runner.Submit(r.Context(), s.scoring.Name(), func(runCtx context.Context, runID string) error {
			return s.scoring.Process(runCtx, runID, stage.Input{Lead: lead, Content: content})
		})
	}

	writeAck(w, "Lead Scoring Agent Started")
}

// handleOutreach triggers the engagement planning stage on scoring output
// items. The verdict travels to the model as JSON text.
func (s *Server) handleOutreach(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeAck(w, "Lead Outreach Agent Started")
		return
	}

	items, err := decodeItems(r)
	if err != nil {
		s.logger.Warn("server.outreach.bad_body", "error", err.Error())
		writeAck(w, "Lead Outreach Agent Started")
		return
	}

	for _, item := range items {
		lead := leadFromLeadData(item)

		content := ""
		if eval, ok := item["lead_evaluation"]; ok {
			if data, err := json.Marshal(eval); err == nil {
				content = string(data)
			}
		}

		s.runner.Submit(r.Context(), s.outreach.Name(), func(runCtx context.Context, runID string) error {
			return s.outreach.Process(runCtx, runID, stage.Input{Lead: lead, Content: content})
		})
	}

	writeAck(w, "Lead Outreach Agent Started")
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.runner.Status(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	}

	body := map[string]any{
		"id":     snap.ID,
		"stage":  snap.Stage,
		"status": string(snap.Status),
	}
	if snap.Err != nil {
		body["error"] = snap.Err.Error()
	}

	writeJSON(w, http.StatusOK, body)
}

// decodeItems accepts either a JSON array of objects or a single object.
func decodeItems(r *http.Request) ([]map[string]any, error) {
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	var items []map[string]any
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	var single map[string]any
	if err := json.Unmarshal(body, &single); err == nil {
		return []map[string]any{single}, nil
	}

	return nil, fmt.Errorf("request body is not a JSON object or array of objects")
}

// leadFromItem pulls the lead record out of an ingestion trigger item. A
// literal payload carries the lead under "lead"; a change event carries a
// fullDocument whose database ID is dropped rather than resolved.
func leadFromItem(item map[string]any) (core.LeadRecord, bool) {
	if lead, ok := item["lead"].(map[string]any); ok {
		return core.LeadRecord(lead), true
	}

	doc, ok := item["fullDocument"].(map[string]any)
	if !ok {
		return nil, false
	}

	if lead, ok := doc["lead"].(map[string]any); ok {
		return core.LeadRecord(lead), true
	}

	lead := core.LeadRecord(doc).Clone()
	delete(lead, "_id")

	if len(lead) == 0 {
		return nil, false
	}

	return lead, true
}

// leadFromLeadData pulls the lead record out of a downstream item, which
// carries either {"lead_data": {"lead": {...}}} or a flat lead_data map.
func leadFromLeadData(item map[string]any) core.LeadRecord {
	data, ok := item["lead_data"].(map[string]any)
	if !ok {
		return core.LeadRecord{}
	}

	if lead, ok := data["lead"].(map[string]any); ok {
		return core.LeadRecord(lead)
	}

	return core.LeadRecord(data)
}

// sampleLead is the canned lead used by GET triggers during local testing.
func sampleLead() core.LeadRecord {
	return core.LeadRecord{
		"name":                "Jane Doe",
		"email":               "jane.doe@acmeanalytics.com",
		"company_name":        "Tiger Analytics",
		"company_website":     "https://www.tigeranalytics.com/",
		"lead_source":         "Webinar - AI for Real-Time Data",
		"job_title":           "Director of Data Engineering",
		"project_description": "Looking for a scalable data warehouse solution to support real-time analytics and AI-driven insights. Currently using Snowflake but exploring alternatives that better integrate with streaming data.",
	}
}

func writeAck(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(msg))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
