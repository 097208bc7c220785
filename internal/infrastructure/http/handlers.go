package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
	"github.com/0xcro3dile/ragroute/internal/domain/usecases"
)

// maxBodyBytes caps request bodies; retrieved documents dominate the size.
const maxBodyBytes = 4 << 20

// handleOrchestrate builds the prompt and routing decision for one request.
func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	res, err := s.orchestrate.Orchestrate(r.Context(), req)
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// handleRoute returns the routing decision for ?q= without building a prompt.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	d := s.orchestrate.Route(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{
		"selectedModel":        d.Model.ID,
		"modelSelectionReason": d.Reason,
		"modelCapabilities":    d.Model,
		"queryScores":          d.Scores,
		"rulesVersion":         d.RulesVersion,
	})
}

// handleGenerate orchestrates and runs the prompt on the selected model.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.generate == nil {
		writeError(w, http.StatusServiceUnavailable, "generation is not configured")
		return
	}

	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	res, err := s.generate.Generate(r.Context(), req)
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// handleGenerateStream streams the answer as server-sent events. The first
// event carries the orchestration result.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	if s.generate == nil {
		writeError(w, http.StatusServiceUnavailable, "generation is not configured")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	res, tokens, err := s.generate.GenerateStream(r.Context(), req)
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sendSSE(w, flusher, "meta", res)

	for token := range tokens {
		if token.Error != nil {
			sendSSE(w, flusher, "", map[string]any{"error": token.Error.Error(), "done": true})
			return
		}
		sendSSE(w, flusher, "", map[string]any{"content": token.Content, "done": token.Done})
	}
}

// handleEnsureCollection creates the named collection if it is missing.
func (s *Server) handleEnsureCollection(w http.ResponseWriter, r *http.Request) {
	if s.provision == nil {
		writeError(w, http.StatusServiceUnavailable, "provisioning is not configured")
		return
	}

	name := r.PathValue("name")
	if tenant := r.URL.Query().Get("tenant"); tenant != "" {
		name = usecases.CollectionName(tenant)
	}

	created, err := s.provision.EnsureCollection(r.Context(), name)
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"collection": name, "created": created})
}

// handleDecisions lists recent routing decisions.
func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, err := s.orchestrate.RecentDecisions(r.Context(), limit)
	if errors.Is(err, usecases.ErrDecisionLogDisabled) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	if recs == nil {
		recs = []entities.DecisionRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"decisions": recs})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"rulesVersion": s.orchestrate.Route("").RulesVersion,
	})
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*entities.OrchestrationRequest, bool) {
	var req entities.OrchestrationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed request: %v", err))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func (s *Server) writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *entities.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", usecases.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	jsonData, _ := json.Marshal(data)
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}
