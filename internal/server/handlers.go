package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/navikit/navgraph/pkg/client"
	"github.com/navikit/navgraph/pkg/errs"
	"github.com/navikit/navgraph/pkg/pagematcher"
	"github.com/navikit/navgraph/pkg/schema"
	"github.com/navikit/navgraph/pkg/uitree"
)

// ============================================================================
// Request/response shapes
// ============================================================================

type pathQueryRequest struct {
	AppID         string `json:"app_id" validate:"required"`
	Intent        string `json:"intent" validate:"required"`
	CurrentPageID string `json:"current_page_id"`
	MaxSteps      int    `json:"max_steps"`
}

type nextActionRequest struct {
	CurrentPageID string `json:"current_page_id" validate:"required"`
	Intent        string `json:"intent" validate:"required"`
	AppID         string `json:"app_id"`
}

type pageMatchRequest struct {
	AppID               string       `json:"app_id" validate:"required"`
	UIHierarchy         *uitree.Node `json:"ui_hierarchy"`
	PageTitle           string       `json:"page_title"`
	ScreenshotEmbedding []float32    `json:"screenshot_embedding"`
}

type transitionReportRequest struct {
	FromPage  string                `json:"from_page" validate:"required"`
	Action    client.ReportedAction `json:"action"`
	ToPage    string                `json:"to_page" validate:"required"`
	Success   *bool                 `json:"success"`
	LatencyMS float64               `json:"latency_ms"`
}

type importTransitionsRequest struct {
	Transitions []client.TransitionImport `json:"transitions" validate:"required"`
}

type addPageRequest struct {
	AppID       string   `json:"app_id" validate:"required"`
	PageName    string   `json:"page_name" validate:"required"`
	PageType    string   `json:"page_type"`
	Description string   `json:"description"`
	Intents     []string `json:"intents"`
}

type registerIntentRequest struct {
	AppID      string   `json:"app_id" validate:"required"`
	IntentText string   `json:"intent_text" validate:"required"`
	TargetPage string   `json:"target_page"`
	Keywords   []string `json:"keywords"`
}

type ragQueryRequest struct {
	AppID         string `json:"app_id" validate:"required"`
	Query         string `json:"query" validate:"required"`
	CurrentPageID string `json:"current_page_id"`
}

// pathPayload is the wire rendering of an action path.
type pathPayload struct {
	PathID     string              `json:"path_id"`
	TotalSteps int                 `json:"total_steps"`
	Steps      []schema.ActionStep `json:"steps"`
	StartPage  string              `json:"start_page"`
	EndPage    string              `json:"end_page"`
	Confidence float64             `json:"confidence"`
	Reason     string              `json:"reason,omitempty"`
}

func renderPath(p *schema.ActionPath) *pathPayload {
	if p == nil {
		return nil
	}
	return &pathPayload{
		PathID:     p.PathID,
		TotalSteps: p.TotalSteps(),
		Steps:      p.Steps,
		StartPage:  p.StartPageID,
		EndPage:    p.EndPageID,
		Confidence: p.Confidence,
		Reason:     p.Reason,
	}
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleQueryPath(w http.ResponseWriter, r *http.Request) {
	var req pathQueryRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.client.QueryPath(req.AppID, req.Intent, req.CurrentPageID, req.MaxSteps)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := map[string]any{
		"success":    result.Success,
		"message":    result.Message,
		"confidence": result.Confidence,
	}
	if result.Path != nil {
		resp["path"] = renderPath(result.Path)
	}
	if result.TargetPage != nil {
		resp["target_page"] = result.TargetPage
	}
	if len(result.Alternatives) > 0 {
		alts := make([]*pathPayload, 0, len(result.Alternatives))
		for _, alt := range result.Alternatives {
			alts = append(alts, renderPath(alt))
		}
		resp["alternatives"] = alts
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNextAction(w http.ResponseWriter, r *http.Request) {
	var req nextActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	action, err := s.client.GetNextAction(req.CurrentPageID, req.Intent, req.AppID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, action)
}

func (s *Server) handleMatchPage(w http.ResponseWriter, r *http.Request) {
	var req pageMatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.client.MatchCurrentPage(req.AppID, pagematcher.Observation{
		UITree:              req.UIHierarchy,
		PageTitle:           req.PageTitle,
		ScreenshotEmbedding: req.ScreenshotEmbedding,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := map[string]any{
		"matched":           result.Matched,
		"page":              nil,
		"available_actions": result.AvailableActions,
		"candidates":        result.Candidates,
	}
	if result.Matched {
		resp["page"] = map[string]any{
			"page_id":    result.PageID,
			"page_name":  result.PageName,
			"confidence": result.Confidence,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePageActions(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	actions := s.client.AvailableActions(pageID)
	s.writeJSON(w, http.StatusOK, map[string]any{"actions": actions})
}

func (s *Server) handleRAGRetrieve(w http.ResponseWriter, r *http.Request) {
	var req ragQueryRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, err := s.client.RAGContext(req.AppID, req.Query, req.CurrentPageID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	paths := make([]*pathPayload, 0, len(ctx.RecommendedPaths))
	for _, p := range ctx.RecommendedPaths {
		paths = append(paths, renderPath(p))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"prompt": ctx.ToPrompt(),
		"context": map[string]any{
			"relevant_pages":    ctx.RelevantPages,
			"recommended_paths": paths,
			"historical_cases":  ctx.HistoricalCases,
			"tips":              ctx.Tips,
		},
		"suggested_actions": ctx.SuggestedActions,
	})
}

func (s *Server) handleReportTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionReportRequest
	if !s.decode(w, r, &req) {
		return
	}

	success := true
	if req.Success != nil {
		success = *req.Success
	}
	result, err := s.client.ReportTransition(req.FromPage, req.Action, req.ToPage, success, req.LatencyMS)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportTransitions(w http.ResponseWriter, r *http.Request) {
	var req importTransitionsRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.client.ImportTransitions(req.Transitions))
}

func (s *Server) handleAddPage(w http.ResponseWriter, r *http.Request) {
	var req addPageRequest
	if !s.decode(w, r, &req) {
		return
	}

	pageID, err := s.client.AddPage(req.AppID, req.PageName, req.PageType, req.Description, req.Intents)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "page_id": pageID})
}

func (s *Server) handleRegisterIntent(w http.ResponseWriter, r *http.Request) {
	var req registerIntentRequest
	if !s.decode(w, r, &req) {
		return
	}

	intentID, err := s.client.RegisterIntent(req.AppID, req.IntentText, req.TargetPage, req.Keywords)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "intent_id": intentID})
}

func (s *Server) handleGraphStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.client.GraphStats())
}

func (s *Server) handleGraphExport(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.client.ExportGraph())
}

// ============================================================================
// Helpers
// ============================================================================

// decode unmarshals and validates the request body, writing a 400 and
// returning false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, errs.InvalidParameter("malformed request body: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeError(w, errs.InvalidParameter("invalid request: %v", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	code := errs.KindOf(err)
	if code == "" {
		code = "INTERNAL"
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, map[string]any{
		"error": err.Error(),
		"code":  code,
	})
}
