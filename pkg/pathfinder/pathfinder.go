// Package pathfinder resolves natural-language intents to concrete action
// paths over the navigation graph. Resolution is two-stage: a vector search
// pins down the target page, then an unweighted shortest-path query over
// the graph yields the hop sequence, materialized into executable steps.
package pathfinder

import (
	"fmt"

	"github.com/navikit/navgraph/pkg/embed"
	"github.com/navikit/navgraph/pkg/graph"
	"github.com/navikit/navgraph/pkg/schema"
	"github.com/navikit/navgraph/pkg/vector"
)

// Config tunes intent resolution. The discount and alternative cap mirror
// the scoring model the rest of the engine uses; exposed rather than
// hard-coded so deployments can tighten them.
type Config struct {
	// AlternativeDiscount scales an alternative path's confidence
	// relative to the primary path.
	AlternativeDiscount float64
	// MaxAlternatives caps how many alternative paths a query returns.
	MaxAlternatives int
	// IntentTopK is how many candidate intents the vector search considers.
	IntentTopK int
	// DefaultStepConfidence is assigned to a step when its transition
	// carries no explicit confidence.
	DefaultStepConfidence float64
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		AlternativeDiscount:   0.8,
		MaxAlternatives:       2,
		IntentTopK:            3,
		DefaultStepConfidence: 0.9,
	}
}

// TargetPage summarizes the resolved destination for query responses.
type TargetPage struct {
	PageID      string          `json:"page_id"`
	PageName    string          `json:"page_name"`
	PageType    schema.PageType `json:"page_type"`
	Description string          `json:"description"`
}

// QueryResult is the outcome of a path query. Success=false with a message
// covers every "no result" condition; errors are reserved for
// infrastructure failures.
type QueryResult struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message"`
	Confidence   float64              `json:"confidence"`
	Path         *schema.ActionPath   `json:"path,omitempty"`
	Alternatives []*schema.ActionPath `json:"alternatives,omitempty"`
	TargetPage   *TargetPage          `json:"target_page,omitempty"`
}

// NextAction is the single-step answer for real-time agent decisions.
type NextAction struct {
	Action         *schema.ActionStep `json:"action"`
	IsComplete     bool               `json:"is_complete"`
	RemainingSteps int                `json:"remaining_steps"`
	Message        string             `json:"message,omitempty"`
}

// Finder combines graph search with vector retrieval. Purely functional per
// call; no state beyond its collaborators.
type Finder struct {
	graph    graph.Store
	vectors  *vector.Manager
	embedder embed.Embedder
	cfg      Config
}

// New creates a Finder. Zero-valued config fields fall back to defaults.
func New(g graph.Store, vm *vector.Manager, e embed.Embedder, cfg Config) *Finder {
	def := DefaultConfig()
	if cfg.AlternativeDiscount <= 0 {
		cfg.AlternativeDiscount = def.AlternativeDiscount
	}
	if cfg.MaxAlternatives <= 0 {
		cfg.MaxAlternatives = def.MaxAlternatives
	}
	if cfg.IntentTopK <= 0 {
		cfg.IntentTopK = def.IntentTopK
	}
	if cfg.DefaultStepConfidence <= 0 {
		cfg.DefaultStepConfidence = def.DefaultStepConfidence
	}
	return &Finder{graph: g, vectors: vm, embedder: e, cfg: cfg}
}

// FindPathByIntent resolves an intent to a target page and builds the
// shortest action path from currentPageID (or the app's home page when
// empty) to it. maxSteps bounds the alternative-path enumeration.
func (f *Finder) FindPathByIntent(appID, intent, currentPageID string, maxSteps int) (*QueryResult, error) {
	intentVec, err := f.embedder.Encode(intent)
	if err != nil {
		return nil, fmt.Errorf("encode intent: %w", err)
	}

	if currentPageID == "" {
		home := f.homePage(appID)
		if home == nil {
			return &QueryResult{Success: false, Message: "cannot determine start page"}, nil
		}
		currentPageID = home.PageID
	}

	// Stage one: the best-scoring registered intent wins outright; there
	// is no hard score floor, only "best available".
	targetPageID := ""
	confidence := 0.0
	if hits := f.vectors.Intents().Search(intentVec, f.cfg.IntentTopK); len(hits) > 0 {
		confidence = hits[0].Score
		if id, ok := hits[0].Metadata["target_page_id"].(string); ok {
			targetPageID = id
		}
	}

	// Fall back to matching page descriptions directly.
	if targetPageID == "" {
		if hits := f.vectors.Pages().Search(intentVec, f.cfg.IntentTopK); len(hits) > 0 {
			targetPageID = hits[0].ID
			confidence = hits[0].Score
		}
	}
	if targetPageID == "" {
		return &QueryResult{
			Success: false,
			Message: fmt.Sprintf("no target page found for intent %q", intent),
		}, nil
	}

	primary := f.graph.FindShortestPath(currentPageID, targetPageID)
	if primary == nil {
		return &QueryResult{
			Success:    false,
			Message:    "target page is unreachable from the current page",
			Confidence: confidence,
		}, nil
	}

	path := f.buildActionPath(appID, intent, primary)
	path.Confidence = confidence

	var target *TargetPage
	if p := f.graph.GetPage(targetPageID); p != nil {
		target = &TargetPage{
			PageID:      p.PageID,
			PageName:    p.PageName,
			PageType:    p.PageType,
			Description: p.Description,
		}
	}

	var alternatives []*schema.ActionPath
	all := f.graph.FindAllPaths(currentPageID, targetPageID, maxSteps)
	for _, pr := range all {
		if len(alternatives) >= f.cfg.MaxAlternatives {
			break
		}
		if pr.TotalSteps == primary.TotalSteps && samePages(pr.Pages, primary.Pages) {
			continue
		}
		alt := f.buildActionPath(appID, intent, pr)
		alt.Confidence = confidence * f.cfg.AlternativeDiscount
		if pr.TotalSteps < primary.TotalSteps {
			alt.Reason = "shorter path but lower success rate"
		} else {
			alt.Reason = "alternative path"
		}
		alternatives = append(alternatives, alt)
	}

	return &QueryResult{
		Success:      true,
		Message:      fmt.Sprintf("found path with %d steps", path.TotalSteps()),
		Confidence:   confidence,
		Path:         path,
		Alternatives: alternatives,
		TargetPage:   target,
	}, nil
}

// FindPathDirect builds the shortest path between two known pages without
// intent resolution. Confidence is 1.0 since the target is explicit.
func (f *Finder) FindPathDirect(startPageID, endPageID string) *QueryResult {
	pr := f.graph.FindShortestPath(startPageID, endPageID)
	if pr == nil {
		return &QueryResult{Success: false, Message: "no path exists"}
	}
	path := f.buildActionPath("", "direct_navigation", pr)
	path.Confidence = 1.0
	return &QueryResult{
		Success:    true,
		Message:    fmt.Sprintf("found path with %d steps", path.TotalSteps()),
		Confidence: 1.0,
		Path:       path,
	}
}

// GetNextAction reruns full resolution but hands back only the first step,
// for one-action-at-a-time agent loops. Standing on the target page is
// completion, not failure.
func (f *Finder) GetNextAction(currentPageID, intent, appID string) (*NextAction, error) {
	result, err := f.FindPathByIntent(appID, intent, currentPageID, 0)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return &NextAction{Message: result.Message}, nil
	}
	if result.Path.TotalSteps() == 0 {
		return &NextAction{IsComplete: true, Message: "already at target page"}, nil
	}
	first := result.Path.Steps[0]
	return &NextAction{
		Action:         &first,
		RemainingSteps: result.Path.TotalSteps() - 1,
		IsComplete:     result.Path.TotalSteps() == 1,
	}, nil
}

// GetReachableIntents unions the registered intents of every page in the
// reachability closure of currentPageID, deduplicated in discovery order.
func (f *Finder) GetReachableIntents(currentPageID string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, pageID := range f.graph.GetReachablePages(currentPageID, 0) {
		page := f.graph.GetPage(pageID)
		if page == nil {
			continue
		}
		for _, it := range page.Intents {
			if !seen[it] {
				seen[it] = true
				out = append(out, it)
			}
		}
	}
	return out
}

// homePage finds the app's entry page, first by name then by page type.
func (f *Finder) homePage(appID string) *schema.Page {
	if p := f.graph.FindPageByName("home", appID); p != nil {
		return p
	}
	for _, p := range f.graph.GetAllPages(appID) {
		if p.PageType == schema.PageHome {
			return p
		}
	}
	return nil
}

// buildActionPath turns a raw graph path into executable steps. Each hop's
// expected page is the next page in the sequence; the widget xpath is
// resolved from the source page when the transition carries a widget id.
func (f *Finder) buildActionPath(appID, intent string, pr *graph.PathResult) *schema.ActionPath {
	steps := make([]schema.ActionStep, 0, len(pr.Transitions))
	for i, t := range pr.Transitions {
		expectedID := ""
		if i+1 < len(pr.Pages) {
			expectedID = pr.Pages[i+1]
		}
		expectedName := ""
		if expectedID != "" {
			if p := f.graph.GetPage(expectedID); p != nil {
				expectedName = p.PageName
			}
		}
		widgetText := t.TriggerWidgetText
		if widgetText == "" {
			widgetText = "widget"
		}
		steps = append(steps, schema.ActionStep{
			StepIndex:        i + 1,
			ActionType:       t.ActionType,
			TargetWidgetID:   t.TriggerWidgetID,
			TargetWidgetText: t.TriggerWidgetText,
			WidgetXPath:      f.widgetXPath(pr.Pages[i], t.TriggerWidgetID),
			InputText:        t.InputData["text"],
			ExpectedPageID:   expectedID,
			ExpectedPageName: expectedName,
			Confidence:       f.cfg.DefaultStepConfidence,
			SuccessRate:      t.SuccessRate(),
			Description:      fmt.Sprintf("%s %s", t.ActionType, widgetText),
		})
	}

	intentID := schema.IntentID(appID, intent)
	return &schema.ActionPath{
		PathID:      schema.PathID(intentID, pr.Pages[0]),
		IntentID:    intentID,
		AppID:       appID,
		Steps:       steps,
		StartPageID: pr.Pages[0],
		EndPageID:   pr.Pages[len(pr.Pages)-1],
	}
}

func (f *Finder) widgetXPath(pageID, widgetID string) string {
	if widgetID == "" {
		return ""
	}
	page := f.graph.GetPage(pageID)
	if page == nil {
		return ""
	}
	for _, w := range page.Widgets {
		if w.WidgetID == widgetID {
			return w.XPath
		}
	}
	return ""
}

func samePages(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
