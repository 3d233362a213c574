// Package client is the unified surface a UI-driving agent talks to. It
// owns one graph store and one vector manager, composes the query engines
// over them, and is the single writer that keeps both stores in sync:
// every mutating operation writes the graph first, then the vectors.
package client

import (
	"time"

	"go.uber.org/zap"

	"github.com/navikit/navgraph/pkg/builder"
	"github.com/navikit/navgraph/pkg/embed"
	"github.com/navikit/navgraph/pkg/errs"
	"github.com/navikit/navgraph/pkg/graph"
	"github.com/navikit/navgraph/pkg/pagematcher"
	"github.com/navikit/navgraph/pkg/pathfinder"
	"github.com/navikit/navgraph/pkg/rag"
	"github.com/navikit/navgraph/pkg/schema"
	"github.com/navikit/navgraph/pkg/uitree"
	"github.com/navikit/navgraph/pkg/vector"
)

// Options configures a Client. Zero values select the in-memory graph,
// the brute-force vector backend and the deterministic mock embedder.
type Options struct {
	Graph      graph.Store
	Vectors    *vector.Manager
	Embedder   embed.Embedder
	Logger     *zap.Logger
	PathFinder pathfinder.Config
	Matcher    pagematcher.Config
}

// Client wires the stores and engines together. Construct exactly one per
// graph; there is no implicit process-wide instance.
type Client struct {
	graph    graph.Store
	vectors  *vector.Manager
	embedder embed.Embedder
	log      *zap.Logger

	finder  *pathfinder.Finder
	matcher *pagematcher.Matcher
	rag     *rag.Engine
	builder *builder.Builder
}

// New creates a Client from options, filling in defaults for anything
// left nil.
func New(opts Options) *Client {
	if opts.Graph == nil {
		opts.Graph = graph.NewMem()
	}
	if opts.Embedder == nil {
		opts.Embedder = embed.NewMock(0)
	}
	if opts.Vectors == nil {
		opts.Vectors = vector.NewManager(vector.BackendBrute, opts.Embedder.Dimension())
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	finder := pathfinder.New(opts.Graph, opts.Vectors, opts.Embedder, opts.PathFinder)
	matcher := pagematcher.New(opts.Graph, opts.Vectors, opts.Embedder, opts.Matcher)
	return &Client{
		graph:    opts.Graph,
		vectors:  opts.Vectors,
		embedder: opts.Embedder,
		log:      opts.Logger,
		finder:   finder,
		matcher:  matcher,
		rag:      rag.New(opts.Graph, opts.Vectors, opts.Embedder, finder, matcher),
		builder:  builder.New(opts.Graph, opts.Vectors, opts.Embedder),
	}
}

// Graph exposes the underlying graph store for read-only callers.
func (c *Client) Graph() graph.Store { return c.graph }

// Vectors exposes the vector manager, mainly for snapshot persistence.
func (c *Client) Vectors() *vector.Manager { return c.vectors }

// Builder exposes the exploration-ingest surface.
func (c *Client) Builder() *builder.Builder { return c.builder }

// ============================================================================
// Query operations
// ============================================================================

// QueryPath resolves an intent into an action path.
func (c *Client) QueryPath(appID, intent, currentPageID string, maxSteps int) (*pathfinder.QueryResult, error) {
	result, err := c.finder.FindPathByIntent(appID, intent, currentPageID, maxSteps)
	if err != nil {
		return nil, err
	}
	c.log.Debug("path query",
		zap.String("app_id", appID),
		zap.String("intent", intent),
		zap.Bool("success", result.Success),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

// GetNextAction returns only the immediate next step for an intent.
func (c *Client) GetNextAction(currentPageID, intent, appID string) (*pathfinder.NextAction, error) {
	return c.finder.GetNextAction(currentPageID, intent, appID)
}

// MatchCurrentPage resolves an observed UI state against known pages.
func (c *Client) MatchCurrentPage(appID string, obs pagematcher.Observation) (*pagematcher.MatchResult, error) {
	return c.matcher.MatchPage(appID, obs)
}

// AvailableActions lists a page's outgoing transitions.
func (c *Client) AvailableActions(pageID string) []*schema.Transition {
	return c.graph.GetOutgoingTransitions(pageID)
}

// RAGContext runs the full retrieval composition for a query.
func (c *Client) RAGContext(appID, query, currentPageID string) (*rag.Context, error) {
	return c.rag.Retrieve(appID, query, currentPageID, 0)
}

// ActionGuidance resolves the current page (from a raw tree if given) and
// picks the single best next action.
func (c *Client) ActionGuidance(appID, intent, currentPageID string, currentUI *uitree.Node) (*rag.Guidance, error) {
	return c.rag.GenerateActionGuidance(appID, intent, currentPageID, currentUI)
}

// Ask answers a free-text question about the graph in natural language.
func (c *Client) Ask(appID, question, currentPageID string) (string, error) {
	return c.rag.Query(appID, question, currentPageID)
}

// ============================================================================
// Write operations
// ============================================================================

// ReportedAction is the action payload of a transition report.
type ReportedAction struct {
	Type       string `json:"type"`
	Widget     string `json:"widget"`
	WidgetText string `json:"widget_text"`
}

// TransitionStats is the post-update statistics snapshot.
type TransitionStats struct {
	SuccessCount int     `json:"success_count"`
	FailCount    int     `json:"fail_count"`
	SuccessRate  float64 `json:"success_rate"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// ReportResult is the outcome of a transition report.
type ReportResult struct {
	Success      bool            `json:"success"`
	TransitionID string          `json:"transition_id"`
	Updated      bool            `json:"updated"`
	Stats        TransitionStats `json:"stats"`
}

// ReportTransition records one observed traversal. An existing edge for
// the (source, target) pair gets its statistics updated; otherwise a new
// transition is created with counters seeded from the outcome.
func (c *Client) ReportTransition(fromPage string, action ReportedAction, toPage string, success bool, latencyMS float64) (*ReportResult, error) {
	if fromPage == "" || toPage == "" {
		return nil, errs.InvalidParameter("from_page and to_page are required")
	}

	var t *schema.Transition
	updated := false
	if existing := c.graph.GetTransition(fromPage, toPage); existing != nil {
		c.graph.UpdateTransitionStats(existing.TransitionID, success, latencyMS)
		t = c.graph.GetTransitionByID(existing.TransitionID)
		updated = true
	} else {
		actionType := schema.ParseActionType(action.Type)
		t = &schema.Transition{
			TransitionID:      schema.TransitionID(fromPage, toPage, actionType),
			SourcePageID:      fromPage,
			TargetPageID:      toPage,
			TriggerWidgetID:   action.Widget,
			TriggerWidgetText: action.WidgetText,
			ActionType:        actionType,
			AvgLatencyMS:      latencyMS,
			DiscoveredAt:      time.Now(),
		}
		if success {
			t.SuccessCount = 1
		} else {
			t.FailCount = 1
		}
		c.graph.AddTransition(t)
	}

	c.log.Info("transition reported",
		zap.String("transition_id", t.TransitionID),
		zap.Bool("updated", updated),
		zap.Bool("success", success))

	return &ReportResult{
		Success:      true,
		TransitionID: t.TransitionID,
		Updated:      updated,
		Stats: TransitionStats{
			SuccessCount: t.SuccessCount,
			FailCount:    t.FailCount,
			SuccessRate:  t.SuccessRate(),
			AvgLatencyMS: t.AvgLatencyMS,
		},
	}, nil
}

// TransitionImport is one row of a batch import.
type TransitionImport struct {
	FromPage     string `json:"from_page"`
	ToPage       string `json:"to_page"`
	ActionType   string `json:"action_type"`
	WidgetText   string `json:"widget_text"`
	SuccessCount int    `json:"success_count"`
	FailCount    int    `json:"fail_count"`
}

// ImportSummary aggregates a batch import's outcome. Per-item failures
// never abort the batch.
type ImportSummary struct {
	Success bool     `json:"success"`
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// ImportTransitions bulk-loads transition records, isolating failures per
// item and reporting aggregate counts.
func (c *Client) ImportTransitions(items []TransitionImport) *ImportSummary {
	summary := &ImportSummary{Success: true, Total: len(items), Errors: []string{}}
	for i, item := range items {
		if item.FromPage == "" || item.ToPage == "" {
			summary.Failed++
			summary.Errors = append(summary.Errors,
				errs.InvalidParameter("item %d: from_page and to_page are required", i).Error())
			continue
		}
		actionType := schema.ParseActionType(item.ActionType)
		id := schema.TransitionID(item.FromPage, item.ToPage, actionType)
		if existing := c.graph.GetTransitionByID(id); existing != nil {
			existing.SuccessCount += item.SuccessCount
			existing.FailCount += item.FailCount
			summary.Updated++
			continue
		}
		c.graph.AddTransition(&schema.Transition{
			TransitionID:      id,
			SourcePageID:      item.FromPage,
			TargetPageID:      item.ToPage,
			TriggerWidgetText: item.WidgetText,
			ActionType:        actionType,
			SuccessCount:      item.SuccessCount,
			FailCount:         item.FailCount,
			DiscoveredAt:      time.Now(),
		})
		summary.Created++
	}
	c.log.Info("transitions imported",
		zap.Int("total", summary.Total),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed))
	return summary
}

// AddPage registers a page described out-of-band, without a UI tree. The
// embedding is written only when a description exists to encode.
func (c *Client) AddPage(appID, pageName, pageType, description string, intents []string) (string, error) {
	if appID == "" || pageName == "" {
		return "", errs.InvalidParameter("app_id and page_name are required")
	}

	pageID := schema.PageID(appID, pageName, "")
	page := &schema.Page{
		PageID:      pageID,
		PageName:    pageName,
		AppID:       appID,
		PageType:    schema.ParsePageType(pageType),
		Description: description,
		Intents:     intents,
		Keywords:    uitree.Keywords(pageName + " " + description),
		CreatedAt:   time.Now(),
	}
	c.graph.AddPage(page)

	if description != "" {
		vec, err := c.embedder.Encode(description)
		if err != nil {
			return "", err
		}
		c.vectors.Pages().Insert(pageID, vec, vector.Metadata{
			"name":        pageName,
			"description": description,
			"intents":     intents,
		})
	}
	c.log.Info("page added", zap.String("page_id", pageID), zap.String("page_name", pageName))
	return pageID, nil
}

// RegisterIntent stores an intent embedding pointing at its target page.
func (c *Client) RegisterIntent(appID, intentText, targetPageID string, keywords []string) (string, error) {
	if intentText == "" {
		return "", errs.InvalidParameter("intent_text is required")
	}

	intentID := schema.IntentID(appID, intentText)
	vec, err := c.embedder.Encode(intentText)
	if err != nil {
		return "", err
	}
	c.vectors.Intents().Insert(intentID, vec, vector.Metadata{
		"text":           intentText,
		"app_id":         appID,
		"target_page_id": targetPageID,
		"keywords":       keywords,
	})
	c.log.Info("intent registered", zap.String("intent_id", intentID), zap.String("text", intentText))
	return intentID, nil
}

// ============================================================================
// Management operations
// ============================================================================

// GraphStats returns the aggregate graph counters.
func (c *Client) GraphStats() graph.Stats {
	return c.graph.GraphStats()
}

// ExportGraph dumps the full graph, sufficient to rebuild it verbatim.
func (c *Client) ExportGraph() *graph.Export {
	return c.graph.Export()
}

// ImportGraph replaces the graph contents with a previous export.
func (c *Client) ImportGraph(snap *graph.Export) {
	c.graph.Import(snap)
	c.log.Info("graph imported",
		zap.Int("pages", len(snap.Pages)),
		zap.Int("transitions", len(snap.Transitions)))
}

// ClearGraph wipes the graph and both vector collections.
func (c *Client) ClearGraph() {
	c.graph.Clear()
	c.vectors.Pages().Clear()
	c.vectors.Intents().Clear()
	c.log.Warn("graph cleared")
}
