// Package rag is the read-only retrieval composition layer. It encodes a
// query once, pulls semantically relevant pages from the vector index,
// goal-directed paths from the path finder, and the current page's direct
// actions from the graph, and assembles them into a prompt-ready context
// for a decision-making agent.
package rag

import (
	"fmt"
	"strings"

	"github.com/navikit/navgraph/pkg/embed"
	"github.com/navikit/navgraph/pkg/graph"
	"github.com/navikit/navgraph/pkg/pagematcher"
	"github.com/navikit/navgraph/pkg/pathfinder"
	"github.com/navikit/navgraph/pkg/schema"
	"github.com/navikit/navgraph/pkg/uitree"
	"github.com/navikit/navgraph/pkg/vector"
)

// maxSuggestedActions caps the direct-action suggestions per retrieval.
const maxSuggestedActions = 5

// RelevantPage is one semantically retrieved page.
type RelevantPage struct {
	PageID         string   `json:"page_id"`
	PageName       string   `json:"page_name"`
	Description    string   `json:"description"`
	Intents        []string `json:"intents,omitempty"`
	RelevanceScore float64  `json:"relevance_score"`
}

// SuggestedAction is a concrete next action with its expected outcome.
type SuggestedAction struct {
	Action     string  `json:"action"`
	WidgetID   string  `json:"widget_id"`
	WidgetText string  `json:"widget_text"`
	LeadsTo    string  `json:"leads_to"`
	Confidence float64 `json:"confidence"`
}

// HistoricalCases splits past execution records by outcome. Populated only
// when an execution-history source is wired in; retrieval always emits the
// structure so the wire shape is stable.
type HistoricalCases struct {
	Successful []string `json:"successful"`
	Failed     []string `json:"failed"`
}

// Context is the assembled retrieval result.
type Context struct {
	Query            string               `json:"query"`
	RelevantPages    []RelevantPage       `json:"relevant_pages"`
	RecommendedPaths []*schema.ActionPath `json:"recommended_paths"`
	HistoricalCases  HistoricalCases      `json:"historical_cases"`
	Tips             []string             `json:"tips"`
	SuggestedActions []SuggestedAction    `json:"suggested_actions"`
	GraphContext     string               `json:"graph_context"`
	Confidence       float64              `json:"confidence"`
}

// Guidance is the single-action answer for an agent step.
type Guidance struct {
	Intent      string             `json:"intent"`
	CurrentPage string             `json:"current_page"`
	Confidence  float64            `json:"confidence"`
	NextAction  *SuggestedAction   `json:"next_action"`
	FullPath    *schema.ActionPath `json:"full_path"`
	Context     string             `json:"context"`
}

// Engine composes the path finder, page matcher and vector retrieval into
// one read-only surface. It owns no state of its own.
type Engine struct {
	graph    graph.Store
	vectors  *vector.Manager
	embedder embed.Embedder
	finder   *pathfinder.Finder
	matcher  *pagematcher.Matcher
}

// New creates an Engine over existing collaborators.
func New(g graph.Store, vm *vector.Manager, e embed.Embedder, f *pathfinder.Finder, m *pagematcher.Matcher) *Engine {
	return &Engine{graph: g, vectors: vm, embedder: e, finder: f, matcher: m}
}

// Retrieve runs the dual-channel retrieval: vector search for relevant
// pages plus graph search for a goal-directed path when a current page is
// supplied. Confidence is the path finder's resolution score, 0 without a
// current page.
func (e *Engine) Retrieve(appID, query, currentPageID string, topK int) (*Context, error) {
	if topK <= 0 {
		topK = 5
	}
	queryVec, err := e.embedder.Encode(query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	ctx := &Context{
		Query:           query,
		HistoricalCases: HistoricalCases{Successful: []string{}, Failed: []string{}},
	}

	for _, r := range e.vectors.Pages().Search(queryVec, topK) {
		page := e.graph.GetPage(r.ID)
		if page == nil {
			continue
		}
		ctx.RelevantPages = append(ctx.RelevantPages, RelevantPage{
			PageID:         page.PageID,
			PageName:       page.PageName,
			Description:    page.Description,
			Intents:        page.Intents,
			RelevanceScore: r.Score,
		})
	}

	if currentPageID != "" {
		result, err := e.finder.FindPathByIntent(appID, query, currentPageID, 0)
		if err != nil {
			return nil, err
		}
		if result.Success {
			ctx.RecommendedPaths = append(ctx.RecommendedPaths, result.Path)
			ctx.RecommendedPaths = append(ctx.RecommendedPaths, result.Alternatives...)
			ctx.Confidence = result.Confidence

			if len(result.Path.Steps) > 0 {
				first := result.Path.Steps[0]
				ctx.SuggestedActions = append(ctx.SuggestedActions, SuggestedAction{
					Action:     string(first.ActionType),
					WidgetID:   first.TargetWidgetID,
					WidgetText: first.TargetWidgetText,
					LeadsTo:    first.ExpectedPageID,
					Confidence: result.Confidence,
				})
			}
		}

		for i, t := range e.graph.GetOutgoingTransitions(currentPageID) {
			if i >= maxSuggestedActions {
				break
			}
			leadsTo := ""
			if target := e.graph.GetPage(t.TargetPageID); target != nil {
				leadsTo = target.PageName
			}
			ctx.SuggestedActions = append(ctx.SuggestedActions, SuggestedAction{
				Action:     string(t.ActionType),
				WidgetID:   t.TriggerWidgetID,
				WidgetText: t.TriggerWidgetText,
				LeadsTo:    leadsTo,
				Confidence: t.SuccessRate(),
			})
		}
	}

	ctx.Tips = BuildLexicon(e.graph.GetAllPages(appID)).Tips(query)
	ctx.GraphContext = e.buildGraphContext(currentPageID, ctx)
	return ctx, nil
}

// buildGraphContext renders a one-line location summary: where the caller
// is, what is reachable within two hops, and what was retrieved.
func (e *Engine) buildGraphContext(currentPageID string, ctx *Context) string {
	var parts []string

	if currentPageID != "" {
		if current := e.graph.GetPage(currentPageID); current != nil {
			parts = append(parts, "current location: "+current.PageName)

			var reachable []string
			for _, pid := range e.graph.GetReachablePages(currentPageID, 2) {
				if pid == currentPageID || len(reachable) >= 5 {
					continue
				}
				if p := e.graph.GetPage(pid); p != nil {
					reachable = append(reachable, p.PageName)
				}
			}
			if len(reachable) > 0 {
				parts = append(parts, "reachable pages: "+strings.Join(reachable, ", "))
			}
		}
	}
	if n := len(ctx.RecommendedPaths); n > 0 {
		parts = append(parts, fmt.Sprintf("found %d relevant paths", n))
	}
	if len(ctx.RelevantPages) > 0 {
		var names []string
		for i, p := range ctx.RelevantPages {
			if i >= 3 {
				break
			}
			names = append(names, p.PageName)
		}
		parts = append(parts, "relevant pages: "+strings.Join(names, ", "))
	}
	return strings.Join(parts, "; ")
}

// ToPrompt renders the context as an LLM prompt block.
func (c *Context) ToPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "User intent: %s\n\nRelevant pages:\n", c.Query)
	for i, p := range c.RelevantPages {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", p.PageName, p.Description)
	}
	if len(c.RecommendedPaths) > 0 {
		b.WriteString("\nRecommended paths:\n")
		for i, path := range c.RecommendedPaths {
			if i >= 2 {
				break
			}
			var descs []string
			for _, s := range path.Steps {
				descs = append(descs, s.Description)
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.Join(descs, " -> "))
		}
	}
	if len(c.SuggestedActions) > 0 {
		b.WriteString("\nSuggested next actions:\n")
		for i, a := range c.SuggestedActions {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s -> %s\n", a.Action, a.WidgetText, a.LeadsTo)
		}
	}
	if len(c.Tips) > 0 {
		b.WriteString("\nTips:\n")
		for _, tip := range c.Tips {
			fmt.Fprintf(&b, "- %s\n", tip)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// GenerateActionGuidance re-resolves the current page from a raw UI tree
// when one is supplied, retrieves context for the intent, and picks the
// highest-confidence suggested action as the single next step.
func (e *Engine) GenerateActionGuidance(appID, intent, currentPageID string, currentUI *uitree.Node) (*Guidance, error) {
	if currentUI != nil {
		match, err := e.matcher.MatchPage(appID, pagematcher.Observation{UITree: currentUI})
		if err != nil {
			return nil, err
		}
		if match.Matched {
			currentPageID = match.PageID
		}
	}

	ctx, err := e.Retrieve(appID, intent, currentPageID, 0)
	if err != nil {
		return nil, err
	}

	guidance := &Guidance{
		Intent:      intent,
		CurrentPage: currentPageID,
		Confidence:  ctx.Confidence,
		Context:     ctx.ToPrompt(),
	}
	for i := range ctx.SuggestedActions {
		a := &ctx.SuggestedActions[i]
		if guidance.NextAction == nil || a.Confidence > guidance.NextAction.Confidence {
			guidance.NextAction = a
		}
	}
	if len(ctx.RecommendedPaths) > 0 {
		guidance.FullPath = ctx.RecommendedPaths[0]
	}
	return guidance, nil
}

// Query answers a free-text question with a short natural-language reply.
func (e *Engine) Query(appID, question, currentPageID string) (string, error) {
	ctx, err := e.Retrieve(appID, question, currentPageID, 0)
	if err != nil {
		return "", err
	}

	if len(ctx.RecommendedPaths) > 0 && len(ctx.RecommendedPaths[0].Steps) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "To accomplish %q, follow these steps:\n", question)
		for i, s := range ctx.RecommendedPaths[0].Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s.Description)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
	if len(ctx.RelevantPages) > 0 {
		var names []string
		for i, p := range ctx.RelevantPages {
			if i >= 3 {
				break
			}
			names = append(names, p.PageName)
		}
		return fmt.Sprintf("Pages related to %q: %s", question, strings.Join(names, ", ")), nil
	}
	return fmt.Sprintf("No information found for %q", question), nil
}
