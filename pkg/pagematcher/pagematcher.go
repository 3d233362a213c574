// Package pagematcher resolves an observed UI state to a known page. Three
// independent strategies contribute candidates (structural, title, vector)
// and a merge step rewards pages that more than one strategy agrees on.
package pagematcher

import (
	"fmt"
	"sort"

	"github.com/navikit/navgraph/pkg/embed"
	"github.com/navikit/navgraph/pkg/graph"
	"github.com/navikit/navgraph/pkg/schema"
	"github.com/navikit/navgraph/pkg/uitree"
	"github.com/navikit/navgraph/pkg/vector"
)

// Strategy labels the match source reported back to callers.
const (
	StrategyStructural = "structural"
	StrategyTitle      = "title"
	StrategyVisual     = "visual"
	StrategySemantic   = "semantic"
)

// Config tunes candidate admission and the multi-strategy boost.
type Config struct {
	// StructuralThreshold admits non-exact structural matches above this
	// Jaccard similarity.
	StructuralThreshold float64
	// VectorThreshold admits semantic matches above this cosine score.
	VectorThreshold float64
	// MultiStrategyBoost multiplies the merged score when more than one
	// strategy agrees on a page, capped at 1.0.
	MultiStrategyBoost float64
	// VectorTopK bounds the semantic search fan-out.
	VectorTopK int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		StructuralThreshold: 0.7,
		VectorThreshold:     0.6,
		MultiStrategyBoost:  1.1,
		VectorTopK:          5,
	}
}

// Observation carries whatever the caller captured of the current screen.
// Every field is optional; strategies run only for the fields present.
type Observation struct {
	UITree              *uitree.Node
	PageTitle           string
	ScreenshotEmbedding []float32
}

// Action is one outgoing transition rendered for the caller.
type Action struct {
	WidgetID    string  `json:"widget_id"`
	WidgetText  string  `json:"widget_text"`
	Action      string  `json:"action"`
	LeadsTo     string  `json:"leads_to"`
	SuccessRate float64 `json:"success_rate"`
}

// Candidate is one merged scoring entry, exposed so callers can inspect
// the runners-up.
type Candidate struct {
	PageID     string  `json:"page_id"`
	PageName   string  `json:"page_name"`
	Confidence float64 `json:"confidence"`
	MatchType  string  `json:"match_type"`
}

// MatchResult reports the outcome. Matched=false with an empty candidate
// list is the normal answer for an unknown screen, never an error.
type MatchResult struct {
	Matched          bool        `json:"matched"`
	PageID           string      `json:"page_id,omitempty"`
	PageName         string      `json:"page_name,omitempty"`
	Confidence       float64     `json:"confidence,omitempty"`
	MatchType        string      `json:"match_type,omitempty"`
	AvailableActions []Action    `json:"available_actions,omitempty"`
	Candidates       []Candidate `json:"candidates,omitempty"`
	Message          string      `json:"message,omitempty"`
}

// Matcher resolves observations against the graph and the page embeddings.
type Matcher struct {
	graph    graph.Store
	vectors  *vector.Manager
	embedder embed.Embedder
	cfg      Config
}

// New creates a Matcher. Zero-valued config fields fall back to defaults.
func New(g graph.Store, vm *vector.Manager, e embed.Embedder, cfg Config) *Matcher {
	def := DefaultConfig()
	if cfg.StructuralThreshold <= 0 {
		cfg.StructuralThreshold = def.StructuralThreshold
	}
	if cfg.VectorThreshold <= 0 {
		cfg.VectorThreshold = def.VectorThreshold
	}
	if cfg.MultiStrategyBoost <= 0 {
		cfg.MultiStrategyBoost = def.MultiStrategyBoost
	}
	if cfg.VectorTopK <= 0 {
		cfg.VectorTopK = def.VectorTopK
	}
	return &Matcher{graph: g, vectors: vm, embedder: e, cfg: cfg}
}

type scored struct {
	pageID   string
	score    float64
	strategy string
}

// MatchPage runs every applicable strategy over the observation and merges
// the candidates. The top merged entry, if any, becomes the match, enriched
// with the page's outgoing transitions.
func (m *Matcher) MatchPage(appID string, obs Observation) (*MatchResult, error) {
	var candidates []scored

	if obs.UITree != nil {
		candidates = append(candidates, m.matchByStructure(appID, obs.UITree)...)
	}
	if obs.PageTitle != "" {
		if p := m.graph.FindPageByName(obs.PageTitle, appID); p != nil {
			candidates = append(candidates, scored{p.PageID, 1.0, StrategyTitle})
		}
	}
	switch {
	case len(obs.ScreenshotEmbedding) > 0:
		candidates = append(candidates, m.matchByVector(obs.ScreenshotEmbedding)...)
	case obs.UITree != nil:
		// Text surrogate: the tree's visible text stands in for the
		// missing screenshot embedding.
		text := uitree.VisibleText(obs.UITree)
		if text != "" {
			vec, err := m.embedder.Encode(text)
			if err != nil {
				return nil, fmt.Errorf("encode ui text: %w", err)
			}
			candidates = append(candidates, m.matchByVector(vec)...)
		}
	}

	merged := m.mergeCandidates(candidates)
	if len(merged) == 0 {
		return &MatchResult{Matched: false, Message: "no matching page found"}, nil
	}

	best := merged[0]
	page := m.graph.GetPage(best.PageID)
	if page == nil {
		return &MatchResult{Matched: false, Message: "no matching page found"}, nil
	}

	return &MatchResult{
		Matched:          true,
		PageID:           page.PageID,
		PageName:         page.PageName,
		Confidence:       best.Confidence,
		MatchType:        best.MatchType,
		AvailableActions: m.availableActions(page.PageID),
		Candidates:       merged,
	}, nil
}

// FindSimilarPages ranks known pages by semantic similarity to a free-text
// description.
func (m *Matcher) FindSimilarPages(description string, topK int) ([]*MatchResult, error) {
	if topK <= 0 {
		topK = m.cfg.VectorTopK
	}
	vec, err := m.embedder.Encode(description)
	if err != nil {
		return nil, fmt.Errorf("encode description: %w", err)
	}

	var out []*MatchResult
	for _, r := range m.vectors.Pages().Search(vec, topK) {
		page := m.graph.GetPage(r.ID)
		if page == nil {
			continue
		}
		out = append(out, &MatchResult{
			Matched:          true,
			PageID:           page.PageID,
			PageName:         page.PageName,
			Confidence:       r.Score,
			MatchType:        StrategySemantic,
			AvailableActions: m.availableActions(page.PageID),
		})
	}
	return out, nil
}

// matchByStructure scores an exact state-hash hit at 1.0 and falls back to
// Jaccard similarity over the widget-type sets otherwise.
func (m *Matcher) matchByStructure(appID string, tree *uitree.Node) []scored {
	signature := uitree.StateHash(tree)
	observed := widgetTypeSet(tree)

	var out []scored
	for _, page := range m.graph.GetAllPages(appID) {
		if page.StateHash == signature {
			out = append(out, scored{page.PageID, 1.0, StrategyStructural})
			continue
		}
		if sim := typeSetJaccard(observed, page.Widgets); sim > m.cfg.StructuralThreshold {
			out = append(out, scored{page.PageID, sim, StrategyStructural})
		}
	}
	return out
}

func (m *Matcher) matchByVector(query []float32) []scored {
	var out []scored
	for _, r := range m.vectors.Pages().Search(query, m.cfg.VectorTopK) {
		if r.Score > m.cfg.VectorThreshold {
			out = append(out, scored{r.ID, r.Score, StrategyVisual})
		}
	}
	return out
}

// widgetTypeSet extracts the observed tree's widgets through the same
// inference as stored pages, so both sides of the Jaccard share a vocabulary.
func widgetTypeSet(tree *uitree.Node) map[string]bool {
	set := make(map[string]bool)
	for _, w := range uitree.ExtractWidgets(tree, "probe") {
		set[string(w.WidgetType)] = true
	}
	return set
}

func typeSetJaccard(observed map[string]bool, widgets []schema.Widget) float64 {
	if len(observed) == 0 || len(widgets) == 0 {
		return 0.0
	}
	known := make(map[string]bool, len(widgets))
	for _, w := range widgets {
		known[string(w.WidgetType)] = true
	}
	intersection := 0
	for t := range observed {
		if known[t] {
			intersection++
		}
	}
	union := len(known)
	for t := range observed {
		if !known[t] {
			union++
		}
	}
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// mergeCandidates groups scores by page id, averages them, and boosts pages
// that more than one distinct strategy agreed on. The dominant strategy is
// whichever contributed the most entries for that page.
func (m *Matcher) mergeCandidates(candidates []scored) []Candidate {
	type agg struct {
		sum        float64
		count      int
		byStrategy map[string]int
	}
	groups := make(map[string]*agg)
	var order []string
	for _, c := range candidates {
		g := groups[c.pageID]
		if g == nil {
			g = &agg{byStrategy: make(map[string]int)}
			groups[c.pageID] = g
			order = append(order, c.pageID)
		}
		g.sum += c.score
		g.count++
		g.byStrategy[c.strategy]++
	}

	out := make([]Candidate, 0, len(order))
	for _, pageID := range order {
		g := groups[pageID]
		score := g.sum / float64(g.count)
		if len(g.byStrategy) > 1 {
			score = min(score*m.cfg.MultiStrategyBoost, 1.0)
		}
		dominant := ""
		dominantCount := 0
		for _, strategy := range []string{StrategyStructural, StrategyTitle, StrategyVisual} {
			if n := g.byStrategy[strategy]; n > dominantCount {
				dominant = strategy
				dominantCount = n
			}
		}
		name := ""
		if p := m.graph.GetPage(pageID); p != nil {
			name = p.PageName
		}
		out = append(out, Candidate{
			PageID:     pageID,
			PageName:   name,
			Confidence: score,
			MatchType:  dominant,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

func (m *Matcher) availableActions(pageID string) []Action {
	var out []Action
	for _, t := range m.graph.GetOutgoingTransitions(pageID) {
		leadsTo := t.TargetPageID
		if target := m.graph.GetPage(t.TargetPageID); target != nil {
			leadsTo = target.PageName
		}
		out = append(out, Action{
			WidgetID:    t.TriggerWidgetID,
			WidgetText:  t.TriggerWidgetText,
			Action:      string(t.ActionType),
			LeadsTo:     leadsTo,
			SuccessRate: t.SuccessRate(),
		})
	}
	return out
}
