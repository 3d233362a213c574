// Package builder grows the navigation graph from exploration data:
// observed UI trees become deduplicated pages, observed actions become
// transitions, and page intents are compiled into the intent embedding
// collection.
package builder

import (
	"fmt"
	"time"

	"github.com/navikit/navgraph/pkg/embed"
	"github.com/navikit/navgraph/pkg/graph"
	"github.com/navikit/navgraph/pkg/schema"
	"github.com/navikit/navgraph/pkg/uitree"
	"github.com/navikit/navgraph/pkg/vector"
)

// Action describes the operator action observed between two screens.
type Action struct {
	Type       string `json:"type"`
	WidgetID   string `json:"widget_id"`
	WidgetText string `json:"widget_text"`
}

// PageObservation is one captured screen inside an exploration record.
type PageObservation struct {
	AppID       string       `json:"app_id"`
	PageName    string       `json:"page_name,omitempty"`
	UIHierarchy *uitree.Node `json:"ui_hierarchy"`
}

// ExplorationRecord is one observed (source, action, target) triple.
type ExplorationRecord struct {
	Timestamp  time.Time       `json:"timestamp"`
	SourcePage PageObservation `json:"source_page"`
	Action     Action          `json:"action"`
	TargetPage PageObservation `json:"target_page"`
	Success    bool            `json:"success"`
}

// Builder writes pages, transitions and embeddings. It keeps a state-hash
// cache so re-observing a known screen bumps its visit count instead of
// minting a duplicate node.
type Builder struct {
	graph    graph.Store
	vectors  *vector.Manager
	embedder embed.Embedder

	hashToPage map[string]string // state hash -> page id
}

// New creates a Builder over existing stores.
func New(g graph.Store, vm *vector.Manager, e embed.Embedder) *Builder {
	return &Builder{
		graph:      g,
		vectors:    vm,
		embedder:   e,
		hashToPage: make(map[string]string),
	}
}

// CreateApp registers an application record.
func (b *Builder) CreateApp(appID, appName, version, platform string) *schema.App {
	app := schema.NewApp(appID, appName, version, platform)
	b.graph.AddApp(app)
	return app
}

// AddPageFromUI ingests one observed screen. The state hash dedupes
// against previously seen screens; a hit increments the existing page's
// visit count and returns it unchanged. A miss extracts widgets, infers
// the page type, generates a description, stores the page and writes its
// embedding.
func (b *Builder) AddPageFromUI(appID string, tree *uitree.Node, screenshotPath, pageName string) (*schema.Page, error) {
	stateHash := uitree.StateHash(tree)

	if existingID, ok := b.hashToPage[stateHash]; ok {
		if existing := b.graph.GetPage(existingID); existing != nil {
			existing.VisitCount++
			return existing, nil
		}
	}

	if pageName == "" {
		pageName = uitree.ExtractTitle(tree)
	}
	if pageName == "" {
		pageName = "page_" + time.Now().Format("150405")
	}

	pageID := schema.PageID(appID, pageName, stateHash)
	widgets := uitree.ExtractWidgets(tree, pageID)
	description := uitree.Describe(tree)

	page := &schema.Page{
		PageID:         pageID,
		PageName:       pageName,
		AppID:          appID,
		PageType:       uitree.InferPageType(widgets),
		StateHash:      stateHash,
		Title:          uitree.ExtractTitle(tree),
		Description:    description,
		Keywords:       uitree.Keywords(pageName + " " + description),
		Widgets:        widgets,
		ScreenshotPath: screenshotPath,
		VisitCount:     1,
		CreatedAt:      time.Now(),
	}

	b.graph.AddPage(page)
	b.hashToPage[stateHash] = pageID

	if err := b.storePageEmbedding(page); err != nil {
		return nil, err
	}
	return page, nil
}

// AddTransitionFromAction records the directed edge an observed action
// produced. The id is content-addressed, so re-observing the same triple
// lands on the same transition.
func (b *Builder) AddTransitionFromAction(source, target *schema.Page, action Action) *schema.Transition {
	actionType := schema.ParseActionType(action.Type)
	t := &schema.Transition{
		TransitionID:      schema.TransitionID(source.PageID, target.PageID, actionType),
		SourcePageID:      source.PageID,
		TargetPageID:      target.PageID,
		TriggerWidgetID:   action.WidgetID,
		TriggerWidgetText: action.WidgetText,
		ActionType:        actionType,
		SuccessCount:      1,
		DiscoveredAt:      time.Now(),
	}
	b.graph.AddTransition(t)
	return t
}

// ProcessExplorationRecord ingests one record end to end: both endpoint
// screens plus the connecting transition.
func (b *Builder) ProcessExplorationRecord(rec ExplorationRecord) error {
	source, err := b.AddPageFromUI(rec.SourcePage.AppID, rec.SourcePage.UIHierarchy, "", rec.SourcePage.PageName)
	if err != nil {
		return fmt.Errorf("source page: %w", err)
	}
	target, err := b.AddPageFromUI(rec.TargetPage.AppID, rec.TargetPage.UIHierarchy, "", rec.TargetPage.PageName)
	if err != nil {
		return fmt.Errorf("target page: %w", err)
	}
	b.AddTransitionFromAction(source, target, rec.Action)
	return nil
}

// AutoGenerateIntents compiles every page's intent list into the intents
// collection, each embedding tagged with its target page.
func (b *Builder) AutoGenerateIntents(appID string) error {
	for _, page := range b.graph.GetAllPages(appID) {
		for _, text := range page.Intents {
			vec, err := b.embedder.Encode(text)
			if err != nil {
				return fmt.Errorf("encode intent %q: %w", text, err)
			}
			b.vectors.Intents().Insert(schema.IntentID(appID, text), vec, vector.Metadata{
				"text":           text,
				"app_id":         appID,
				"target_page_id": page.PageID,
			})
		}
	}
	return nil
}

// storePageEmbedding encodes the page's name, description and intents as
// one text and writes it to the pages collection.
func (b *Builder) storePageEmbedding(page *schema.Page) error {
	text := page.PageName
	if page.Description != "" {
		text += " " + page.Description
	}
	for _, it := range page.Intents {
		text += " " + it
	}
	vec, err := b.embedder.Encode(text)
	if err != nil {
		return fmt.Errorf("encode page %q: %w", page.PageName, err)
	}
	b.vectors.Pages().Insert(page.PageID, vec, vector.Metadata{
		"name":        page.PageName,
		"description": page.Description,
		"intents":     page.Intents,
	})
	return nil
}
