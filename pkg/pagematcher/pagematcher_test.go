package pagematcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikit/navgraph/pkg/embed"
	"github.com/navikit/navgraph/pkg/graph"
	"github.com/navikit/navgraph/pkg/schema"
	"github.com/navikit/navgraph/pkg/uitree"
	"github.com/navikit/navgraph/pkg/vector"
)

const appID = "com.example.food"

// detailTree is the observed hierarchy of the restaurant detail screen.
func detailTree() *uitree.Node {
	return &uitree.Node{
		Class: "FrameLayout",
		Children: []*uitree.Node{
			{Class: "TextTitle", Text: "Restaurant Detail"},
			{Class: "Button", Text: "Order now", Clickable: true},
			{Class: "RecyclerView", Scrollable: true},
		},
	}
}

type fixture struct {
	graph    *graph.Mem
	vectors  *vector.Manager
	embedder *embed.Mock
	matcher  *Matcher

	detail, home string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		graph:    graph.NewMem(),
		embedder: embed.NewMock(64),
	}
	f.vectors = vector.NewManager(vector.BackendBrute, 64)
	f.matcher = New(f.graph, f.vectors, f.embedder, Config{})

	tree := detailTree()
	f.detail = schema.PageID(appID, "restaurant_detail", uitree.StateHash(tree))
	f.graph.AddPage(&schema.Page{
		PageID:      f.detail,
		PageName:    "restaurant_detail",
		AppID:       appID,
		PageType:    schema.PageDetail,
		StateHash:   uitree.StateHash(tree),
		Description: "menu and order screen",
		Widgets:     uitree.ExtractWidgets(tree, f.detail),
	})

	f.home = schema.PageID(appID, "home", "")
	f.graph.AddPage(&schema.Page{
		PageID:   f.home,
		PageName: "home",
		AppID:    appID,
		PageType: schema.PageHome,
	})
	f.graph.AddTransition(&schema.Transition{
		TransitionID:      schema.TransitionID(f.detail, f.home, schema.ActionClick),
		SourcePageID:      f.detail,
		TargetPageID:      f.home,
		TriggerWidgetText: "Back",
		ActionType:        schema.ActionClick,
		SuccessCount:      3,
		FailCount:         1,
	})
	return f
}

func (f *fixture) indexPage(t *testing.T, pageID, text string) {
	t.Helper()
	vec, err := f.embedder.Encode(text)
	require.NoError(t, err)
	f.vectors.Pages().Insert(pageID, vec, nil)
}

// ============================================================================
// Single strategies
// ============================================================================

func TestMatchByExactStructure(t *testing.T) {
	f := newFixture(t)

	result, err := f.matcher.MatchPage(appID, Observation{UITree: detailTree()})
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, f.detail, result.PageID)
	assert.Equal(t, "restaurant_detail", result.PageName)
	assert.Equal(t, StrategyStructural, result.MatchType)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}

func TestMatchByTitle(t *testing.T) {
	f := newFixture(t)

	result, err := f.matcher.MatchPage(appID, Observation{PageTitle: "home"})
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, f.home, result.PageID)
	assert.Equal(t, StrategyTitle, result.MatchType)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}

func TestMatchByScreenshotEmbedding(t *testing.T) {
	f := newFixture(t)
	f.indexPage(t, f.detail, "menu and order screen")

	vec, err := f.embedder.Encode("menu and order screen")
	require.NoError(t, err)

	result, err := f.matcher.MatchPage(appID, Observation{ScreenshotEmbedding: vec})
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, f.detail, result.PageID)
	assert.Equal(t, StrategyVisual, result.MatchType)
	assert.InDelta(t, 1.0, result.Confidence, 1e-3)
}

func TestNoMatchIsNotAnError(t *testing.T) {
	f := newFixture(t)

	result, err := f.matcher.MatchPage(appID, Observation{
		UITree:    &uitree.Node{Class: "WebView"},
		PageTitle: "never seen",
	})
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Empty(t, result.Candidates)
	assert.Equal(t, "no matching page found", result.Message)
}

// ============================================================================
// Merging
// ============================================================================

func TestMultiStrategyBoost(t *testing.T) {
	f := newFixture(t)

	// Structural exact hash plus the title both hit the detail page. The
	// boost is capped, so agreement cannot push confidence past 1.0.
	result, err := f.matcher.MatchPage(appID, Observation{
		UITree:    detailTree(),
		PageTitle: "restaurant_detail",
	})
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, f.detail, result.PageID)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	assert.Equal(t, StrategyStructural, result.MatchType)
}

func TestBoostBelowCap(t *testing.T) {
	f := newFixture(t)

	// Stored checkout page has four widget types; the observed tree shows
	// three of them, so the structural score is a 0.75 Jaccard rather than
	// an exact hash hit.
	stored := &uitree.Node{
		Class: "FrameLayout",
		Children: []*uitree.Node{
			{Class: "Button", Text: "Pay", Clickable: true},
			{Class: "RecyclerView", Scrollable: true},
			{Class: "EditText", Editable: true},
			{Class: "CheckBox", Clickable: true},
		},
	}
	checkout := schema.PageID(appID, "checkout", uitree.StateHash(stored))
	f.graph.AddPage(&schema.Page{
		PageID:    checkout,
		PageName:  "checkout",
		AppID:     appID,
		PageType:  schema.PageForm,
		StateHash: uitree.StateHash(stored),
		Widgets:   uitree.ExtractWidgets(stored, checkout),
	})

	observed := &uitree.Node{
		Class: "FrameLayout",
		Children: []*uitree.Node{
			{Class: "Button", Text: "Pay", Clickable: true},
			{Class: "RecyclerView", Scrollable: true},
			{Class: "EditText", Editable: true},
		},
	}
	result, err := f.matcher.MatchPage(appID, Observation{
		UITree:    observed,
		PageTitle: "checkout",
	})
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, checkout, result.PageID)

	// mean(0.75, 1.0) * 1.1
	assert.InDelta(t, 0.9625, result.Confidence, 1e-9)
}

func TestCandidatesSortedByConfidence(t *testing.T) {
	f := newFixture(t)
	f.indexPage(t, f.detail, "menu and order screen")
	f.indexPage(t, f.home, "app landing screen")

	vec, err := f.embedder.Encode("menu and order screen")
	require.NoError(t, err)

	result, err := f.matcher.MatchPage(appID, Observation{ScreenshotEmbedding: vec})
	require.NoError(t, err)
	require.True(t, result.Matched)
	for i := 1; i < len(result.Candidates); i++ {
		assert.GreaterOrEqual(t, result.Candidates[i-1].Confidence, result.Candidates[i].Confidence)
	}
	assert.Equal(t, f.detail, result.Candidates[0].PageID)
}

// ============================================================================
// Actions and similarity search
// ============================================================================

func TestMatchCarriesAvailableActions(t *testing.T) {
	f := newFixture(t)

	result, err := f.matcher.MatchPage(appID, Observation{UITree: detailTree()})
	require.NoError(t, err)
	require.True(t, result.Matched)
	require.Len(t, result.AvailableActions, 1)

	action := result.AvailableActions[0]
	assert.Equal(t, "Back", action.WidgetText)
	assert.Equal(t, "click", action.Action)
	assert.Equal(t, "home", action.LeadsTo)
	assert.InDelta(t, 0.75, action.SuccessRate, 1e-9)
}

func TestFindSimilarPages(t *testing.T) {
	f := newFixture(t)
	f.indexPage(t, f.detail, "menu and order screen")
	f.indexPage(t, f.home, "app landing screen")

	results, err := f.matcher.FindSimilarPages("menu and order screen", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "restaurant_detail", results[0].PageName)
	assert.Equal(t, StrategySemantic, results[0].MatchType)
	assert.InDelta(t, 1.0, results[0].Confidence, 1e-3)
}
