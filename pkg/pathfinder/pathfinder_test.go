package pathfinder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikit/navgraph/pkg/embed"
	"github.com/navikit/navgraph/pkg/graph"
	"github.com/navikit/navgraph/pkg/schema"
	"github.com/navikit/navgraph/pkg/vector"
)

const appID = "com.example.food"

type fixture struct {
	graph    *graph.Mem
	vectors  *vector.Manager
	embedder *embed.Mock
	finder   *Finder

	home, list, detail string
}

// newFixture builds the home -> list -> detail chain with the "order food"
// intent registered against the detail page.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		graph:    graph.NewMem(),
		embedder: embed.NewMock(64),
	}
	f.vectors = vector.NewManager(vector.BackendBrute, 64)
	f.finder = New(f.graph, f.vectors, f.embedder, Config{})

	f.home = addPage(t, f, "home", schema.PageHome, "app landing screen")
	f.list = addPage(t, f, "restaurant_list", schema.PageList, "list of restaurants")
	f.detail = addPage(t, f, "restaurant_detail", schema.PageDetail, "menu and order screen")

	addEdge(f, f.home, f.list, "Nearby")
	addEdge(f, f.list, f.detail, "Restaurant")

	registerIntent(t, f, "order food", f.detail)
	return f
}

func addPage(t *testing.T, f *fixture, name string, ptype schema.PageType, desc string) string {
	t.Helper()
	id := schema.PageID(appID, name, "")
	f.graph.AddPage(&schema.Page{
		PageID:      id,
		PageName:    name,
		AppID:       appID,
		PageType:    ptype,
		Description: desc,
	})
	vec, err := f.embedder.Encode(desc)
	require.NoError(t, err)
	f.vectors.Pages().Insert(id, vec, vector.Metadata{"name": name})
	return id
}

func addEdge(f *fixture, src, dst, widgetText string) {
	f.graph.AddTransition(&schema.Transition{
		TransitionID:      schema.TransitionID(src, dst, schema.ActionClick),
		SourcePageID:      src,
		TargetPageID:      dst,
		TriggerWidgetText: widgetText,
		ActionType:        schema.ActionClick,
		SuccessCount:      1,
	})
}

func registerIntent(t *testing.T, f *fixture, text, targetPageID string) {
	t.Helper()
	vec, err := f.embedder.Encode(text)
	require.NoError(t, err)
	f.vectors.Intents().Insert(schema.IntentID(appID, text), vec, vector.Metadata{
		"text":           text,
		"target_page_id": targetPageID,
	})
}

// ============================================================================
// Intent resolution
// ============================================================================

func TestFindPathByIntent(t *testing.T) {
	f := newFixture(t)

	result, err := f.finder.FindPathByIntent(appID, "order food", f.home, 10)
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, 2, result.Path.TotalSteps())
	// Querying with the registered intent text is a self-match.
	assert.InDelta(t, 1.0, result.Confidence, 1e-3)
	assert.Equal(t, f.home, result.Path.StartPageID)
	assert.Equal(t, f.detail, result.Path.EndPageID)

	require.NotNil(t, result.TargetPage)
	assert.Equal(t, "restaurant_detail", result.TargetPage.PageName)

	first := result.Path.Steps[0]
	assert.Equal(t, 1, first.StepIndex)
	assert.Equal(t, schema.ActionClick, first.ActionType)
	assert.Equal(t, "Nearby", first.TargetWidgetText)
	assert.Equal(t, f.list, first.ExpectedPageID)
	assert.Equal(t, "restaurant_list", first.ExpectedPageName)
	assert.Equal(t, "click Nearby", first.Description)
	assert.InDelta(t, 1.0, first.SuccessRate, 1e-9)
}

func TestFindPathByIntentDefaultsToHome(t *testing.T) {
	f := newFixture(t)

	result, err := f.finder.FindPathByIntent(appID, "order food", "", 10)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, f.home, result.Path.StartPageID)
}

func TestFindPathByIntentNoStartPage(t *testing.T) {
	f := newFixture(t)
	f.graph.Clear()

	result, err := f.finder.FindPathByIntent(appID, "order food", "", 10)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "start page")
}

func TestFindPathByIntentUnreachable(t *testing.T) {
	f := newFixture(t)

	// Edges are directed, so detail cannot reach itself via home.
	result, err := f.finder.FindPathByIntent(appID, "order food", f.detail, 10)
	require.NoError(t, err)

	// Standing on the target yields a zero-step path, so force a true
	// unreachable case with an isolated page.
	require.True(t, result.Success)
	assert.Zero(t, result.Path.TotalSteps())

	isolated := addPage(t, f, "isolated", schema.PageOther, "orphan screen")
	registerIntent(t, f, "reach orphan", isolated)
	result, err = f.finder.FindPathByIntent(appID, "reach orphan", f.home, 10)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "unreachable")
}

func TestFindPathFallsBackToPageSearch(t *testing.T) {
	f := newFixture(t)
	f.vectors.Intents().Clear()

	result, err := f.finder.FindPathByIntent(appID, "menu and order screen", f.home, 10)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, f.detail, result.Path.EndPageID)
}

func TestFindPathNoTarget(t *testing.T) {
	f := newFixture(t)
	f.vectors.Intents().Clear()
	f.vectors.Pages().Clear()

	result, err := f.finder.FindPathByIntent(appID, "order food", f.home, 10)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "no target page")
}

func TestAlternativesAreDiscounted(t *testing.T) {
	f := newFixture(t)
	addEdge(f, f.home, f.detail, "Shortcut")

	result, err := f.finder.FindPathByIntent(appID, "order food", f.home, 10)
	require.NoError(t, err)
	require.True(t, result.Success)

	// The direct edge wins as primary; the two-hop route is the alternative.
	assert.Equal(t, 1, result.Path.TotalSteps())
	require.Len(t, result.Alternatives, 1)
	alt := result.Alternatives[0]
	assert.Equal(t, 2, alt.TotalSteps())
	assert.InDelta(t, result.Confidence*0.8, alt.Confidence, 1e-9)
	assert.Equal(t, "alternative path", alt.Reason)
}

func TestFindPathDirect(t *testing.T) {
	f := newFixture(t)

	result := f.finder.FindPathDirect(f.home, f.detail)
	require.True(t, result.Success)
	assert.Equal(t, 2, result.Path.TotalSteps())
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)

	missing := f.finder.FindPathDirect(f.detail, f.home)
	assert.False(t, missing.Success)
}

// ============================================================================
// Next action
// ============================================================================

func TestGetNextAction(t *testing.T) {
	f := newFixture(t)

	next, err := f.finder.GetNextAction(f.home, "order food", appID)
	require.NoError(t, err)
	require.NotNil(t, next.Action)
	assert.Equal(t, "Nearby", next.Action.TargetWidgetText)
	assert.Equal(t, 1, next.RemainingSteps)
	assert.False(t, next.IsComplete)
}

func TestGetNextActionCompletion(t *testing.T) {
	f := newFixture(t)

	next, err := f.finder.GetNextAction(f.detail, "order food", appID)
	require.NoError(t, err)
	assert.Nil(t, next.Action)
	assert.True(t, next.IsComplete)
	assert.Zero(t, next.RemainingSteps)
}

func TestGetNextActionLastStep(t *testing.T) {
	f := newFixture(t)

	next, err := f.finder.GetNextAction(f.list, "order food", appID)
	require.NoError(t, err)
	require.NotNil(t, next.Action)
	assert.Zero(t, next.RemainingSteps)
	assert.True(t, next.IsComplete)
}

// ============================================================================
// Reachable intents
// ============================================================================

func TestGetReachableIntents(t *testing.T) {
	f := newFixture(t)
	list := f.graph.GetPage(f.list)
	list.Intents = []string{"find restaurants"}
	detail := f.graph.GetPage(f.detail)
	detail.Intents = []string{"order food", "find restaurants"}

	intents := f.finder.GetReachableIntents(f.home)
	assert.Equal(t, []string{"find restaurants", "order food"}, intents)

	assert.Equal(t, []string{"order food", "find restaurants"}, f.finder.GetReachableIntents(f.detail))
}
