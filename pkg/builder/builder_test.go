package builder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikit/navgraph/pkg/embed"
	"github.com/navikit/navgraph/pkg/graph"
	"github.com/navikit/navgraph/pkg/schema"
	"github.com/navikit/navgraph/pkg/uitree"
	"github.com/navikit/navgraph/pkg/vector"
)

const appID = "com.example.food"

type fixture struct {
	graph   *graph.Mem
	vectors *vector.Manager
	builder *Builder
}

func newFixture() *fixture {
	g := graph.NewMem()
	vm := vector.NewManager(vector.BackendBrute, 64)
	return &fixture{graph: g, vectors: vm, builder: New(g, vm, embed.NewMock(64))}
}

func listTree() *uitree.Node {
	return &uitree.Node{
		Class: "FrameLayout",
		Children: []*uitree.Node{
			{Class: "TextTitle", Text: "Restaurants"},
			{Class: "RecyclerView", Scrollable: true},
		},
	}
}

func detailTree() *uitree.Node {
	return &uitree.Node{
		Class: "FrameLayout",
		Children: []*uitree.Node{
			{Class: "TextTitle", Text: "Detail"},
			{Class: "Button", Text: "Order now", Clickable: true},
		},
	}
}

func TestCreateApp(t *testing.T) {
	f := newFixture()

	app := f.builder.CreateApp(appID, "Food", "", "")
	assert.Equal(t, "1.0.0", app.Version)
	assert.Equal(t, "android", app.Platform)
	assert.Equal(t, 1, f.graph.GraphStats().TotalApps)
}

func TestAddPageFromUI(t *testing.T) {
	f := newFixture()

	page, err := f.builder.AddPageFromUI(appID, listTree(), "shots/list.png", "")
	require.NoError(t, err)

	// Name falls back to the extracted title.
	assert.Equal(t, "Restaurants", page.PageName)
	assert.Equal(t, schema.PageList, page.PageType)
	assert.Equal(t, uitree.StateHash(listTree()), page.StateHash)
	assert.Equal(t, "shots/list.png", page.ScreenshotPath)
	assert.Equal(t, 1, page.VisitCount)
	require.Len(t, page.Widgets, 1)
	assert.Equal(t, schema.WidgetList, page.Widgets[0].WidgetType)

	// The page embedding is written alongside the node.
	assert.NotNil(t, f.graph.GetPage(page.PageID))
	results := f.vectors.Pages().Search(mustEncode(t, "Restaurants "+page.Description), 1)
	require.Len(t, results, 1)
	assert.Equal(t, page.PageID, results[0].ID)
	assert.Equal(t, "Restaurants", results[0].Metadata["name"])
}

func TestAddPageFromUIDedupes(t *testing.T) {
	f := newFixture()

	first, err := f.builder.AddPageFromUI(appID, listTree(), "", "restaurant_list")
	require.NoError(t, err)
	again, err := f.builder.AddPageFromUI(appID, listTree(), "", "different name")
	require.NoError(t, err)

	assert.Equal(t, first.PageID, again.PageID)
	assert.Equal(t, "restaurant_list", again.PageName)
	assert.Equal(t, 2, again.VisitCount)
	assert.Equal(t, 1, f.graph.GraphStats().TotalPages)
}

func TestAddTransitionFromAction(t *testing.T) {
	f := newFixture()

	src, err := f.builder.AddPageFromUI(appID, listTree(), "", "restaurant_list")
	require.NoError(t, err)
	dst, err := f.builder.AddPageFromUI(appID, detailTree(), "", "restaurant_detail")
	require.NoError(t, err)

	tr := f.builder.AddTransitionFromAction(src, dst, Action{Type: "tap", WidgetText: "Restaurant"})

	assert.Equal(t, schema.TransitionID(src.PageID, dst.PageID, schema.ActionClick), tr.TransitionID)
	assert.Equal(t, schema.ActionClick, tr.ActionType)
	assert.Equal(t, 1, tr.SuccessCount)
	assert.False(t, tr.DiscoveredAt.IsZero())
	assert.NotNil(t, f.graph.GetTransition(src.PageID, dst.PageID))
}

func TestProcessExplorationRecord(t *testing.T) {
	f := newFixture()

	err := f.builder.ProcessExplorationRecord(ExplorationRecord{
		Timestamp:  time.Now(),
		SourcePage: PageObservation{AppID: appID, PageName: "restaurant_list", UIHierarchy: listTree()},
		Action:     Action{Type: "click", WidgetText: "Restaurant"},
		TargetPage: PageObservation{AppID: appID, PageName: "restaurant_detail", UIHierarchy: detailTree()},
		Success:    true,
	})
	require.NoError(t, err)

	stats := f.graph.GraphStats()
	assert.Equal(t, 2, stats.TotalPages)
	assert.Equal(t, 1, stats.TotalTransitions)
}

func TestAutoGenerateIntents(t *testing.T) {
	f := newFixture()

	page, err := f.builder.AddPageFromUI(appID, detailTree(), "", "restaurant_detail")
	require.NoError(t, err)
	page.Intents = []string{"order food"}

	require.NoError(t, f.builder.AutoGenerateIntents(appID))

	hits := f.vectors.Intents().Search(mustEncode(t, "order food"), 1)
	require.Len(t, hits, 1)
	assert.Equal(t, schema.IntentID(appID, "order food"), hits[0].ID)
	assert.Equal(t, page.PageID, hits[0].Metadata["target_page_id"])
	assert.Equal(t, "order food", hits[0].Metadata["text"])
}

func mustEncode(t *testing.T, text string) []float32 {
	t.Helper()
	vec, err := embed.NewMock(64).Encode(text)
	require.NoError(t, err)
	return vec
}
