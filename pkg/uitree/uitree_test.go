package uitree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikit/navgraph/pkg/schema"
)

func sampleTree() *Node {
	return &Node{
		Class: "FrameLayout",
		Children: []*Node{
			{Class: "TextTitle", Text: "Checkout"},
			{Class: "EditText", Editable: true, Text: ""},
			{Class: "Button", Clickable: true, Text: "Pay now"},
			{Class: "RecyclerView", Scrollable: true},
		},
	}
}

func TestStateHashStableAndSensitive(t *testing.T) {
	a := sampleTree()
	b := sampleTree()
	assert.Equal(t, StateHash(a), StateHash(b))
	assert.Len(t, StateHash(a), 8)

	b.Children[2].Text = "Confirm"
	assert.NotEqual(t, StateHash(a), StateHash(b))
	assert.Empty(t, StateHash(nil))
}

func TestExtractWidgets(t *testing.T) {
	widgets := ExtractWidgets(sampleTree(), "page-1")

	// Only the interactive elements: the edit text, the button, the list.
	require.Len(t, widgets, 3)
	assert.Equal(t, schema.WidgetInput, widgets[0].WidgetType)
	assert.Equal(t, schema.WidgetButton, widgets[1].WidgetType)
	assert.Equal(t, "Pay now", widgets[1].Text)
	assert.Equal(t, schema.WidgetList, widgets[2].WidgetType)

	assert.Equal(t, "/FrameLayout[2]/Button", widgets[1].XPath)
	assert.True(t, widgets[1].IsEnabled)
	assert.Len(t, widgets[1].WidgetID, 12)
}

func TestInferWidgetType(t *testing.T) {
	assert.Equal(t, schema.WidgetButton, InferWidgetType(&Node{Class: "android.widget.Button"}))
	assert.Equal(t, schema.WidgetInput, InferWidgetType(&Node{Class: "EditText"}))
	assert.Equal(t, schema.WidgetList, InferWidgetType(&Node{Class: "ListView"}))
	assert.Equal(t, schema.WidgetText, InferWidgetType(&Node{Class: "TextView"}))
	assert.Equal(t, schema.WidgetOther, InferWidgetType(&Node{Class: "View"}))
	assert.Equal(t, schema.WidgetSwitch, InferWidgetType(&Node{Type: "switch"}))
}

func TestInferPageType(t *testing.T) {
	form := []schema.Widget{
		{WidgetType: schema.WidgetInput},
		{WidgetType: schema.WidgetInput},
		{WidgetType: schema.WidgetButton},
	}
	assert.Equal(t, schema.PageForm, InferPageType(form))

	list := []schema.Widget{{WidgetType: schema.WidgetList}}
	assert.Equal(t, schema.PageList, InferPageType(list))

	assert.Equal(t, schema.PageOther, InferPageType(nil))
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Checkout", ExtractTitle(sampleTree()))

	byResource := &Node{Children: []*Node{
		{Class: "TextView", ResourceID: "com.app:id/title", Text: "Settings"},
	}}
	assert.Equal(t, "Settings", ExtractTitle(byResource))

	assert.Empty(t, ExtractTitle(&Node{Class: "View"}))
}

func TestVisibleTextAndDescribe(t *testing.T) {
	tree := sampleTree()
	assert.Equal(t, "Checkout Pay now", VisibleText(tree))
	assert.Equal(t, "contains: Checkout, Pay now", Describe(tree))
	assert.Empty(t, Describe(&Node{Class: "View"}))
}

func TestKeywords(t *testing.T) {
	kws := Keywords("Find the nearby restaurants and Order Food!")
	assert.Equal(t, []string{"find", "nearby", "restaurants", "order", "food"}, kws)

	// Short tokens and duplicates drop out.
	assert.Equal(t, []string{"pay"}, Keywords("to pay pay a an"))
}
