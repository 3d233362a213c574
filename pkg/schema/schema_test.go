package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDsAreDeterministic(t *testing.T) {
	assert.Equal(t, PageID("app", "home", "abcd1234"), PageID("app", "home", "abcd1234"))
	assert.NotEqual(t, PageID("app", "home", "abcd1234"), PageID("app", "home", "ffff0000"))
	assert.Len(t, PageID("app", "home", "abcd1234"), 16)

	assert.Equal(t, TransitionID("a", "b", ActionClick), TransitionID("a", "b", ActionClick))
	assert.NotEqual(t, TransitionID("a", "b", ActionClick), TransitionID("b", "a", ActionClick))
	assert.NotEqual(t, TransitionID("a", "b", ActionClick), TransitionID("a", "b", ActionSwipe))
	assert.Len(t, TransitionID("a", "b", ActionClick), 12)

	assert.Len(t, WidgetID("page", "/root/button[0]"), 12)
	assert.Len(t, IntentID("app", "order food"), 12)
	assert.Len(t, PathID("intent", "page"), 12)
}

func TestParseActionType(t *testing.T) {
	assert.Equal(t, ActionSwipe, ParseActionType("swipe"))
	assert.Equal(t, ActionLongPress, ParseActionType("long_press"))
	assert.Equal(t, ActionClick, ParseActionType("tap")) // unknown defaults to click
	assert.Equal(t, ActionClick, ParseActionType(""))
}

func TestParsePageType(t *testing.T) {
	assert.Equal(t, PageForm, ParsePageType("form"))
	assert.Equal(t, PageOther, ParsePageType("weird"))
	assert.Equal(t, PageOther, ParsePageType(""))
}

func TestSuccessRate(t *testing.T) {
	tr := &Transition{}
	assert.Zero(t, tr.SuccessRate())

	tr.SuccessCount = 3
	tr.FailCount = 1
	assert.InDelta(t, 0.75, tr.SuccessRate(), 1e-9)
}

func TestNewAppDefaults(t *testing.T) {
	app := NewApp("com.example", "Example", "", "")
	assert.Equal(t, "1.0.0", app.Version)
	assert.Equal(t, "android", app.Platform)
	assert.False(t, app.CreatedAt.IsZero())

	custom := NewApp("com.example", "Example", "2.1.0", "harmony")
	assert.Equal(t, "2.1.0", custom.Version)
	assert.Equal(t, "harmony", custom.Platform)
}

func TestActionPathTotalSteps(t *testing.T) {
	p := &ActionPath{}
	assert.Zero(t, p.TotalSteps())

	p.Steps = []ActionStep{{StepIndex: 1}, {StepIndex: 2}}
	assert.Equal(t, 2, p.TotalSteps())
}
