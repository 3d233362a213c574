// Package schema defines the entity records of the UI navigation graph:
// apps, pages, widgets, transitions, intents and the action paths assembled
// from them. Identifiers are content-addressed so re-observing the same
// screen or action never mints a new identity.
package schema

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// PageType classifies what role a screen plays in the app.
type PageType string

const (
	PageHome     PageType = "home"
	PageList     PageType = "list"
	PageDetail   PageType = "detail"
	PageForm     PageType = "form"
	PageDialog   PageType = "dialog"
	PageSearch   PageType = "search"
	PageSettings PageType = "settings"
	PageOther    PageType = "other"
)

// WidgetType classifies an interactive element.
type WidgetType string

const (
	WidgetButton   WidgetType = "button"
	WidgetText     WidgetType = "text"
	WidgetInput    WidgetType = "input"
	WidgetImage    WidgetType = "image"
	WidgetList     WidgetType = "list"
	WidgetTab      WidgetType = "tab"
	WidgetIcon     WidgetType = "icon"
	WidgetCheckbox WidgetType = "checkbox"
	WidgetSwitch   WidgetType = "switch"
	WidgetSlider   WidgetType = "slider"
	WidgetOther    WidgetType = "other"
)

// ActionType is the kind of operator action that triggers a transition.
type ActionType string

const (
	ActionClick     ActionType = "click"
	ActionLongPress ActionType = "long_press"
	ActionInput     ActionType = "input"
	ActionSwipe     ActionType = "swipe"
	ActionScroll    ActionType = "scroll"
	ActionBack      ActionType = "back"
	ActionHome      ActionType = "home"
)

// ParseActionType maps a wire string to an ActionType, defaulting to click.
func ParseActionType(s string) ActionType {
	switch ActionType(s) {
	case ActionClick, ActionLongPress, ActionInput, ActionSwipe, ActionScroll, ActionBack, ActionHome:
		return ActionType(s)
	default:
		return ActionClick
	}
}

// ParsePageType maps a wire string to a PageType, defaulting to other.
func ParsePageType(s string) PageType {
	switch PageType(s) {
	case PageHome, PageList, PageDetail, PageForm, PageDialog, PageSearch, PageSettings:
		return PageType(s)
	default:
		return PageOther
	}
}

// App is the application under test. Immutable once created.
type App struct {
	AppID     string    `json:"app_id"`
	AppName   string    `json:"app_name"`
	Version   string    `json:"version"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

// Bounds is a widget bounding box in screen coordinates.
type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Widget is an interactive element owned by exactly one Page.
type Widget struct {
	WidgetID    string     `json:"widget_id"`
	WidgetType  WidgetType `json:"widget_type"`
	Text        string     `json:"text"`
	ContentDesc string     `json:"content_desc"`
	ResourceID  string     `json:"resource_id"`
	XPath       string     `json:"xpath"`
	Bounds      Bounds     `json:"bounds"`

	IsClickable  bool `json:"is_clickable"`
	IsScrollable bool `json:"is_scrollable"`
	IsEditable   bool `json:"is_editable"`
	IsEnabled    bool `json:"is_enabled"`

	SemanticRole string `json:"semantic_role,omitempty"`
}

// Page is a distinct screen state, the core graph node.
type Page struct {
	PageID   string   `json:"page_id"`
	PageName string   `json:"page_name"`
	AppID    string   `json:"app_id"`
	PageType PageType `json:"page_type"`

	StateHash string `json:"state_hash"`

	Title       string   `json:"title,omitempty"`
	Description string   `json:"description"`
	Intents     []string `json:"intents"`
	Keywords    []string `json:"keywords"`

	Widgets []Widget `json:"widgets,omitempty"`

	ScreenshotPath string `json:"screenshot_path,omitempty"`

	Depth      int       `json:"depth"`
	VisitCount int       `json:"visit_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Transition is a directed, statistics-bearing edge between pages.
type Transition struct {
	TransitionID string `json:"transition_id"`
	SourcePageID string `json:"source_page_id"`
	TargetPageID string `json:"target_page_id"`

	TriggerWidgetID   string            `json:"trigger_widget_id"`
	TriggerWidgetText string            `json:"trigger_widget_text"`
	ActionType        ActionType        `json:"action_type"`
	InputData         map[string]string `json:"input_data,omitempty"`

	SuccessCount int     `json:"success_count"`
	FailCount    int     `json:"fail_count"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`

	DiscoveredAt time.Time `json:"discovered_at"`
	LastVerified time.Time `json:"last_verified"`
}

// SuccessRate is success/(success+fail), 0.0 with no observations.
func (t *Transition) SuccessRate() float64 {
	total := t.SuccessCount + t.FailCount
	if total == 0 {
		return 0.0
	}
	return float64(t.SuccessCount) / float64(total)
}

// Intent is a natural-language goal resolvable to a target page.
// Its embedding lives in the vector index, not inline.
type Intent struct {
	IntentID   string   `json:"intent_id"`
	IntentText string   `json:"intent_text"`
	AppID      string   `json:"app_id"`
	Keywords   []string `json:"keywords"`

	TargetPageID string `json:"target_page_id"`

	SuccessCount int     `json:"success_count"`
	AvgSteps     float64 `json:"avg_steps"`
}

// ActionStep is one concrete action inside an ActionPath.
type ActionStep struct {
	StepIndex        int        `json:"step"`
	ActionType       ActionType `json:"action_type"`
	TargetWidgetID   string     `json:"widget_id"`
	TargetWidgetText string     `json:"widget_text"`
	WidgetXPath      string     `json:"widget_xpath,omitempty"`
	InputText        string     `json:"input_text"`
	ExpectedPageID   string     `json:"expected_page"`
	ExpectedPageName string     `json:"expected_page_name,omitempty"`
	Confidence       float64    `json:"confidence"`
	SuccessRate      float64    `json:"success_rate,omitempty"`
	Description      string     `json:"description"`
}

// ActionPath is an ordered walk through the graph realizing an intent.
// It is a query result built from live transition data, never persisted.
type ActionPath struct {
	PathID   string `json:"path_id"`
	IntentID string `json:"intent_id"`
	AppID    string `json:"app_id,omitempty"`

	Steps       []ActionStep `json:"steps"`
	StartPageID string       `json:"start_page"`
	EndPageID   string       `json:"end_page"`

	Confidence float64 `json:"confidence"`
	IsVerified bool    `json:"is_verified,omitempty"`
	Reason     string  `json:"reason,omitempty"`

	ExecutionCount int `json:"execution_count,omitempty"`
	SuccessCount   int `json:"success_count,omitempty"`
	AvgTimeMS      int `json:"avg_time_ms,omitempty"`
}

// TotalSteps is the number of actions in the path.
func (p *ActionPath) TotalSteps() int {
	return len(p.Steps)
}

func hashID(content string, n int) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:n]
}

// PageID derives the content-addressed page identifier. The same
// (app, name, state hash) triple always yields the same id.
func PageID(appID, pageName, stateHash string) string {
	return hashID(fmt.Sprintf("%s:%s:%s", appID, pageName, stateHash), 16)
}

// WidgetID derives a widget identifier from its owning page and
// structural path.
func WidgetID(pageID, xpath string) string {
	return hashID(fmt.Sprintf("%s:%s", pageID, xpath), 12)
}

// TransitionID derives a transition identifier. A (source, target, action)
// triple maps to exactly one id.
func TransitionID(sourceID, targetID string, action ActionType) string {
	return hashID(fmt.Sprintf("%s->%s:%s", sourceID, targetID, action), 12)
}

// IntentID derives an intent identifier from its app and goal text.
func IntentID(appID, intentText string) string {
	return hashID(fmt.Sprintf("%s:%s", appID, intentText), 12)
}

// PathID derives an ActionPath identifier. Paths are ephemeral query
// results, so the start page is enough to distinguish them per intent.
func PathID(intentID, startPageID string) string {
	return hashID(fmt.Sprintf("%s:%s", intentID, startPageID), 12)
}

// NewApp creates an App with sensible defaults.
func NewApp(appID, appName, version, platform string) *App {
	if version == "" {
		version = "1.0.0"
	}
	if platform == "" {
		platform = "android"
	}
	return &App{
		AppID:     appID,
		AppName:   appName,
		Version:   version,
		Platform:  platform,
		CreatedAt: time.Now(),
	}
}
