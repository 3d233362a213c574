// Package uitree models the observed UI hierarchy as a typed recursive tree
// and derives page-level features from it: the structural state hash,
// interactive widgets, heuristic page naming and typing, and the text
// surrogate used for semantic matching.
package uitree

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/navikit/navgraph/pkg/schema"
)

// Node is one element of the observed UI hierarchy. All fields are
// optional on the wire; absent booleans read as false.
type Node struct {
	Class       string  `json:"class,omitempty"`
	Type        string  `json:"type,omitempty"`
	Text        string  `json:"text,omitempty"`
	ContentDesc string  `json:"content_desc,omitempty"`
	ResourceID  string  `json:"resource_id,omitempty"`
	Clickable   bool    `json:"clickable,omitempty"`
	Scrollable  bool    `json:"scrollable,omitempty"`
	Editable    bool    `json:"editable,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
	Bounds      *schema.Bounds `json:"bounds,omitempty"`
	Children    []*Node `json:"children,omitempty"`
}

// kind returns the element type, preferring the explicit type tag over the
// platform class name.
func (n *Node) kind() string {
	if n.Type != "" {
		return n.Type
	}
	return n.Class
}

// StateHash computes the structural hash of a tree. The canonical JSON form
// of the typed tree keys the hash, so identical structures always collide.
func StateHash(root *Node) string {
	if root == nil {
		return ""
	}
	data, err := json.Marshal(root)
	if err != nil {
		return ""
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])[:8]
}

// ExtractWidgets returns the interactive widgets of a tree, with
// xpath-style structural paths and ids derived from the owning page.
func ExtractWidgets(root *Node, pageID string) []schema.Widget {
	var widgets []schema.Widget
	var walk func(n *Node, xpath string)
	walk = func(n *Node, xpath string) {
		if n == nil {
			return
		}
		class := n.kind()
		if class == "" {
			class = "unknown"
		}
		current := xpath + "/" + class

		if n.Clickable || n.Scrollable || n.Editable {
			enabled := true
			if n.Enabled != nil {
				enabled = *n.Enabled
			}
			w := schema.Widget{
				WidgetID:     schema.WidgetID(pageID, current),
				WidgetType:   InferWidgetType(n),
				Text:         n.Text,
				ContentDesc:  n.ContentDesc,
				ResourceID:   n.ResourceID,
				XPath:        current,
				IsClickable:  n.Clickable,
				IsScrollable: n.Scrollable,
				IsEditable:   n.Editable,
				IsEnabled:    enabled,
			}
			if n.Bounds != nil {
				w.Bounds = *n.Bounds
			}
			widgets = append(widgets, w)
		}
		for i, c := range n.Children {
			walk(c, fmt.Sprintf("%s[%d]", current, i))
		}
	}
	walk(root, "")
	return widgets
}

// InferWidgetType guesses a widget type from its class name.
func InferWidgetType(n *Node) schema.WidgetType {
	class := strings.ToLower(n.kind())
	switch {
	case strings.Contains(class, "button"):
		return schema.WidgetButton
	case strings.Contains(class, "edittext"), strings.Contains(class, "input"):
		return schema.WidgetInput
	case strings.Contains(class, "checkbox"):
		return schema.WidgetCheckbox
	case strings.Contains(class, "switch"):
		return schema.WidgetSwitch
	case strings.Contains(class, "slider"), strings.Contains(class, "seekbar"):
		return schema.WidgetSlider
	case strings.Contains(class, "tab"):
		return schema.WidgetTab
	case strings.Contains(class, "listview"), strings.Contains(class, "recyclerview"), strings.Contains(class, "list"):
		return schema.WidgetList
	case strings.Contains(class, "imageview"), strings.Contains(class, "image"):
		return schema.WidgetImage
	case strings.Contains(class, "icon"):
		return schema.WidgetIcon
	case strings.Contains(class, "textview"), strings.Contains(class, "text"):
		return schema.WidgetText
	default:
		return schema.WidgetOther
	}
}

// InferPageType guesses the page role from its widget composition.
func InferPageType(widgets []schema.Widget) schema.PageType {
	inputs := 0
	hasList := false
	for _, w := range widgets {
		switch w.WidgetType {
		case schema.WidgetInput:
			inputs++
		case schema.WidgetList:
			hasList = true
		}
	}
	if inputs >= 2 {
		return schema.PageForm
	}
	if hasList {
		return schema.PageList
	}
	return schema.PageOther
}

// ExtractTitle finds the most likely page title: the text of the first
// element whose class or resource id marks it as a title bar.
func ExtractTitle(root *Node) string {
	var find func(n *Node) string
	find = func(n *Node) string {
		if n == nil {
			return ""
		}
		if strings.HasSuffix(n.Class, "Title") || strings.HasSuffix(n.ResourceID, "title") {
			if n.Text != "" {
				return n.Text
			}
		}
		for _, c := range n.Children {
			if t := find(c); t != "" {
				return t
			}
		}
		return ""
	}
	return find(root)
}

// VisibleText concatenates every non-empty text field in document order.
// Used as the text surrogate when no screenshot embedding is supplied.
func VisibleText(root *Node) string {
	var texts []string
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if t := strings.TrimSpace(n.Text); t != "" {
			texts = append(texts, t)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(texts, " ")
}

// Describe builds a short free-text description of the page from its first
// few visible strings.
func Describe(root *Node) string {
	var texts []string
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil || len(texts) >= 5 {
			return
		}
		if t := strings.TrimSpace(n.Text); t != "" && len(t) < 50 {
			texts = append(texts, t)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	if len(texts) == 0 {
		return ""
	}
	return "contains: " + strings.Join(texts, ", ")
}
