// Package app holds the application state and the controller that drives it.
// Every surface (CLI, web, MCP) acts through a Controller and renders from a
// State snapshot.
package app

import (
	"time"

	"github.com/hpungsan/larder/internal/recipe"
)

// Phase is the state of the results pane.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseResults Phase = "results"
	PhaseEmpty   Phase = "empty"
	PhaseError   Phase = "error"
)

// SearchMode selects what a search term is matched against.
type SearchMode string

const (
	SearchByName       SearchMode = "name"
	SearchByIngredient SearchMode = "ingredient"
)

// ParseSearchMode maps user input to a SearchMode; blank means by name.
func ParseSearchMode(s string) (SearchMode, bool) {
	switch SearchMode(s) {
	case "", SearchByName:
		return SearchByName, true
	case SearchByIngredient:
		return SearchByIngredient, true
	default:
		return "", false
	}
}

// NoticeLevel is the severity of a transient notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message for the user (a toast in the web UI).
type Notice struct {
	ID      string      `json:"id"`
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// State is everything a view needs to render. It is not persisted; only the
// cookbook survives a restart, and it is reloaded from storage.
type State struct {
	Phase          Phase             `json:"phase"`
	Query          string            `json:"query,omitempty"`
	Mode           SearchMode        `json:"mode,omitempty"`
	ActiveCategory string            `json:"active_category,omitempty"`
	Title          string            `json:"title,omitempty"`
	Message        string            `json:"message,omitempty"`
	Results        []recipe.Recipe   `json:"results"`
	Total          int               `json:"total"`
	Truncated      bool              `json:"truncated"`
	Categories     []recipe.Category `json:"categories"`
	Detail         *recipe.Recipe    `json:"detail,omitempty"`
	SidebarOpen    bool              `json:"sidebar_open"`
	Loading        bool              `json:"loading"`
	Cookbook       []recipe.Recipe   `json:"cookbook"`
	Notices        []Notice          `json:"notices"`
}

// IsSaved reports whether the recipe with id is in the cookbook snapshot.
func (s State) IsSaved(id string) bool {
	for i := range s.Cookbook {
		if s.Cookbook[i].ID == id {
			return true
		}
	}
	return false
}

// clone copies s so callers can read it without holding the controller lock.
func (s *State) clone() State {
	out := *s
	out.Results = append([]recipe.Recipe{}, s.Results...)
	out.Categories = append([]recipe.Category{}, s.Categories...)
	out.Notices = append([]Notice{}, s.Notices...)
	if s.Detail != nil {
		d := *s.Detail
		out.Detail = &d
	}
	return out
}
