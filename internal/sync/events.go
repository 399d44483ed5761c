// Package sync pushes change notifications to connected household
// devices over WebSocket and a line-delimited TCP feed. Events carry the
// changed data so clients can refresh without an extra fetch.
package sync

import (
	"time"

	"pantryhub/pkg/models"
)

const (
	EventRecipeUpdate  = "recipe.update"
	EventRecipeDelete  = "recipe.delete"
	EventListUpdate    = "list.update"
	EventListCompleted = "list.completed"
	EventCustomUpdate  = "custom.update"
	EventHistoryUpdate = "history.update"
)

type Event struct {
	Type string    `json:"type"`
	By   string    `json:"by,omitempty"` // username of the member who acted
	At   time.Time `json:"at"`

	Recipe   *models.Recipe       `json:"recipe,omitempty"`
	RecipeID string               `json:"recipe_id,omitempty"`
	List     *models.ShoppingList `json:"list,omitempty"`
	Custom   []models.CustomItem  `json:"custom_items,omitempty"`
	Entry    *models.HistoryEntry `json:"entry,omitempty"`
}

func newEvent(typ, by string) Event {
	return Event{Type: typ, By: by, At: time.Now().UTC()}
}

func RecipeUpdated(by string, r models.Recipe) Event {
	e := newEvent(EventRecipeUpdate, by)
	e.Recipe = &r
	return e
}

func RecipeDeleted(by, id string) Event {
	e := newEvent(EventRecipeDelete, by)
	e.RecipeID = id
	return e
}

func ListUpdated(by string, list models.ShoppingList) Event {
	e := newEvent(EventListUpdate, by)
	e.List = &list
	return e
}

func ListCompleted(by string, entry models.HistoryEntry, list models.ShoppingList) Event {
	e := newEvent(EventListCompleted, by)
	e.Entry = &entry
	e.List = &list
	return e
}

func CustomUpdated(by string, items []models.CustomItem) Event {
	e := newEvent(EventCustomUpdate, by)
	e.Custom = items
	return e
}

func HistoryUpdated(by string) Event {
	return newEvent(EventHistoryUpdate, by)
}
