package session

import (
	"context"

	"pantryhub/pkg/models"
)

// Snapshot is everything a session loads at startup.
type Snapshot struct {
	Recipes      []models.Recipe
	ShoppingList models.ShoppingList
	CustomItems  []models.CustomItem
	History      []models.HistoryEntry
}

// Store is the persistence collaborator. Each save covers one collection
// and is independently fallible; the session logs failures and keeps its
// in-memory state (at-least-attempt, not strict durability).
type Store interface {
	LoadAll(ctx context.Context) (*Snapshot, error)
	SaveRecipes(ctx context.Context, recipes []models.Recipe) error
	SaveShoppingList(ctx context.Context, list models.ShoppingList) error
	SaveCustomItems(ctx context.Context, items []models.CustomItem) error
	SaveHistory(ctx context.Context, entries []models.HistoryEntry) error
}
