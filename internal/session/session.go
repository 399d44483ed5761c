// Package session holds the core engine of pantryhub: one explicitly
// constructed Session owns the four in-memory aggregates (recipes,
// shopping list, durable custom items, history) plus the recipe selection
// and the trip side channel, and drives all merging, completion and
// persistence. HTTP handlers and the CLI are thin collaborators on top.
package session

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"pantryhub/pkg/models"
)

type Session struct {
	mu     sync.Mutex
	store  Store
	logger *log.Logger

	recipes     []models.Recipe
	list        models.ShoppingList
	customItems []models.CustomItem
	history     []models.HistoryEntry

	// selected is the live recipe selection; tripRecipes is the snapshot
	// taken at aggregation time and recorded into history at completion.
	selected    map[string]struct{}
	tripRecipes []models.RecipeRef

	// completing guards the completion protocol against re-entrancy. A
	// second call while one is in flight is a no-op, not queued.
	completing bool
}

func New(store Store, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		store:    store,
		logger:   logger,
		selected: make(map[string]struct{}),
	}
}

// Load pulls all four collections from the store. In-memory copies are
// the source of truth for the rest of the session.
func (s *Session) Load(ctx context.Context) error {
	snap, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes = snap.Recipes
	s.list = snap.ShoppingList
	s.customItems = snap.CustomItems
	s.history = snap.History
	return nil
}

// Recipes returns a copy of the recipe collection.
func (s *Session) Recipes() []models.Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Recipe, len(s.recipes))
	copy(out, s.recipes)
	return out
}

// ShoppingList returns a copy of the active trip.
func (s *Session) ShoppingList() models.ShoppingList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyList(s.list)
}

func (s *Session) CustomItems() []models.CustomItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CustomItem, len(s.customItems))
	copy(out, s.customItems)
	return out
}

func (s *Session) History() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// TripRecipes returns the side-channel snapshot of the recipes the
// current list was built from.
func (s *Session) TripRecipes() []models.RecipeRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RecipeRef, len(s.tripRecipes))
	copy(out, s.tripRecipes)
	return out
}

func copyList(l models.ShoppingList) models.ShoppingList {
	out := models.ShoppingList{
		Ingredients: make([]models.ShoppingItem, len(l.Ingredients)),
		CustomItems: make([]models.ShoppingItem, len(l.CustomItems)),
	}
	copy(out.Ingredients, l.Ingredients)
	copy(out.CustomItems, l.CustomItems)
	return out
}

// persist runs one save step, logging and swallowing the failure: the
// in-memory mutation is kept even when the write does not land.
func (s *Session) persist(name string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.Printf("[session] save %s failed: %v", name, err)
	}
}

// newItemID generates a shopping/custom item id. The format is part of
// the persisted record shape.
func newItemID() string {
	return fmt.Sprintf("item-%d-%06d", time.Now().UnixMilli(), rand.Intn(1_000_000))
}
