package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"pantryhub/pkg/models"
)

// fakeStore records saves and can be told to fail individual operations.
type fakeStore struct {
	mu        sync.Mutex
	recipes   []models.Recipe
	list      models.ShoppingList
	custom    []models.CustomItem
	history   []models.HistoryEntry
	failOps   map[string]error
	saveOrder []string

	// onSave, when set, runs inside a save call (used to exercise the
	// completion re-entrancy guard).
	onSave func(op string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{failOps: make(map[string]error)}
}

func (f *fakeStore) record(op string) error {
	f.mu.Lock()
	f.saveOrder = append(f.saveOrder, op)
	hook := f.onSave
	err := f.failOps[op]
	f.mu.Unlock()
	if hook != nil {
		hook(op)
	}
	return err
}

func (f *fakeStore) LoadAll(ctx context.Context) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &Snapshot{
		Recipes:      f.recipes,
		ShoppingList: f.list,
		CustomItems:  f.custom,
		History:      f.history,
	}, nil
}

func (f *fakeStore) SaveRecipes(ctx context.Context, recipes []models.Recipe) error {
	if err := f.record("recipes"); err != nil {
		return err
	}
	f.mu.Lock()
	f.recipes = recipes
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) SaveShoppingList(ctx context.Context, list models.ShoppingList) error {
	if err := f.record("list"); err != nil {
		return err
	}
	f.mu.Lock()
	f.list = list
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) SaveCustomItems(ctx context.Context, items []models.CustomItem) error {
	if err := f.record("custom"); err != nil {
		return err
	}
	f.mu.Lock()
	f.custom = items
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) SaveHistory(ctx context.Context, entries []models.HistoryEntry) error {
	if err := f.record("history"); err != nil {
		return err
	}
	f.mu.Lock()
	f.history = entries
	f.mu.Unlock()
	return nil
}

func newTestSession(t *testing.T) (*Session, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	s := New(store, log.New(io.Discard, "", 0))
	return s, store
}

func addTestRecipe(t *testing.T, s *Session, name string, ingredients ...models.Ingredient) models.Recipe {
	t.Helper()
	r, err := s.AddRecipe(context.Background(), RecipeInput{Name: name, Ingredients: ingredients})
	if err != nil {
		t.Fatalf("add recipe %q: %v", name, err)
	}
	return r
}

func seedHistory(s *Session, n int) {
	entries := make([]models.HistoryEntry, n)
	for i := range entries {
		entries[i] = models.HistoryEntry{
			ID:   uuid.NewString(),
			Date: time.Now().UTC().Format(time.RFC3339),
		}
	}
	s.mu.Lock()
	s.history = entries
	s.mu.Unlock()
}

func findItem(list []models.ShoppingItem, name string, seasoning bool) (models.ShoppingItem, bool) {
	for _, it := range list {
		if it.Name == name && it.IsSeasoning == seasoning {
			return it, true
		}
	}
	return models.ShoppingItem{}, false
}

func itemNames(list []models.ShoppingItem) []string {
	out := make([]string, len(list))
	for i, it := range list {
		out[i] = fmt.Sprintf("%s(%s)", it.Name, it.Quantity)
	}
	return out
}
