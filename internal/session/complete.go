package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pantryhub/pkg/apperr"
	"pantryhub/pkg/models"
)

// ToggleItem flips the completed state of one trip item (either
// partition) and persists the list. Returns the updated item.
func (s *Session) ToggleItem(ctx context.Context, id string) (models.ShoppingItem, error) {
	s.mu.Lock()
	var toggled *models.ShoppingItem
	for _, part := range []*[]models.ShoppingItem{&s.list.Ingredients, &s.list.CustomItems} {
		for i := range *part {
			if (*part)[i].ID == id {
				(*part)[i].Completed = !(*part)[i].Completed
				toggled = &(*part)[i]
				break
			}
		}
		if toggled != nil {
			break
		}
	}
	if toggled == nil {
		s.mu.Unlock()
		return models.ShoppingItem{}, apperr.NotFound("shopping item", id)
	}

	item := *toggled
	snapshot := copyList(s.list)
	s.mu.Unlock()

	s.persist("shopping list", func() error { return s.store.SaveShoppingList(ctx, snapshot) })
	return item, nil
}

// DeleteShoppingItem removes one item from the trip copy only; durable
// custom items are untouched.
func (s *Session) DeleteShoppingItem(ctx context.Context, id string) error {
	s.mu.Lock()
	found := false
	for _, part := range []*[]models.ShoppingItem{&s.list.Ingredients, &s.list.CustomItems} {
		for i := range *part {
			if (*part)[i].ID == id {
				*part = append((*part)[:i], (*part)[i+1:]...)
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return apperr.NotFound("shopping item", id)
	}

	snapshot := copyList(s.list)
	s.mu.Unlock()

	s.persist("shopping list", func() error { return s.store.SaveShoppingList(ctx, snapshot) })
	return nil
}

// ClearShoppingList empties the trip (both partitions) and the trip side
// channel.
func (s *Session) ClearShoppingList(ctx context.Context) {
	s.mu.Lock()
	s.list = models.ShoppingList{}
	s.tripRecipes = nil
	snapshot := copyList(s.list)
	s.mu.Unlock()

	s.persist("shopping list", func() error { return s.store.SaveShoppingList(ctx, snapshot) })
}

// AllComplete reports whether the list is non-empty and every item in
// both partitions is checked off.
func (s *Session) AllComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.list.Len() == 0 {
		return false
	}
	for _, part := range [][]models.ShoppingItem{s.list.Ingredients, s.list.CustomItems} {
		for _, it := range part {
			if !it.Completed {
				return false
			}
		}
	}
	return true
}

type saveStep struct {
	name string
	fn   func(ctx context.Context) error
}

// CompleteShopping runs the completion transaction for the checked item
// ids snapshotted by the caller: checked items are removed and archived,
// each referenced recipe's cook count goes up by exactly one, a history
// entry is prepended, and the four collections are persisted
// independently. A concurrent call while one is in flight is a no-op and
// returns (nil, nil).
func (s *Session) CompleteShopping(ctx context.Context, checkedIDs []string) (*models.HistoryEntry, error) {
	s.mu.Lock()
	if s.completing {
		s.mu.Unlock()
		return nil, nil
	}
	s.completing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.completing = false
		s.mu.Unlock()
	}()

	if len(checkedIDs) == 0 {
		return nil, apperr.Validation("check at least one item before completing")
	}

	s.mu.Lock()
	entry, saves := s.completeLocked(checkedIDs)
	s.mu.Unlock()

	// All in-memory mutation is done; persistence steps run sequentially
	// and a failure in one never aborts the rest.
	for _, step := range saves {
		s.persist(step.name, func() error { return step.fn(ctx) })
	}
	return entry, nil
}

func (s *Session) completeLocked(checkedIDs []string) (*models.HistoryEntry, []saveStep) {
	var (
		lines          []models.HistoryItem
		recipeIDs      []string
		seenRecipe     = map[string]struct{}{}
		customRemoved  bool
		recipesTouched bool
	)

	addRecipeID := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seenRecipe[id]; ok {
			return
		}
		seenRecipe[id] = struct{}{}
		recipeIDs = append(recipeIDs, id)
	}

	for _, id := range checkedIDs {
		item, ok := s.removeTripItemLocked(id)
		if !ok {
			s.logger.Printf("[shopping] checked item not found, skipping: %s", id)
			continue
		}

		recipeName := item.RecipeName
		if recipeName == "" && len(item.RecipeNames) > 0 {
			recipeName = item.RecipeNames[0]
		}
		lines = append(lines, models.HistoryItem{
			ID:          item.ID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			RecipeName:  recipeName,
			IsCustom:    item.IsCustom,
			IsSeasoning: item.IsSeasoning,
		})

		if item.IsCustom {
			// The durable custom item goes away with the trip copy.
			for i := range s.customItems {
				if s.customItems[i].ID == item.ID {
					s.customItems = append(s.customItems[:i], s.customItems[i+1:]...)
					customRemoved = true
					break
				}
			}
			continue
		}

		addRecipeID(item.RecipeID)
		for _, rid := range item.RecipeIDs {
			addRecipeID(rid)
		}
	}

	// Union with the trip side channel and the live selection.
	for _, ref := range s.tripRecipes {
		addRecipeID(ref.ID)
	}
	for _, id := range s.selectedIDsLocked() {
		addRecipeID(id)
	}

	refs := make([]models.RecipeRef, 0, len(recipeIDs))
	for _, id := range recipeIDs {
		name := ""
		for i := range s.recipes {
			if s.recipes[i].ID == id {
				if s.recipes[i].CookCount < 0 {
					s.recipes[i].CookCount = 0
				}
				s.recipes[i].CookCount++
				recipesTouched = true
				name = s.recipes[i].Name
				break
			}
		}
		if name == "" {
			// Deleted recipes still get their denormalized name from the
			// trip snapshot when available.
			for _, ref := range s.tripRecipes {
				if ref.ID == id {
					name = ref.Name
					break
				}
			}
			if name == "" {
				s.logger.Printf("[shopping] recipe missing during cook count update, skipping: %s", id)
				continue
			}
		}
		refs = append(refs, models.RecipeRef{ID: id, Name: name})
	}

	entry := models.HistoryEntry{
		ID:              uuid.NewString(),
		Date:            time.Now().UTC().Format(time.RFC3339),
		Items:           lines,
		TotalItems:      len(lines),
		SelectedRecipes: refs,
	}
	s.history = append([]models.HistoryEntry{entry}, s.history...)
	if len(s.history) > models.MaxHistoryEntries {
		s.history = s.history[:models.MaxHistoryEntries]
	}

	// Reset selection state for the next trip.
	s.selected = make(map[string]struct{})
	s.tripRecipes = nil

	recipesSnap := make([]models.Recipe, len(s.recipes))
	copy(recipesSnap, s.recipes)
	customSnap := make([]models.CustomItem, len(s.customItems))
	copy(customSnap, s.customItems)
	listSnap := copyList(s.list)
	historySnap := make([]models.HistoryEntry, len(s.history))
	copy(historySnap, s.history)

	var saves []saveStep
	if recipesTouched {
		saves = append(saves, saveStep{"recipes", func(ctx context.Context) error {
			return s.store.SaveRecipes(ctx, recipesSnap)
		}})
	}
	if customRemoved {
		saves = append(saves, saveStep{"custom items", func(ctx context.Context) error {
			return s.store.SaveCustomItems(ctx, customSnap)
		}})
	}
	saves = append(saves,
		saveStep{"shopping list", func(ctx context.Context) error {
			return s.store.SaveShoppingList(ctx, listSnap)
		}},
		saveStep{"history", func(ctx context.Context) error {
			return s.store.SaveHistory(ctx, historySnap)
		}},
	)

	return &entry, saves
}

func (s *Session) removeTripItemLocked(id string) (models.ShoppingItem, bool) {
	for _, part := range []*[]models.ShoppingItem{&s.list.Ingredients, &s.list.CustomItems} {
		for i := range *part {
			if (*part)[i].ID == id {
				item := (*part)[i]
				*part = append((*part)[:i], (*part)[i+1:]...)
				return item, true
			}
		}
	}
	return models.ShoppingItem{}, false
}
