package session

import (
	"context"
	"time"

	"pantryhub/internal/normalize"
	"pantryhub/internal/quantity"
	"pantryhub/pkg/models"
)

// itemsMatch decides whether an incoming item merges into an existing
// one. Non-custom items need name equality plus seasoning equality,
// except that a seasoning incoming item matches a seasoning existing item
// by name alone. The seasoning-to-seasoning branch is kept literal even
// though it overlaps plain equality; collapsing it would silently change
// dedup behavior.
func itemsMatch(existing, incoming models.ShoppingItem) bool {
	if normalize.Name(existing.Name) != normalize.Name(incoming.Name) {
		return false
	}
	if existing.IsCustom || incoming.IsCustom {
		return existing.IsCustom && incoming.IsCustom
	}
	if incoming.IsSeasoning && existing.IsSeasoning {
		return true
	}
	return existing.IsSeasoning == incoming.IsSeasoning
}

// mergeItem folds an incoming item into the matching entry of the target
// partition, or appends a new entry. Returns true when the list gained
// the item either way.
func (s *Session) mergeItem(target *[]models.ShoppingItem, incoming models.ShoppingItem, recipeID, recipeName string) bool {
	for i := range *target {
		existing := &(*target)[i]
		if !itemsMatch(*existing, incoming) {
			continue
		}

		existing.Quantity = quantity.Merge(existing.Quantity, incoming.Quantity)
		if recipeID != "" {
			attached := false
			for j, id := range existing.RecipeIDs {
				if id == recipeID {
					attached = true
					if existing.RecipeNames[j] != recipeName {
						existing.RecipeNames[j] = recipeName
					}
					break
				}
			}
			if !attached {
				existing.RecipeIDs = append(existing.RecipeIDs, recipeID)
				existing.RecipeNames = append(existing.RecipeNames, recipeName)
			}
			if existing.RecipeID == recipeID {
				existing.RecipeName = recipeName
			}
		}
		return true
	}

	if incoming.ID == "" {
		incoming.ID = newItemID()
	}
	if incoming.Timestamp == 0 {
		incoming.Timestamp = time.Now().UnixMilli()
	}
	incoming.RecipeIDs = []string{}
	incoming.RecipeNames = []string{}
	if recipeID != "" {
		incoming.RecipeIDs = append(incoming.RecipeIDs, recipeID)
		incoming.RecipeNames = append(incoming.RecipeNames, recipeName)
		incoming.RecipeID = recipeID
		incoming.RecipeName = recipeName
	}
	*target = append(*target, incoming)
	return true
}

// addToListLocked merges one converted item into the partition its
// IsCustom flag selects. Caller holds the session lock.
func (s *Session) addToListLocked(item models.ShoppingItem, recipeID, recipeName string) bool {
	target := &s.list.Ingredients
	if item.IsCustom {
		target = &s.list.CustomItems
	}
	return s.mergeItem(target, item, recipeID, recipeName)
}

// AddToShoppingList merges a batch of recipe ingredients into the active
// list. Items without an explicit type inherit seasoningDefault. Returns
// whether anything was added or merged.
func (s *Session) AddToShoppingList(items []models.Ingredient, recipeName, recipeID string, seasoningDefault bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addIngredientsLocked(items, recipeName, recipeID, seasoningDefault)
}

func (s *Session) addIngredientsLocked(items []models.Ingredient, recipeName, recipeID string, seasoningDefault bool) bool {
	added := false
	for _, ing := range items {
		if normalize.Name(ing.Name) == "" {
			continue
		}
		item := models.ShoppingItem{
			Name:        ing.Name,
			Quantity:    ing.Quantity,
			IsSeasoning: ing.IsSeasoning(seasoningDefault),
		}
		if s.addToListLocked(item, recipeID, recipeName) {
			added = true
		}
	}
	return added
}

// AddSelectedToShopping rebuilds the shopping list from the live recipe
// selection: recipe-derived entries are cleared and re-aggregated (so the
// operation is idempotent under re-selection), while custom trip items
// are preserved. The selected recipes are snapshotted into the trip side
// channel. Returns whether at least one item landed in the list.
func (s *Session) AddSelectedToShopping(ctx context.Context) bool {
	s.mu.Lock()

	ids := s.selectedIDsLocked()
	s.tripRecipes = make([]models.RecipeRef, 0, len(ids))
	s.list.Ingredients = nil

	added := false
	for _, id := range ids {
		var recipe *models.Recipe
		for i := range s.recipes {
			if s.recipes[i].ID == id {
				recipe = &s.recipes[i]
				break
			}
		}
		if recipe == nil {
			continue
		}
		s.tripRecipes = append(s.tripRecipes, models.RecipeRef{ID: recipe.ID, Name: recipe.Name})

		var plain, seasoning []models.Ingredient
		for _, ing := range recipe.Ingredients {
			if ing.IsSeasoning(false) {
				seasoning = append(seasoning, ing)
			} else {
				plain = append(plain, ing)
			}
		}
		if s.addIngredientsLocked(plain, recipe.Name, recipe.ID, false) {
			added = true
		}
		if s.addIngredientsLocked(seasoning, recipe.Name, recipe.ID, true) {
			added = true
		}
	}

	snapshot := copyList(s.list)
	s.mu.Unlock()

	s.persist("shopping list", func() error { return s.store.SaveShoppingList(ctx, snapshot) })
	return added
}
