package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pantryhub/pkg/apperr"
	"pantryhub/pkg/models"
)

// RecipeInput carries the user-entered fields of a recipe.
type RecipeInput struct {
	Name        string
	Ingredients []models.Ingredient
	Notes       string
	Image       string
	NoteImage   string
}

func cleanIngredients(in []models.Ingredient) []models.Ingredient {
	out := make([]models.Ingredient, 0, len(in))
	for _, ing := range in {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		out = append(out, models.Ingredient{
			Name:     name,
			Quantity: strings.TrimSpace(ing.Quantity),
			Type:     ing.Type,
		})
	}
	return out
}

func (s *Session) AddRecipe(ctx context.Context, in RecipeInput) (models.Recipe, error) {
	name := strings.TrimSpace(in.Name)
	ingredients := cleanIngredients(in.Ingredients)
	if name == "" || len(ingredients) == 0 {
		return models.Recipe{}, apperr.Validation("recipe name and at least one ingredient are required")
	}

	now := time.Now().UTC()
	recipe := models.Recipe{
		ID:          uuid.NewString(),
		Name:        name,
		Ingredients: ingredients,
		Notes:       in.Notes,
		Image:       in.Image,
		NoteImage:   in.NoteImage,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.recipes = append(s.recipes, recipe)
	snapshot := make([]models.Recipe, len(s.recipes))
	copy(snapshot, s.recipes)
	s.mu.Unlock()

	s.persist("recipes", func() error { return s.store.SaveRecipes(ctx, snapshot) })
	return recipe, nil
}

func (s *Session) GetRecipe(id string) (models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recipes {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Recipe{}, apperr.NotFound("recipe", id)
}

func (s *Session) UpdateRecipe(ctx context.Context, id string, in RecipeInput) (models.Recipe, error) {
	name := strings.TrimSpace(in.Name)
	ingredients := cleanIngredients(in.Ingredients)
	if name == "" || len(ingredients) == 0 {
		return models.Recipe{}, apperr.Validation("recipe name and at least one ingredient are required")
	}

	s.mu.Lock()
	idx := -1
	for i, r := range s.recipes {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return models.Recipe{}, apperr.NotFound("recipe", id)
	}

	r := s.recipes[idx]
	r.Name = name
	r.Ingredients = ingredients
	r.Notes = in.Notes
	r.Image = in.Image
	r.NoteImage = in.NoteImage
	r.UpdatedAt = time.Now().UTC()
	s.recipes[idx] = r

	snapshot := make([]models.Recipe, len(s.recipes))
	copy(snapshot, s.recipes)
	s.mu.Unlock()

	s.persist("recipes", func() error { return s.store.SaveRecipes(ctx, snapshot) })
	return r, nil
}

// DeleteRecipe removes a recipe and drops it from the selection set.
// History entries referencing it keep their denormalized snapshot.
func (s *Session) DeleteRecipe(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i, r := range s.recipes {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperr.NotFound("recipe", id)
	}

	s.recipes = append(s.recipes[:idx], s.recipes[idx+1:]...)
	delete(s.selected, id)

	snapshot := make([]models.Recipe, len(s.recipes))
	copy(snapshot, s.recipes)
	s.mu.Unlock()

	s.persist("recipes", func() error { return s.store.SaveRecipes(ctx, snapshot) })
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Session) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	idx := -1
	for i, r := range s.recipes {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, apperr.NotFound("recipe", id)
	}

	s.recipes[idx].Favorite = !s.recipes[idx].Favorite
	s.recipes[idx].UpdatedAt = time.Now().UTC()
	fav := s.recipes[idx].Favorite

	snapshot := make([]models.Recipe, len(s.recipes))
	copy(snapshot, s.recipes)
	s.mu.Unlock()

	s.persist("recipes", func() error { return s.store.SaveRecipes(ctx, snapshot) })
	return fav, nil
}

// SelectRecipe adds a recipe to the live selection set.
func (s *Session) SelectRecipe(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recipes {
		if r.ID == id {
			s.selected[id] = struct{}{}
			return nil
		}
	}
	return apperr.NotFound("recipe", id)
}

func (s *Session) DeselectRecipe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selected, id)
}

// SelectedRecipeIDs returns the live selection in recipe-collection order.
func (s *Session) SelectedRecipeIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedIDsLocked()
}

func (s *Session) selectedIDsLocked() []string {
	ids := make([]string, 0, len(s.selected))
	for _, r := range s.recipes {
		if _, ok := s.selected[r.ID]; ok {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
