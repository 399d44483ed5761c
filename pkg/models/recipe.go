package models

import "time"

// Ingredient is one named, quantified component of a recipe. Quantity is a
// free-form string that may or may not be numeric ("2", "大さじ1", "適量").
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Type     string `json:"type,omitempty"` // "ingredient", "seasoning", or "" (caller default)
}

const (
	IngredientTypePlain     = "ingredient"
	IngredientTypeSeasoning = "seasoning"
)

func (i Ingredient) IsSeasoning(fallback bool) bool {
	switch i.Type {
	case IngredientTypeSeasoning:
		return true
	case IngredientTypePlain:
		return false
	default:
		return fallback
	}
}

type Recipe struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Notes       string       `json:"notes,omitempty"`
	Image       string       `json:"image,omitempty"`
	NoteImage   string       `json:"note_image,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CookCount   int          `json:"cook_count"`
	Favorite    bool         `json:"favorite"`
}

// RecipeRef is a denormalized {id, name} snapshot kept by history entries
// and the trip side channel; it survives recipe deletion.
type RecipeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
