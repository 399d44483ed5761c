package models

// HistoryItem is one denormalized line of an archived shopping trip. Unit
// is kept for record-shape compatibility; current quantities are free-form
// strings so it is usually empty.
type HistoryItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
	RecipeName  string `json:"recipe_name,omitempty"`
	IsCustom    bool   `json:"is_custom"`
	IsSeasoning bool   `json:"is_seasoning"`
}

// HistoryEntry is an immutable snapshot of one completed shopping trip.
// Created only by the completion protocol; deleted but never edited.
type HistoryEntry struct {
	ID              string        `json:"id"`
	Date            string        `json:"date"` // RFC3339
	Items           []HistoryItem `json:"items"`
	TotalItems      int           `json:"total_items"`
	SelectedRecipes []RecipeRef   `json:"selected_recipes"`
}

// MaxHistoryEntries caps the history collection; oldest entries are
// evicted past this point.
const MaxHistoryEntries = 100
