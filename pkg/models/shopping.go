package models

// ShoppingItem is a deduplicated, provenance-tracked entry in the active
// shopping list. Identity is the generated ID; merge matching uses the
// normalized name plus the IsCustom/IsSeasoning partition.
//
// Invariant: len(RecipeIDs) == len(RecipeNames), and a recipe id appears
// at most once.
type ShoppingItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Quantity    string   `json:"quantity"`
	IsCustom    bool     `json:"is_custom"`
	IsSeasoning bool     `json:"is_seasoning"`
	Completed   bool     `json:"completed"`
	RecipeID    string   `json:"recipe_id,omitempty"`
	RecipeName  string   `json:"recipe_name,omitempty"`
	RecipeIDs   []string `json:"recipe_ids"`
	RecipeNames []string `json:"recipe_names"`
	Timestamp   int64    `json:"timestamp"`
}

// ShoppingList is the active trip. Items with IsCustom=true live only in
// CustomItems, non-custom items only in Ingredients.
type ShoppingList struct {
	Ingredients []ShoppingItem `json:"ingredients"`
	CustomItems []ShoppingItem `json:"custom_items"`
}

func (l ShoppingList) Len() int {
	return len(l.Ingredients) + len(l.CustomItems)
}

// CustomItem is a durable user-defined shopping entry independent of any
// recipe. The trip copy in ShoppingList.CustomItems is transient.
type CustomItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	Completed bool   `json:"completed"`
	Timestamp int64  `json:"timestamp"`
}
