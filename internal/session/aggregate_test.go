package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantryhub/pkg/models"
)

func TestAddSelectedToShopping_MergesAcrossRecipes(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	curry := addTestRecipe(t, s, "カレー",
		models.Ingredient{Name: "玉ねぎ", Quantity: "1"},
		models.Ingredient{Name: "じゃがいも", Quantity: "3"},
	)
	soup := addTestRecipe(t, s, "スープ",
		models.Ingredient{Name: "玉ねぎ", Quantity: "2"},
	)
	require.NoError(t, s.SelectRecipe(curry.ID))
	require.NoError(t, s.SelectRecipe(soup.ID))

	added := s.AddSelectedToShopping(ctx)
	require.True(t, added)

	list := s.ShoppingList()
	require.Len(t, list.Ingredients, 2, "got %v", itemNames(list.Ingredients))

	onion, ok := findItem(list.Ingredients, "玉ねぎ", false)
	require.True(t, ok)
	assert.Equal(t, "3", onion.Quantity)
	assert.ElementsMatch(t, []string{curry.ID, soup.ID}, onion.RecipeIDs)
	assert.Len(t, onion.RecipeNames, len(onion.RecipeIDs))
}

func TestAddSelectedToShopping_IdempotentUnderReselection(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	curry := addTestRecipe(t, s, "カレー",
		models.Ingredient{Name: "にんじん", Quantity: "2"},
	)
	require.NoError(t, s.SelectRecipe(curry.ID))

	require.True(t, s.AddSelectedToShopping(ctx))
	first := s.ShoppingList()

	// Selection survives aggregation; running it again must not double
	// any quantity.
	require.True(t, s.AddSelectedToShopping(ctx))
	second := s.ShoppingList()

	require.Len(t, second.Ingredients, len(first.Ingredients))
	carrot, ok := findItem(second.Ingredients, "にんじん", false)
	require.True(t, ok)
	assert.Equal(t, "2", carrot.Quantity)
	assert.Equal(t, []string{curry.ID}, carrot.RecipeIDs)
}

func TestAddSelectedToShopping_PreservesCustomItems(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	ci, err := s.AddCustomItem(ctx, "ラップ", "1")
	require.NoError(t, err)
	_, err = s.AddCustomItemToList(ctx, ci.ID)
	require.NoError(t, err)

	r := addTestRecipe(t, s, "サラダ", models.Ingredient{Name: "トマト", Quantity: "2"})
	require.NoError(t, s.SelectRecipe(r.ID))
	require.True(t, s.AddSelectedToShopping(ctx))

	list := s.ShoppingList()
	require.Len(t, list.CustomItems, 1)
	assert.Equal(t, "ラップ", list.CustomItems[0].Name)
	require.Len(t, list.Ingredients, 1)
}

func TestSeasoningBoundary(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	soup := addTestRecipe(t, s, "スープ",
		models.Ingredient{Name: "Salt", Quantity: "1"},
		models.Ingredient{Name: "Salt", Quantity: "2", Type: models.IngredientTypeSeasoning},
	)
	require.NoError(t, s.SelectRecipe(soup.ID))

	// Aggregate twice: the plain and seasoning salt entries stay
	// distinct and neither quantity double-counts.
	require.True(t, s.AddSelectedToShopping(ctx))
	require.True(t, s.AddSelectedToShopping(ctx))

	list := s.ShoppingList()
	require.Len(t, list.Ingredients, 2, "got %v", itemNames(list.Ingredients))

	plain, ok := findItem(list.Ingredients, "Salt", false)
	require.True(t, ok)
	assert.Equal(t, "1", plain.Quantity)

	seasoning, ok := findItem(list.Ingredients, "Salt", true)
	require.True(t, ok)
	assert.Equal(t, "2", seasoning.Quantity)

	// A further plain salt merges into the plain entry only.
	added := s.AddToShoppingList([]models.Ingredient{{Name: "salt", Quantity: "1"}}, "", "", false)
	require.True(t, added)

	list = s.ShoppingList()
	require.Len(t, list.Ingredients, 2)
	plain, _ = findItem(list.Ingredients, "Salt", false)
	assert.Equal(t, "2", plain.Quantity)
	seasoning, _ = findItem(list.Ingredients, "Salt", true)
	assert.Equal(t, "2", seasoning.Quantity)
}

func TestAddToShoppingList_SeasoningToSeasoningMatchesByName(t *testing.T) {
	s, _ := newTestSession(t)

	s.AddToShoppingList([]models.Ingredient{{Name: "醤油", Quantity: "大さじ1"}}, "肉じゃが", "r1", true)
	s.AddToShoppingList([]models.Ingredient{{Name: "醤油 ", Quantity: "大さじ1"}}, "照り焼き", "r2", true)

	list := s.ShoppingList()
	require.Len(t, list.Ingredients, 1)
	it := list.Ingredients[0]
	// Duplicate textual quantities are concatenated, not collapsed.
	assert.Equal(t, "大さじ1+大さじ1", it.Quantity)
	assert.Equal(t, []string{"r1", "r2"}, it.RecipeIDs)
	assert.Equal(t, []string{"肉じゃが", "照り焼き"}, it.RecipeNames)
}

func TestAddToShoppingList_ProvenanceIdempotent(t *testing.T) {
	s, _ := newTestSession(t)

	s.AddToShoppingList([]models.Ingredient{{Name: "豚肉", Quantity: "200"}}, "生姜焼き", "r1", false)
	s.AddToShoppingList([]models.Ingredient{{Name: "豚肉", Quantity: "100"}}, "生姜焼き", "r1", false)

	list := s.ShoppingList()
	require.Len(t, list.Ingredients, 1)
	it := list.Ingredients[0]
	assert.Equal(t, "300", it.Quantity)
	assert.Equal(t, []string{"r1"}, it.RecipeIDs, "same recipe must not repeat in provenance")
}

func TestAddToShoppingList_RefreshesRenamedRecipe(t *testing.T) {
	s, _ := newTestSession(t)

	s.AddToShoppingList([]models.Ingredient{{Name: "鶏肉", Quantity: "1"}}, "唐揚げ", "r1", false)
	s.AddToShoppingList([]models.Ingredient{{Name: "鶏肉", Quantity: "1"}}, "竜田揚げ", "r1", false)

	list := s.ShoppingList()
	require.Len(t, list.Ingredients, 1)
	assert.Equal(t, []string{"竜田揚げ"}, list.Ingredients[0].RecipeNames)
}

func TestAddToShoppingList_InheritsSeasoningDefault(t *testing.T) {
	s, _ := newTestSession(t)

	// Untyped items inherit the batch default; explicit types win.
	s.AddToShoppingList([]models.Ingredient{
		{Name: "胡椒", Quantity: "少々"},
		{Name: "牛肉", Quantity: "300", Type: models.IngredientTypePlain},
	}, "ステーキ", "r1", true)

	list := s.ShoppingList()
	require.Len(t, list.Ingredients, 2)
	pepper, ok := findItem(list.Ingredients, "胡椒", true)
	require.True(t, ok)
	assert.True(t, pepper.IsSeasoning)
	beef, ok := findItem(list.Ingredients, "牛肉", false)
	require.True(t, ok)
	assert.False(t, beef.IsSeasoning)
}

func TestAddSelectedToShopping_EmptySelection(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	addTestRecipe(t, s, "カレー", models.Ingredient{Name: "玉ねぎ", Quantity: "1"})
	assert.False(t, s.AddSelectedToShopping(ctx))
	assert.Empty(t, s.ShoppingList().Ingredients)
	assert.Empty(t, s.TripRecipes())
}
