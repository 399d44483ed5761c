package store

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantryhub/pkg/database"
	"pantryhub/pkg/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := database.Open(database.Config{
		Path: filepath.Join(t.TempDir(), "data.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.MigrateFrom(db, "../../docs/schema.sql"))
	return New(db, log.New(io.Discard, "", 0))
}

func TestRecipesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	recipes := []models.Recipe{
		{
			ID:   "r1",
			Name: "カレー",
			Ingredients: []models.Ingredient{
				{Name: "玉ねぎ", Quantity: "1"},
				{Name: "塩", Quantity: "少々", Type: models.IngredientTypeSeasoning},
			},
			Notes:     "弱火で",
			CreatedAt: created,
			UpdatedAt: created.Add(time.Hour),
			CookCount: 3,
			Favorite:  true,
		},
		{ID: "r2", Name: "サラダ", CreatedAt: created.Add(time.Minute), UpdatedAt: created.Add(time.Minute)},
	}
	require.NoError(t, s.SaveRecipes(ctx, recipes))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Recipes, 2)

	got := snap.Recipes[0]
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "カレー", got.Name)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, models.IngredientTypeSeasoning, got.Ingredients[1].Type)
	assert.Equal(t, 3, got.CookCount)
	assert.True(t, got.Favorite)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestSaveRecipes_ReplacesPreviousContents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, s.SaveRecipes(ctx, []models.Recipe{
		{ID: "r1", Name: "a", CreatedAt: now, UpdatedAt: now},
		{ID: "r2", Name: "b", CreatedAt: now, UpdatedAt: now},
	}))
	require.NoError(t, s.SaveRecipes(ctx, []models.Recipe{
		{ID: "r2", Name: "b", CreatedAt: now, UpdatedAt: now},
	}))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Recipes, 1)
	assert.Equal(t, "r2", snap.Recipes[0].ID)
}

func TestShoppingListRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	list := models.ShoppingList{
		Ingredients: []models.ShoppingItem{
			{
				ID: "i1", Name: "玉ねぎ", Quantity: "3",
				RecipeIDs: []string{"r1", "r2"}, RecipeNames: []string{"カレー", "スープ"},
				Timestamp: 1700000000000,
			},
			{ID: "i2", Name: "塩", Quantity: "少々", IsSeasoning: true, Completed: true},
		},
		CustomItems: []models.ShoppingItem{
			{ID: "c1", Name: "ラップ", Quantity: "1", IsCustom: true},
		},
	}
	require.NoError(t, s.SaveShoppingList(ctx, list))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.ShoppingList.Ingredients, 2)
	require.Len(t, snap.ShoppingList.CustomItems, 1)

	onion := snap.ShoppingList.Ingredients[0]
	assert.Equal(t, "i1", onion.ID, "order preserved")
	assert.Equal(t, []string{"r1", "r2"}, onion.RecipeIDs)
	assert.Equal(t, []string{"カレー", "スープ"}, onion.RecipeNames)
	assert.Equal(t, int64(1700000000000), onion.Timestamp)

	salt := snap.ShoppingList.Ingredients[1]
	assert.True(t, salt.IsSeasoning)
	assert.True(t, salt.Completed)

	assert.True(t, snap.ShoppingList.CustomItems[0].IsCustom)
}

func TestShoppingListRoundTrip_NilProvenanceBecomesEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveShoppingList(ctx, models.ShoppingList{
		Ingredients: []models.ShoppingItem{{ID: "i1", Name: "米", Quantity: "2"}},
	}))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.ShoppingList.Ingredients, 1)
	assert.NotNil(t, snap.ShoppingList.Ingredients[0].RecipeIDs)
	assert.Empty(t, snap.ShoppingList.Ingredients[0].RecipeIDs)
}

func TestCustomItemsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	items := []models.CustomItem{
		{ID: "c1", Name: "洗剤", Quantity: "1", Timestamp: 1700000000000},
		{ID: "c2", Name: "ティッシュ", Quantity: "5", Completed: true},
	}
	require.NoError(t, s.SaveCustomItems(ctx, items))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, snap.CustomItems)
}

func TestHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := []models.HistoryEntry{
		{
			ID:   "h1",
			Date: "2025-03-01T09:00:00Z",
			Items: []models.HistoryItem{
				{ID: "i1", Name: "玉ねぎ", Quantity: "3", RecipeName: "カレー"},
				{ID: "c1", Name: "ラップ", Quantity: "1", IsCustom: true},
			},
			TotalItems:      2,
			SelectedRecipes: []models.RecipeRef{{ID: "r1", Name: "カレー"}},
		},
		{ID: "h2", Date: "2025-02-01T09:00:00Z", TotalItems: 0},
	}
	require.NoError(t, s.SaveHistory(ctx, entries))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.History, 2)
	assert.Equal(t, "h1", snap.History[0].ID, "newest first order preserved")
	require.Len(t, snap.History[0].Items, 2)
	assert.True(t, snap.History[0].Items[1].IsCustom)
	assert.Equal(t, []models.RecipeRef{{ID: "r1", Name: "カレー"}}, snap.History[0].SelectedRecipes)
}

func TestLoadAll_EmptyDatabase(t *testing.T) {
	s := newTestStore(t)

	snap, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Recipes)
	assert.Empty(t, snap.ShoppingList.Ingredients)
	assert.Empty(t, snap.ShoppingList.CustomItems)
	assert.Empty(t, snap.CustomItems)
	assert.Empty(t, snap.History)
}

func TestLoadAll_RepairsBadRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Rows written by hand with broken JSON and a negative cook count.
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO recipes (id, name, ingredients_json, created_at, updated_at, cook_count)
		VALUES ('r1', 'broken', 'not json', ?, ?, -4)
	`, time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Recipes, 1)
	assert.Empty(t, snap.Recipes[0].Ingredients)
	assert.Zero(t, snap.Recipes[0].CookCount)
}
