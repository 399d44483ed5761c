package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantryhub/pkg/apperr"
	"pantryhub/pkg/models"
)

func checkedIDs(list models.ShoppingList) []string {
	ids := make([]string, 0, list.Len())
	for _, it := range list.Ingredients {
		ids = append(ids, it.ID)
	}
	for _, it := range list.CustomItems {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestCompleteShopping_CookCountOncePerRecipe(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	curry := addTestRecipe(t, s, "Curry",
		models.Ingredient{Name: "玉ねぎ", Quantity: "1"},
		models.Ingredient{Name: "にんじん", Quantity: "2"},
		models.Ingredient{Name: "じゃがいも", Quantity: "3"},
	)
	require.NoError(t, s.SelectRecipe(curry.ID))
	require.True(t, s.AddSelectedToShopping(ctx))

	// All three of Curry's ingredients checked in one batch.
	entry, err := s.CompleteShopping(ctx, checkedIDs(s.ShoppingList()))
	require.NoError(t, err)
	require.NotNil(t, entry)

	got, err := s.GetRecipe(curry.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CookCount, "cook count goes up by 1, not per checked ingredient")
	assert.Equal(t, 3, entry.TotalItems)
	assert.Equal(t, []models.RecipeRef{{ID: curry.ID, Name: "Curry"}}, entry.SelectedRecipes)
	assert.Empty(t, s.ShoppingList().Ingredients)
	assert.Empty(t, s.SelectedRecipeIDs())
}

func TestCompleteShopping_EmptyCheckedSet(t *testing.T) {
	s, _ := newTestSession(t)

	entry, err := s.CompleteShopping(context.Background(), nil)
	assert.Nil(t, entry)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Empty(t, s.History(), "no state change on validation failure")
}

func TestCompleteShopping_RemovesCustomFromDurableCollection(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	ci, err := s.AddCustomItem(ctx, "ティッシュ", "1")
	require.NoError(t, err)
	_, err = s.AddCustomItemToList(ctx, ci.ID)
	require.NoError(t, err)

	entry, err := s.CompleteShopping(ctx, []string{ci.ID})
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Empty(t, s.CustomItems(), "durable custom item retired with the trip copy")
	assert.Empty(t, s.ShoppingList().CustomItems)
	require.Len(t, entry.Items, 1)
	assert.True(t, entry.Items[0].IsCustom)
}

func TestCompleteShopping_UnknownIDsSkipped(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	r := addTestRecipe(t, s, "丼", models.Ingredient{Name: "米", Quantity: "2"})
	require.NoError(t, s.SelectRecipe(r.ID))
	require.True(t, s.AddSelectedToShopping(ctx))

	ids := append(checkedIDs(s.ShoppingList()), "item-0-missing")
	entry, err := s.CompleteShopping(ctx, ids)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.TotalItems)
}

func TestCompleteShopping_DeletedRecipeKeepsSnapshot(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	r := addTestRecipe(t, s, "麻婆豆腐", models.Ingredient{Name: "豆腐", Quantity: "1"})
	require.NoError(t, s.SelectRecipe(r.ID))
	require.True(t, s.AddSelectedToShopping(ctx))

	// Recipe disappears between aggregation and completion.
	require.NoError(t, s.DeleteRecipe(ctx, r.ID))

	entry, err := s.CompleteShopping(ctx, checkedIDs(s.ShoppingList()))
	require.NoError(t, err)
	require.NotNil(t, entry)

	// The trip snapshot still names the deleted recipe.
	assert.Equal(t, []models.RecipeRef{{ID: r.ID, Name: "麻婆豆腐"}}, entry.SelectedRecipes)
}

func TestCompleteShopping_HistoryCapped(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	seedHistory(s, models.MaxHistoryEntries)
	oldest := s.History()[models.MaxHistoryEntries-1].ID

	r := addTestRecipe(t, s, "鍋", models.Ingredient{Name: "白菜", Quantity: "1"})
	require.NoError(t, s.SelectRecipe(r.ID))
	require.True(t, s.AddSelectedToShopping(ctx))

	entry, err := s.CompleteShopping(ctx, checkedIDs(s.ShoppingList()))
	require.NoError(t, err)
	require.NotNil(t, entry)

	history := s.History()
	require.Len(t, history, models.MaxHistoryEntries)
	assert.Equal(t, entry.ID, history[0].ID, "new entry prepends")
	for _, e := range history {
		assert.NotEqual(t, oldest, e.ID, "oldest entry evicted")
	}
}

func TestCompleteShopping_ReentrantCallIsNoop(t *testing.T) {
	s, store := newTestSession(t)
	ctx := context.Background()

	r := addTestRecipe(t, s, "パスタ", models.Ingredient{Name: "麺", Quantity: "1"})
	require.NoError(t, s.SelectRecipe(r.ID))
	require.True(t, s.AddSelectedToShopping(ctx))
	ids := checkedIDs(s.ShoppingList())

	// A second invocation arriving while persistence is still running
	// must return immediately without doing anything.
	var nested *models.HistoryEntry
	var nestedErr error
	store.onSave = func(op string) {
		if op == "history" {
			nested, nestedErr = s.CompleteShopping(ctx, ids)
		}
	}

	entry, err := s.CompleteShopping(ctx, ids)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Nil(t, nested)
	assert.NoError(t, nestedErr)
	assert.Len(t, s.History(), 1)
}

func TestCompleteShopping_PartialPersistenceFailureTolerated(t *testing.T) {
	s, store := newTestSession(t)
	ctx := context.Background()

	r := addTestRecipe(t, s, "焼きそば", models.Ingredient{Name: "麺", Quantity: "2"})
	require.NoError(t, s.SelectRecipe(r.ID))
	require.True(t, s.AddSelectedToShopping(ctx))

	store.failOps["recipes"] = errors.New("disk full")

	entry, err := s.CompleteShopping(ctx, checkedIDs(s.ShoppingList()))
	require.NoError(t, err, "a failed save is logged, not surfaced")
	require.NotNil(t, entry)

	// In-memory state kept, remaining saves attempted.
	got, err := s.GetRecipe(r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CookCount)
	assert.Contains(t, store.saveOrder, "list")
	assert.Contains(t, store.saveOrder, "history")
}

func TestToggleItemAndAllComplete(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	r := addTestRecipe(t, s, "サラダ",
		models.Ingredient{Name: "レタス", Quantity: "1"},
		models.Ingredient{Name: "トマト", Quantity: "2"},
	)
	require.NoError(t, s.SelectRecipe(r.ID))
	require.True(t, s.AddSelectedToShopping(ctx))
	assert.False(t, s.AllComplete())

	for _, id := range checkedIDs(s.ShoppingList()) {
		item, err := s.ToggleItem(ctx, id)
		require.NoError(t, err)
		assert.True(t, item.Completed)
	}
	assert.True(t, s.AllComplete())

	// Toggle back down.
	id := s.ShoppingList().Ingredients[0].ID
	item, err := s.ToggleItem(ctx, id)
	require.NoError(t, err)
	assert.False(t, item.Completed)
	assert.False(t, s.AllComplete())

	_, err = s.ToggleItem(ctx, "item-0-missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestAllComplete_EmptyListIsFalse(t *testing.T) {
	s, _ := newTestSession(t)
	assert.False(t, s.AllComplete())
}
