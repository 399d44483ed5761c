package shopping

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantryhub/internal/session"
	"pantryhub/internal/sync"
	"pantryhub/pkg/models"
)

type nopStore struct{}

func (nopStore) LoadAll(context.Context) (*session.Snapshot, error)          { return &session.Snapshot{}, nil }
func (nopStore) SaveRecipes(context.Context, []models.Recipe) error          { return nil }
func (nopStore) SaveShoppingList(context.Context, models.ShoppingList) error { return nil }
func (nopStore) SaveCustomItems(context.Context, []models.CustomItem) error  { return nil }
func (nopStore) SaveHistory(context.Context, []models.HistoryEntry) error    { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *session.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sess := session.New(nopStore{}, log.New(io.Discard, "", 0))
	router := gin.New()
	NewHandler(sess, sync.NewHub()).RegisterRoutes(router.Group("/shopping"))
	return router, sess
}

func doReq(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedRecipe(t *testing.T, sess *session.Session, name string, ings ...models.Ingredient) models.Recipe {
	t.Helper()
	r, err := sess.AddRecipe(context.Background(), session.RecipeInput{Name: name, Ingredients: ings})
	require.NoError(t, err)
	require.NoError(t, sess.SelectRecipe(r.ID))
	return r
}

func TestAggregateEndpoint(t *testing.T) {
	router, sess := newTestRouter(t)
	seedRecipe(t, sess, "カレー", models.Ingredient{Name: "玉ねぎ", Quantity: "1"})

	w := doReq(router, http.MethodPost, "/shopping/aggregate", "{}")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Added bool `json:"added"`
		List  struct {
			Ingredients []models.ShoppingItem `json:"ingredients"`
		} `json:"list"`
		TripRecipes []models.RecipeRef `json:"trip_recipes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Added)
	require.Len(t, resp.List.Ingredients, 1)
	assert.Equal(t, "玉ねぎ", resp.List.Ingredients[0].Name)
	require.Len(t, resp.TripRecipes, 1)
}

func TestCompleteEndpoint(t *testing.T) {
	router, sess := newTestRouter(t)
	r := seedRecipe(t, sess, "スープ", models.Ingredient{Name: "にんじん", Quantity: "2"})
	require.True(t, sess.AddSelectedToShopping(context.Background()))

	id := sess.ShoppingList().Ingredients[0].ID
	w := doReq(router, http.MethodPost, "/shopping/complete", `{"item_ids":["`+id+`"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Entry models.HistoryEntry `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Entry.TotalItems)
	require.Len(t, resp.Entry.SelectedRecipes, 1)
	assert.Equal(t, r.ID, resp.Entry.SelectedRecipes[0].ID)

	got, err := sess.GetRecipe(r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CookCount)
}

func TestCompleteEndpoint_EmptyChecked(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doReq(router, http.MethodPost, "/shopping/complete", `{"item_ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleEndpoint_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doReq(router, http.MethodPost, "/shopping/items/item-0-missing/toggle", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomEndpoints(t *testing.T) {
	router, sess := newTestRouter(t)

	w := doReq(router, http.MethodPost, "/shopping/custom", `{"name":"ラップ","quantity":"1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.CustomItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "ラップ", created.Name)

	// Duplicate name is a validation failure.
	w = doReq(router, http.MethodPost, "/shopping/custom", `{"name":" ラップ ","quantity":"2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Onto the trip and back off.
	w = doReq(router, http.MethodPost, "/shopping/custom/"+created.ID+"/add", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sess.ShoppingList().CustomItems, 1)

	w = doReq(router, http.MethodDelete, "/shopping/custom/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sess.CustomItems())
	assert.Empty(t, sess.ShoppingList().CustomItems)
}

func TestClearEndpoint(t *testing.T) {
	router, sess := newTestRouter(t)
	seedRecipe(t, sess, "鍋", models.Ingredient{Name: "白菜", Quantity: "1"})
	require.True(t, sess.AddSelectedToShopping(context.Background()))

	w := doReq(router, http.MethodDelete, "/shopping", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, sess.ShoppingList().Len())
	assert.Empty(t, sess.TripRecipes())
}
