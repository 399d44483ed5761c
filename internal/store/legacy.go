package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"pantryhub/internal/normalize"
	"pantryhub/pkg/models"
)

// The old client kept everything in four flat JSON documents named after
// its storage keys. MigrateLegacy imports them once, then marks the
// database so the import never reruns.
const legacyMigratedKey = "legacy_migrated"

var legacyFiles = []string{
	"recipes.json",
	"shoppingList.json",
	"shoppingHistory.json",
	"customItems.json",
}

// MigrateLegacy imports legacy JSON exports from dataDir into SQLite.
// A no-op when the marker is already set or no legacy files exist. The
// source files are deleted only after every collection is written; a
// failure part-way leaves the files and the marker untouched so the next
// start retries.
func (s *SQLiteStore) MigrateLegacy(ctx context.Context, dataDir string) error {
	done, err := s.metaValue(ctx, legacyMigratedKey)
	if err != nil {
		return err
	}
	if done != "" {
		return nil
	}

	found := false
	for _, name := range legacyFiles {
		if _, err := os.Stat(filepath.Join(dataDir, name)); err == nil {
			found = true
			break
		}
	}
	if !found {
		// Fresh install, nothing to import.
		return s.setMetaValue(ctx, legacyMigratedKey, time.Now().UTC().Format(time.RFC3339))
	}

	s.logger.Printf("[store] importing legacy data from %s", dataDir)

	recipes, err := loadLegacyRecipes(filepath.Join(dataDir, "recipes.json"))
	if err != nil {
		return fmt.Errorf("legacy recipes: %w", err)
	}
	list, err := loadLegacyShoppingList(filepath.Join(dataDir, "shoppingList.json"))
	if err != nil {
		return fmt.Errorf("legacy shopping list: %w", err)
	}
	history, err := loadLegacyHistory(filepath.Join(dataDir, "shoppingHistory.json"))
	if err != nil {
		return fmt.Errorf("legacy history: %w", err)
	}
	custom, err := loadLegacyCustomItems(filepath.Join(dataDir, "customItems.json"))
	if err != nil {
		return fmt.Errorf("legacy custom items: %w", err)
	}

	if err := s.SaveRecipes(ctx, recipes); err != nil {
		return err
	}
	if err := s.SaveShoppingList(ctx, list); err != nil {
		return err
	}
	if err := s.SaveHistory(ctx, history); err != nil {
		return err
	}
	if err := s.SaveCustomItems(ctx, custom); err != nil {
		return err
	}

	for _, name := range legacyFiles {
		path := filepath.Join(dataDir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Printf("[store] could not remove %s: %v", path, err)
		}
	}

	s.logger.Printf("[store] legacy import done: %d recipes, %d list items, %d history entries, %d custom items",
		len(recipes), list.Len(), len(history), len(custom))
	return s.setMetaValue(ctx, legacyMigratedKey, time.Now().UTC().Format(time.RFC3339))
}

func (s *SQLiteStore) metaValue(ctx context.Context, key string) (string, error) {
	var v string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM app_meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read app_meta %s: %w", key, err)
	}
	return v, nil
}

func (s *SQLiteStore) setMetaValue(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO app_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("write app_meta %s: %w", key, err)
	}
	return nil
}

// ---- tolerant decoding of the legacy shapes -------------------------------

// legacyString accepts a JSON string, number, or bool and keeps it as text.
// The old app never validated what it stored.
type legacyString string

func (l *legacyString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = legacyString(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*l = legacyString(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*l = legacyString(strconv.FormatBool(v))
		return nil
	}
	return fmt.Errorf("unsupported value %s", string(b))
}

// legacyTime accepts epoch milliseconds or an RFC3339 string.
type legacyTime struct {
	t time.Time
}

func (l *legacyTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err == nil {
		l.t = time.UnixMilli(int64(ms)).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil // unparseable dates fall back to the import time
	}
	l.t = parsed
	return nil
}

func (l legacyTime) or(fallback time.Time) time.Time {
	if l.t.IsZero() {
		return fallback
	}
	return l.t
}

// legacyInt accepts a number (possibly fractional) or a numeric string.
type legacyInt int

func (l *legacyInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*l = legacyInt(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*l = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*l = 0
		return nil
	}
	*l = legacyInt(n)
	return nil
}

type legacyIngredient struct {
	Name     legacyString `json:"name"`
	Quantity legacyString `json:"quantity"`
	Type     string       `json:"type"`
}

type legacyRecipe struct {
	ID          legacyString       `json:"id"`
	Name        legacyString       `json:"name"`
	Ingredients []legacyIngredient `json:"ingredients"`
	Notes       legacyString       `json:"notes"`
	Image       string             `json:"image"`
	NoteImage   string             `json:"noteImage"`
	CreatedAt   legacyTime         `json:"createdAt"`
	UpdatedAt   legacyTime         `json:"updatedAt"`
	CookCount   legacyInt          `json:"cookCount"`
	Favorite    bool               `json:"favorite"`
}

func readLegacyFile(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func loadLegacyRecipes(path string) ([]models.Recipe, error) {
	var raw []json.RawMessage
	ok, err := readLegacyFile(path, &raw)
	if err != nil || !ok {
		return nil, err
	}

	now := time.Now().UTC()
	var out []models.Recipe
	for _, msg := range raw {
		var lr legacyRecipe
		if err := json.Unmarshal(msg, &lr); err != nil {
			continue // a corrupt row does not poison the import
		}
		name := strings.TrimSpace(string(lr.Name))
		if name == "" {
			continue
		}
		r := models.Recipe{
			ID:        legacyID(string(lr.ID)),
			Name:      name,
			Notes:     string(lr.Notes),
			Image:     lr.Image,
			NoteImage: lr.NoteImage,
			CreatedAt: lr.CreatedAt.or(now),
			UpdatedAt: lr.UpdatedAt.or(lr.CreatedAt.or(now)),
			CookCount: int(lr.CookCount),
			Favorite:  lr.Favorite,
		}
		if r.CookCount < 0 {
			r.CookCount = 0
		}
		for _, li := range lr.Ingredients {
			n := strings.TrimSpace(string(li.Name))
			if n == "" {
				continue
			}
			typ := models.IngredientTypePlain
			if li.Type == models.IngredientTypeSeasoning {
				typ = models.IngredientTypeSeasoning
			}
			r.Ingredients = append(r.Ingredients, models.Ingredient{
				Name:     n,
				Quantity: strings.TrimSpace(string(li.Quantity)),
				Type:     typ,
			})
		}
		out = append(out, r)
	}
	return out, nil
}

type legacyShoppingItem struct {
	ID          legacyString   `json:"id"`
	Name        legacyString   `json:"name"`
	Quantity    legacyString   `json:"quantity"`
	IsCustom    bool           `json:"isCustom"`
	IsSeasoning *bool          `json:"isSeasoning"`
	Completed   bool           `json:"completed"`
	RecipeID    legacyString   `json:"recipeId"`
	RecipeName  legacyString   `json:"recipeName"`
	RecipeIDs   []legacyString `json:"recipeIds"`
	RecipeNames []string       `json:"recipeNames"`
	Timestamp   legacyTime     `json:"timestamp"`
}

// loadLegacyShoppingList accepts either the final flat-array shape or the
// older object shape whose values are items or arrays of items.
func loadLegacyShoppingList(path string) (models.ShoppingList, error) {
	var list models.ShoppingList

	var raw json.RawMessage
	ok, err := readLegacyFile(path, &raw)
	if err != nil || !ok {
		return list, err
	}

	rows, err := flattenLegacyRows(raw)
	if err != nil {
		return list, err
	}

	now := time.Now().UTC()
	for _, msg := range rows {
		var li legacyShoppingItem
		if err := json.Unmarshal(msg, &li); err != nil {
			continue
		}
		name := strings.TrimSpace(string(li.Name))
		if name == "" {
			continue
		}
		it := models.ShoppingItem{
			ID:         legacyID(string(li.ID)),
			Name:       name,
			Quantity:   strings.TrimSpace(string(li.Quantity)),
			IsCustom:   li.IsCustom,
			Completed:  li.Completed,
			RecipeID:   string(li.RecipeID),
			RecipeName: string(li.RecipeName),
			RecipeIDs:  []string{},
			Timestamp:  li.Timestamp.or(now).UnixMilli(),
		}
		it.IsSeasoning = normalize.Classify(name, li.IsSeasoning)
		for _, id := range li.RecipeIDs {
			it.RecipeIDs = append(it.RecipeIDs, string(id))
		}
		if it.RecipeNames = li.RecipeNames; it.RecipeNames == nil {
			it.RecipeNames = []string{}
		}
		if it.IsCustom {
			list.CustomItems = append(list.CustomItems, it)
		} else {
			list.Ingredients = append(list.Ingredients, it)
		}
	}
	return list, nil
}

// flattenLegacyRows turns either a JSON array or a JSON object into the
// list of element documents. Object values that are themselves arrays get
// flattened one level, matching the grouped shape the oldest exports used.
func flattenLegacyRows(raw json.RawMessage) ([]json.RawMessage, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return compactRows(arr), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("neither array nor object: %w", err)
	}
	var out []json.RawMessage
	for _, v := range obj {
		var nested []json.RawMessage
		if err := json.Unmarshal(v, &nested); err == nil {
			out = append(out, compactRows(nested)...)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// compactRows drops nulls and non-object entries.
func compactRows(rows []json.RawMessage) []json.RawMessage {
	out := rows[:0]
	for _, r := range rows {
		t := strings.TrimSpace(string(r))
		if !strings.HasPrefix(t, "{") {
			continue
		}
		out = append(out, r)
	}
	return out
}

type legacyHistoryItem struct {
	ID          legacyString `json:"id"`
	Name        legacyString `json:"name"`
	Quantity    legacyString `json:"quantity"`
	Unit        string       `json:"unit"`
	RecipeName  legacyString `json:"recipeName"`
	IsCustom    bool         `json:"isCustom"`
	IsSeasoning *bool        `json:"isSeasoning"`
}

type legacyHistoryEntry struct {
	ID              legacyString        `json:"id"`
	Date            legacyString        `json:"date"`
	Items           []legacyHistoryItem `json:"items"`
	TotalItems      legacyInt           `json:"totalItems"`
	SelectedRecipes []models.RecipeRef  `json:"selectedRecipes"`
	// The oldest exports only kept recipe names.
	Recipes []string `json:"recipes"`
}

func loadLegacyHistory(path string) ([]models.HistoryEntry, error) {
	var raw []json.RawMessage
	ok, err := readLegacyFile(path, &raw)
	if err != nil || !ok {
		return nil, err
	}

	var out []models.HistoryEntry
	for _, msg := range raw {
		var le legacyHistoryEntry
		if err := json.Unmarshal(msg, &le); err != nil {
			continue
		}
		e := models.HistoryEntry{
			ID:              legacyID(string(le.ID)),
			Date:            string(le.Date),
			TotalItems:      int(le.TotalItems),
			SelectedRecipes: le.SelectedRecipes,
		}
		if e.Date == "" {
			e.Date = time.Now().UTC().Format(time.RFC3339)
		}
		if e.SelectedRecipes == nil {
			for _, name := range le.Recipes {
				e.SelectedRecipes = append(e.SelectedRecipes, models.RecipeRef{Name: name})
			}
		}
		for _, li := range le.Items {
			name := strings.TrimSpace(string(li.Name))
			if name == "" {
				continue
			}
			e.Items = append(e.Items, models.HistoryItem{
				ID:          legacyID(string(li.ID)),
				Name:        name,
				Quantity:    string(li.Quantity),
				Unit:        li.Unit,
				RecipeName:  string(li.RecipeName),
				IsCustom:    li.IsCustom,
				IsSeasoning: normalize.Classify(name, li.IsSeasoning),
			})
		}
		if e.TotalItems <= 0 {
			e.TotalItems = len(e.Items)
		}
		out = append(out, e)
		if len(out) == models.MaxHistoryEntries {
			break
		}
	}
	return out, nil
}

type legacyCustomItem struct {
	ID        legacyString `json:"id"`
	Name      legacyString `json:"name"`
	Quantity  legacyString `json:"quantity"`
	Completed bool         `json:"completed"`
	Timestamp legacyTime   `json:"timestamp"`
}

// customItemsDoc covers both shapes: a plain array, or an object holding
// the current list under "items" plus an older "data" list kept around by
// one of the legacy versions. Items win over data when ids collide.
type customItemsDoc struct {
	Items []legacyCustomItem `json:"items"`
	Data  []legacyCustomItem `json:"data"`
}

func loadLegacyCustomItems(path string) ([]models.CustomItem, error) {
	var raw json.RawMessage
	ok, err := readLegacyFile(path, &raw)
	if err != nil || !ok {
		return nil, err
	}

	var rows []legacyCustomItem
	var arr []legacyCustomItem
	if err := json.Unmarshal(raw, &arr); err == nil {
		rows = arr
	} else {
		var doc customItemsDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode custom items: %w", err)
		}
		rows = append(rows, doc.Items...)
		seen := make(map[string]bool, len(doc.Items))
		for _, it := range doc.Items {
			seen[string(it.ID)] = true
		}
		for _, it := range doc.Data {
			if !seen[string(it.ID)] {
				rows = append(rows, it)
			}
		}
	}

	now := time.Now().UTC()
	var out []models.CustomItem
	for _, li := range rows {
		name := strings.TrimSpace(string(li.Name))
		if name == "" {
			continue
		}
		out = append(out, models.CustomItem{
			ID:        legacyID(string(li.ID)),
			Name:      name,
			Quantity:  strings.TrimSpace(string(li.Quantity)),
			Completed: li.Completed,
			Timestamp: li.Timestamp.or(now).UnixMilli(),
		})
	}
	return out, nil
}

func legacyID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return uuid.NewString()
	}
	return id
}
