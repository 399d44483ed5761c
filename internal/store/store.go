// Package store persists the four pantryhub collections in SQLite and
// migrates data left behind by the legacy client-side app. Each
// collection is written independently: replace-all inside a transaction,
// matching the load-everything/save-everything contract the session
// expects.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"pantryhub/internal/session"
	"pantryhub/pkg/apperr"
	"pantryhub/pkg/models"
)

type SQLiteStore struct {
	DB     *sql.DB
	logger *log.Logger
}

func New(db *sql.DB, logger *log.Logger) *SQLiteStore {
	if logger == nil {
		logger = log.Default()
	}
	return &SQLiteStore{DB: db, logger: logger}
}

func (s *SQLiteStore) LoadAll(ctx context.Context) (*session.Snapshot, error) {
	if err := s.DB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorageUnavailable, err)
	}

	recipes, err := s.loadRecipes(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.loadShoppingList(ctx)
	if err != nil {
		return nil, err
	}
	custom, err := s.loadCustomItems(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.loadHistory(ctx)
	if err != nil {
		return nil, err
	}

	return &session.Snapshot{
		Recipes:      recipes,
		ShoppingList: list,
		CustomItems:  custom,
		History:      history,
	}, nil
}

func (s *SQLiteStore) loadRecipes(ctx context.Context) ([]models.Recipe, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, ingredients_json, notes, image, note_image,
		       created_at, updated_at, cook_count, favorite
		FROM recipes
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	defer rows.Close()

	var out []models.Recipe
	for rows.Next() {
		var (
			r               models.Recipe
			ingredientsJSON string
			created, updated time.Time
		)
		if err := rows.Scan(&r.ID, &r.Name, &ingredientsJSON, &r.Notes, &r.Image,
			&r.NoteImage, &created, &updated, &r.CookCount, &r.Favorite); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		if err := json.Unmarshal([]byte(ingredientsJSON), &r.Ingredients); err != nil {
			s.logger.Printf("[store] bad ingredients for recipe %s, keeping empty: %v", r.ID, err)
			r.Ingredients = nil
		}
		if r.CookCount < 0 {
			r.CookCount = 0
		}
		r.CreatedAt = created
		r.UpdatedAt = updated
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recipes rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) loadShoppingList(ctx context.Context) (models.ShoppingList, error) {
	var list models.ShoppingList
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, quantity, is_custom, is_seasoning, completed,
		       recipe_id, recipe_name, recipe_ids_json, recipe_names_json, ts
		FROM shopping_items
		ORDER BY position
	`)
	if err != nil {
		return list, fmt.Errorf("load shopping items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it                 models.ShoppingItem
			idsJSON, namesJSON string
		)
		if err := rows.Scan(&it.ID, &it.Name, &it.Quantity, &it.IsCustom,
			&it.IsSeasoning, &it.Completed, &it.RecipeID, &it.RecipeName,
			&idsJSON, &namesJSON, &it.Timestamp); err != nil {
			return list, fmt.Errorf("scan shopping item: %w", err)
		}
		if err := json.Unmarshal([]byte(idsJSON), &it.RecipeIDs); err != nil {
			it.RecipeIDs = []string{}
		}
		if err := json.Unmarshal([]byte(namesJSON), &it.RecipeNames); err != nil {
			it.RecipeNames = []string{}
		}
		// The partition invariant is re-established on every load.
		if it.IsCustom {
			list.CustomItems = append(list.CustomItems, it)
		} else {
			list.Ingredients = append(list.Ingredients, it)
		}
	}
	if err := rows.Err(); err != nil {
		return list, fmt.Errorf("shopping rows: %w", err)
	}
	return list, nil
}

func (s *SQLiteStore) loadCustomItems(ctx context.Context) ([]models.CustomItem, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, quantity, completed, ts
		FROM custom_items
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("load custom items: %w", err)
	}
	defer rows.Close()

	var out []models.CustomItem
	for rows.Next() {
		var ci models.CustomItem
		if err := rows.Scan(&ci.ID, &ci.Name, &ci.Quantity, &ci.Completed, &ci.Timestamp); err != nil {
			return nil, fmt.Errorf("scan custom item: %w", err)
		}
		out = append(out, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("custom rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) loadHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, date, items_json, total_items, selected_recipes_json
		FROM history_entries
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var (
			e                  models.HistoryEntry
			itemsJSON, refsJSON string
		)
		if err := rows.Scan(&e.ID, &e.Date, &itemsJSON, &e.TotalItems, &refsJSON); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if err := json.Unmarshal([]byte(itemsJSON), &e.Items); err != nil {
			e.Items = nil
		}
		if err := json.Unmarshal([]byte(refsJSON), &e.SelectedRecipes); err != nil {
			e.SelectedRecipes = nil
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return out, nil
}

// replaceAll swaps the full contents of one collection table inside a
// transaction.
func (s *SQLiteStore) replaceAll(ctx context.Context, table string, insert func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", table, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err = insert(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) SaveRecipes(ctx context.Context, recipes []models.Recipe) error {
	return s.replaceAll(ctx, "recipes", func(tx *sql.Tx) error {
		for _, r := range recipes {
			ingredients, err := json.Marshal(r.Ingredients)
			if err != nil {
				return fmt.Errorf("marshal ingredients %s: %w", r.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recipes (id, name, ingredients_json, notes, image,
				                     note_image, created_at, updated_at, cook_count, favorite)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, r.ID, r.Name, string(ingredients), r.Notes, r.Image, r.NoteImage,
				r.CreatedAt, r.UpdatedAt, r.CookCount, r.Favorite); err != nil {
				return fmt.Errorf("insert recipe %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) SaveShoppingList(ctx context.Context, list models.ShoppingList) error {
	return s.replaceAll(ctx, "shopping_items", func(tx *sql.Tx) error {
		pos := 0
		for _, part := range [][]models.ShoppingItem{list.Ingredients, list.CustomItems} {
			for _, it := range part {
				ids, err := json.Marshal(orEmpty(it.RecipeIDs))
				if err != nil {
					return fmt.Errorf("marshal recipe ids %s: %w", it.ID, err)
				}
				names, err := json.Marshal(orEmpty(it.RecipeNames))
				if err != nil {
					return fmt.Errorf("marshal recipe names %s: %w", it.ID, err)
				}
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO shopping_items (id, name, quantity, is_custom, is_seasoning,
					                            completed, recipe_id, recipe_name,
					                            recipe_ids_json, recipe_names_json, ts, position)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				`, it.ID, it.Name, it.Quantity, it.IsCustom, it.IsSeasoning, it.Completed,
					it.RecipeID, it.RecipeName, string(ids), string(names), it.Timestamp, pos); err != nil {
					return fmt.Errorf("insert shopping item %s: %w", it.ID, err)
				}
				pos++
			}
		}
		return nil
	})
}

func (s *SQLiteStore) SaveCustomItems(ctx context.Context, items []models.CustomItem) error {
	return s.replaceAll(ctx, "custom_items", func(tx *sql.Tx) error {
		for i, ci := range items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO custom_items (id, name, quantity, completed, ts, position)
				VALUES (?, ?, ?, ?, ?, ?)
			`, ci.ID, ci.Name, ci.Quantity, ci.Completed, ci.Timestamp, i); err != nil {
				return fmt.Errorf("insert custom item %s: %w", ci.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) SaveHistory(ctx context.Context, entries []models.HistoryEntry) error {
	return s.replaceAll(ctx, "history_entries", func(tx *sql.Tx) error {
		for i, e := range entries {
			items, err := json.Marshal(e.Items)
			if err != nil {
				return fmt.Errorf("marshal history items %s: %w", e.ID, err)
			}
			refs, err := json.Marshal(e.SelectedRecipes)
			if err != nil {
				return fmt.Errorf("marshal history recipes %s: %w", e.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO history_entries (id, date, items_json, total_items,
				                             selected_recipes_json, position)
				VALUES (?, ?, ?, ?, ?, ?)
			`, e.ID, e.Date, string(items), e.TotalItems, string(refs), i); err != nil {
				return fmt.Errorf("insert history entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
