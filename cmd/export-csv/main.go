// export-csv dumps the recipe box and the trip archive straight from the
// database, for spreadsheets and offline backups.
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pantryhub/pkg/database"
	"pantryhub/pkg/models"
)

func main() {
	var (
		recipesOut = flag.String("recipes", "data/recipes.csv", "output CSV path for recipes")
		historyOut = flag.String("history", "data/history.csv", "output CSV path for shopping history")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportRecipes(ctx, db, *recipesOut); err != nil {
		log.Fatalf("export recipes failed: %v", err)
	}
	if err := exportHistory(ctx, db, *historyOut); err != nil {
		log.Fatalf("export history failed: %v", err)
	}

	log.Printf("✅ exported recipes to %s and history to %s", *recipesOut, *historyOut)
}

func exportRecipes(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "name", "ingredients", "notes", "cook_count", "favorite", "created_at", "updated_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, name, ingredients_json, notes, cook_count, favorite, created_at, updated_at
        FROM recipes
        ORDER BY created_at
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, name, ingredientsJSON, notes string
			cookCount                        int
			favorite                         bool
			createdAt, updatedAt             time.Time
		)
		if err := rows.Scan(&id, &name, &ingredientsJSON, &notes, &cookCount, &favorite, &createdAt, &updatedAt); err != nil {
			return err
		}

		if err := w.Write([]string{
			id,
			name,
			flattenIngredients(ingredientsJSON),
			notes,
			strconv.Itoa(cookCount),
			strconv.FormatBool(favorite),
			createdAt.Format(time.RFC3339),
			updatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportHistory(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "date", "total_items", "recipes", "items"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, date, total_items, selected_recipes_json, items_json
        FROM history_entries
        ORDER BY position
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, date, refsJSON, itemsJSON string
			totalItems                    int
		)
		if err := rows.Scan(&id, &date, &totalItems, &refsJSON, &itemsJSON); err != nil {
			return err
		}

		var refs []models.RecipeRef
		_ = json.Unmarshal([]byte(refsJSON), &refs)
		names := make([]string, 0, len(refs))
		for _, r := range refs {
			names = append(names, r.Name)
		}

		var items []models.HistoryItem
		_ = json.Unmarshal([]byte(itemsJSON), &items)
		lines := make([]string, 0, len(items))
		for _, it := range items {
			lines = append(lines, it.Name+":"+it.Quantity)
		}

		if err := w.Write([]string{
			id,
			date,
			strconv.Itoa(totalItems),
			strings.Join(names, ";"),
			strings.Join(lines, ";"),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

// flattenIngredients renders the JSON column as "name:qty;..." with a
// trailing * on seasonings, the same encoding import-csv reads back.
func flattenIngredients(raw string) string {
	var ingredients []models.Ingredient
	if err := json.Unmarshal([]byte(raw), &ingredients); err != nil {
		return ""
	}
	parts := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		p := ing.Name + ":" + ing.Quantity
		if ing.Type == models.IngredientTypeSeasoning {
			p += "*"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ";")
}
