// import-csv loads recipes from a CSV produced by export-csv (or edited
// in a spreadsheet) into the database, upserting by id.
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"pantryhub/pkg/database"
	"pantryhub/pkg/models"
)

func main() {
	recipesIn := flag.String("recipes", "data/recipes.csv", "input CSV path for recipes")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	n, err := importRecipes(ctx, db, *recipesIn)
	if err != nil {
		log.Fatalf("import recipes failed: %v", err)
	}

	log.Printf("✅ imported %d recipes from %s", n, *recipesIn)
}

func importRecipes(ctx context.Context, db *sql.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return 0, err
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO recipes (id, name, ingredients_json, notes, created_at, updated_at, cook_count, favorite)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  ingredients_json = excluded.ingredients_json,
		  notes = excluded.notes,
		  updated_at = excluded.updated_at,
		  cook_count = excluded.cook_count,
		  favorite = excluded.favorite
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		if len(row) == 0 {
			continue
		}

		name := valueAt(header, row, "name")
		if name == "" {
			continue
		}
		id := valueAt(header, row, "id")
		if id == "" {
			id = uuid.NewString()
		}

		ingredients, err := json.Marshal(parseIngredients(valueAt(header, row, "ingredients")))
		if err != nil {
			return count, err
		}

		cookCount, _ := strconv.Atoi(valueAt(header, row, "cook_count"))
		if cookCount < 0 {
			cookCount = 0
		}
		favorite := valueAt(header, row, "favorite") == "true"

		createdAt := parseTimeOr(valueAt(header, row, "created_at"), time.Now().UTC())
		updatedAt := parseTimeOr(valueAt(header, row, "updated_at"), createdAt)

		if _, err := stmt.ExecContext(
			ctx,
			id,
			name,
			string(ingredients),
			valueAt(header, row, "notes"),
			createdAt,
			updatedAt,
			cookCount,
			favorite,
		); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// parseIngredients reads the "name:qty;name:qty*" encoding written by
// export-csv; a trailing * marks a seasoning.
func parseIngredients(s string) []models.Ingredient {
	out := []models.Ingredient{}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		typ := models.IngredientTypePlain
		if strings.HasSuffix(part, "*") {
			typ = models.IngredientTypeSeasoning
			part = strings.TrimSuffix(part, "*")
		}
		name, qty, _ := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, models.Ingredient{
			Name:     name,
			Quantity: strings.TrimSpace(qty),
			Type:     typ,
		})
	}
	return out
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseTimeOr(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback
	}
	return t
}
