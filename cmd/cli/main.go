// pantryhub is the terminal client for the shared household kitchen API:
// recipes, the shopping trip, custom items and the trip archive.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"pantryhub/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

type recipeListResponse struct {
	Total int             `json:"total"`
	Items []models.Recipe `json:"items"`
}

func main() {
	global := flag.NewFlagSet("pantryhub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "recipe":
		handleRecipe(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "shopping":
		handleShopping(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "custom":
		handleCustom(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "history":
		handleHistory(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "sync":
		handleSync(sub, args[2:])
	case "watch":
		handleWatch(*baseURL, *tokenPath, args[1:])
	case "export":
		handleExport(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *email == "" || *password == "" {
			log.Fatal("email and password are required")
		}

		payload := map[string]string{"email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("✅ logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			log.Fatal("username, email, and password are required")
		}

		payload := map[string]string{"username": *username, "email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/register", "", payload, &resp); err != nil {
			log.Fatalf("register failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("✅ registered and logged in")
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("✅ logged out")
	default:
		log.Fatal("usage: pantryhub auth <login|register|logout>")
	}
}

func handleRecipe(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "list":
		fs := flag.NewFlagSet("recipe list", flag.ExitOnError)
		query := fs.String("q", "", "name filter")
		fav := fs.Bool("favorite", false, "favorites only")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/recipes")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		qv := u.Query()
		if *query != "" {
			qv.Set("q", *query)
		}
		if *fav {
			qv.Set("favorite", "true")
		}
		u.RawQuery = qv.Encode()

		var resp recipeListResponse
		if err := doJSON(ctx, client, http.MethodGet, u.String(), token, nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("recipe show", flag.ExitOnError)
		id := fs.String("id", "", "recipe id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("recipe id is required")
		}

		var resp models.Recipe
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/recipes/"+url.PathEscape(*id), token, nil, &resp); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(resp)
	case "add":
		fs := flag.NewFlagSet("recipe add", flag.ExitOnError)
		name := fs.String("name", "", "recipe name")
		// name:quantity pairs, "*" marks a seasoning: "塩:少々*"
		ingredients := fs.String("ingredients", "", "comma-separated name:quantity pairs, trailing * marks a seasoning")
		notes := fs.String("notes", "", "free-form notes")
		_ = fs.Parse(args)
		if *name == "" || *ingredients == "" {
			log.Fatal("name and ingredients are required")
		}

		payload := map[string]any{
			"name":        *name,
			"ingredients": parseIngredients(*ingredients),
			"notes":       *notes,
		}
		var resp models.Recipe
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/recipes", token, payload, &resp); err != nil {
			log.Fatalf("add failed: %v", err)
		}
		printJSON(resp)
	case "delete":
		fs := flag.NewFlagSet("recipe delete", flag.ExitOnError)
		id := fs.String("id", "", "recipe id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("recipe id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/recipes/"+url.PathEscape(*id), token, nil, &resp); err != nil {
			log.Fatalf("delete failed: %v", err)
		}
		printJSON(resp)
	case "favorite":
		fs := flag.NewFlagSet("recipe favorite", flag.ExitOnError)
		id := fs.String("id", "", "recipe id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("recipe id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/recipes/"+url.PathEscape(*id)+"/favorite", token, nil, &resp); err != nil {
			log.Fatalf("favorite failed: %v", err)
		}
		printJSON(resp)
	case "select", "deselect":
		fs := flag.NewFlagSet("recipe "+sub, flag.ExitOnError)
		id := fs.String("id", "", "recipe id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("recipe id is required")
		}

		method := http.MethodPost
		if sub == "deselect" {
			method = http.MethodDelete
		}
		var resp map[string]any
		if err := doJSON(ctx, client, method, baseURL+"/recipes/"+url.PathEscape(*id)+"/select", token, nil, &resp); err != nil {
			log.Fatalf("%s failed: %v", sub, err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: pantryhub recipe <list|show|add|delete|favorite|select|deselect>")
	}
}

func handleShopping(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "show":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/shopping", token, nil, &resp); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(resp)
	case "aggregate":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/shopping/aggregate", token, map[string]any{}, &resp); err != nil {
			log.Fatalf("aggregate failed: %v", err)
		}
		printJSON(resp)
	case "toggle":
		fs := flag.NewFlagSet("shopping toggle", flag.ExitOnError)
		id := fs.String("id", "", "item id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("item id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/shopping/items/"+url.PathEscape(*id)+"/toggle", token, nil, &resp); err != nil {
			log.Fatalf("toggle failed: %v", err)
		}
		printJSON(resp)
	case "complete":
		fs := flag.NewFlagSet("shopping complete", flag.ExitOnError)
		ids := fs.String("items", "", "comma-separated checked item ids (default: every completed item)")
		_ = fs.Parse(args)

		var itemIDs []string
		if *ids != "" {
			itemIDs = strings.Split(*ids, ",")
		} else {
			itemIDs = completedItemIDs(ctx, client, baseURL, token)
		}

		payload := map[string]any{"item_ids": itemIDs}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/shopping/complete", token, payload, &resp); err != nil {
			log.Fatalf("complete failed: %v", err)
		}
		printJSON(resp)
	case "clear":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/shopping", token, nil, &resp); err != nil {
			log.Fatalf("clear failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: pantryhub shopping <show|aggregate|toggle|complete|clear>")
	}
}

func handleCustom(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "list":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/shopping/custom", token, nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "add":
		fs := flag.NewFlagSet("custom add", flag.ExitOnError)
		name := fs.String("name", "", "item name")
		qty := fs.String("qty", "", "quantity")
		_ = fs.Parse(args)
		if *name == "" {
			log.Fatal("item name is required")
		}

		payload := map[string]string{"name": *name, "quantity": *qty}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/shopping/custom", token, payload, &resp); err != nil {
			log.Fatalf("add failed: %v", err)
		}
		printJSON(resp)
	case "delete":
		fs := flag.NewFlagSet("custom delete", flag.ExitOnError)
		id := fs.String("id", "", "item id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("item id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/shopping/custom/"+url.PathEscape(*id), token, nil, &resp); err != nil {
			log.Fatalf("delete failed: %v", err)
		}
		printJSON(resp)
	case "to-list":
		fs := flag.NewFlagSet("custom to-list", flag.ExitOnError)
		id := fs.String("id", "", "item id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("item id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/shopping/custom/"+url.PathEscape(*id)+"/add", token, nil, &resp); err != nil {
			log.Fatalf("to-list failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: pantryhub custom <list|add|delete|to-list>")
	}
}

func handleHistory(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "list":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/history", token, nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("history show", flag.ExitOnError)
		id := fs.String("id", "", "entry id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("entry id is required")
		}

		var resp models.HistoryEntry
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/history/"+url.PathEscape(*id), token, nil, &resp); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(resp)
	case "delete":
		fs := flag.NewFlagSet("history delete", flag.ExitOnError)
		id := fs.String("id", "", "entry id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("entry id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/history/"+url.PathEscape(*id), token, nil, &resp); err != nil {
			log.Fatalf("delete failed: %v", err)
		}
		printJSON(resp)
	case "clear":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/history", token, nil, &resp); err != nil {
			log.Fatalf("clear failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: pantryhub history <list|show|delete|clear>")
	}
}

func handleSync(sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("sync listen", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP sync server address")
		pretty := fs.Bool("pretty", true, "pretty print JSON events")
		_ = fs.Parse(args)
		for {
			if err := runSyncTCP(*addr, *pretty); err != nil {
				log.Printf("[sync] disconnected: %v", err)
			}
			time.Sleep(1 * time.Second)
		}
	default:
		log.Fatal("usage: pantryhub sync listen")
	}
}

func handleWatch(baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
	_ = fs.Parse(args)

	token := mustToken(tokenPath)
	endpoint := *wsURL
	if endpoint == "" {
		var err error
		endpoint, err = websocketURL(baseURL, "/ws", token)
		if err != nil {
			log.Fatalf("ws url: %v", err)
		}
	}
	if err := runWebSocket(endpoint); err != nil {
		log.Fatalf("watch failed: %v", err)
	}
}

func handleExport(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "json":
		fs := flag.NewFlagSet("export json", flag.ExitOnError)
		out := fs.String("out", "data/recipes.json", "output JSON path")
		_ = fs.Parse(args)

		items, err := fetchRecipes(ctx, client, baseURL, token)
		if err != nil {
			log.Fatalf("export json failed: %v", err)
		}
		if err := writeJSON(*out, items); err != nil {
			log.Fatalf("write json failed: %v", err)
		}
		log.Printf("✅ exported %d recipes to %s", len(items), *out)
	case "csv":
		fs := flag.NewFlagSet("export csv", flag.ExitOnError)
		out := fs.String("out", "data/recipes.csv", "output CSV path")
		_ = fs.Parse(args)

		items, err := fetchRecipes(ctx, client, baseURL, token)
		if err != nil {
			log.Fatalf("export csv failed: %v", err)
		}
		if err := writeCSV(*out, items); err != nil {
			log.Fatalf("write csv failed: %v", err)
		}
		log.Printf("✅ exported %d recipes to %s", len(items), *out)
	default:
		log.Fatal("usage: pantryhub export <json|csv>")
	}
}

// parseIngredients turns "玉ねぎ:1,塩:少々*" into ingredient objects; a
// trailing * marks a seasoning.
func parseIngredients(s string) []map[string]string {
	var out []map[string]string
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		typ := ""
		if strings.HasSuffix(pair, "*") {
			typ = "seasoning"
			pair = strings.TrimSuffix(pair, "*")
		}
		name, qty, _ := strings.Cut(pair, ":")
		ing := map[string]string{"name": strings.TrimSpace(name), "quantity": strings.TrimSpace(qty)}
		if typ != "" {
			ing["type"] = typ
		}
		out = append(out, ing)
	}
	return out
}

// completedItemIDs fetches the current list and returns the ids of every
// checked item, the default checked set for shopping complete.
func completedItemIDs(ctx context.Context, client *http.Client, baseURL, token string) []string {
	var resp struct {
		List models.ShoppingList `json:"list"`
	}
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/shopping", token, nil, &resp); err != nil {
		log.Fatalf("fetch list failed: %v", err)
	}
	var ids []string
	for _, part := range [][]models.ShoppingItem{resp.List.Ingredients, resp.List.CustomItems} {
		for _, it := range part {
			if it.Completed {
				ids = append(ids, it.ID)
			}
		}
	}
	return ids
}

func runSyncTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[sync] connected to %s", addr)
	reader := bufio.NewScanner(conn)
	reader.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for reader.Scan() {
		line := reader.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[watch] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

func fetchRecipes(ctx context.Context, client *http.Client, baseURL, token string) ([]models.Recipe, error) {
	var resp recipeListResponse
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/recipes", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func writeJSON(path string, items []models.Recipe) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeCSV(path string, items []models.Recipe) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{
		"id", "name", "ingredients", "notes", "cook_count", "favorite", "created_at",
	}); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write([]string{
			item.ID,
			item.Name,
			joinIngredients(item.Ingredients),
			item.Notes,
			fmt.Sprintf("%d", item.CookCount),
			fmt.Sprintf("%t", item.Favorite),
			item.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func joinIngredients(ingredients []models.Ingredient) string {
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

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	return nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.pantryhub-token.json"
	}
	return filepath.Join(home, ".pantryhub", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if token == "" {
		log.Fatal("token empty, please login")
	}
	return token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	out := &url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}
	if token != "" {
		qv := out.Query()
		qv.Set("token", token)
		out.RawQuery = qv.Encode()
	}
	return out.String(), nil
}

func printUsage() {
	fmt.Println("pantryhub <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  recipe list|show|add|delete|favorite|select|deselect")
	fmt.Println("  shopping show|aggregate|toggle|complete|clear")
	fmt.Println("  custom list|add|delete|to-list")
	fmt.Println("  history list|show|delete|clear")
	fmt.Println("  sync listen")
	fmt.Println("  watch")
	fmt.Println("  export json|csv")
}
