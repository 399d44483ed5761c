package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	stdsync "sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"pantryhub/internal/auth"
	"pantryhub/internal/history"
	"pantryhub/internal/recipes"
	"pantryhub/internal/session"
	"pantryhub/internal/shopping"
	"pantryhub/internal/store"
	synchub "pantryhub/internal/sync"
	"pantryhub/pkg/database"
	"pantryhub/pkg/utils"
)

func main() {
	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	st := store.New(db, log.Default())
	if err := st.MigrateLegacy(startCtx, cfg.DataDir()); err != nil {
		log.Fatalf("legacy import failed: %v", err)
	}

	sess := session.New(st, log.Default())
	if err := sess.Load(startCtx); err != nil {
		log.Fatalf("session load failed: %v", err)
	}

	router := gin.Default()

	// Optional: avoid “trusted all proxies” warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Start TCP sync first (so you notice binding errors early)
	hub := synchub.NewHub()
	router.GET("/ws", auth.AuthMiddleware(tokenSvc, authRepo), synchub.WSHandler(hub))
	tcpSrv := synchub.NewServer(":7070", hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		stats := hub.Stats()
		list := sess.ShoppingList()
		c.JSON(http.StatusOK, gin.H{
			"db":           cfg.Path,
			"tcp_clients":  stats.TCPClients,
			"ws_clients":   stats.WSClients,
			"recipes":      len(sess.Recipes()),
			"list_items":   list.Len(),
			"custom_items": len(sess.CustomItems()),
			"history":      len(sess.History()),
		})
	})

	// The shared household collections sit behind auth.
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	recipes.NewHandler(sess, hub).RegisterRoutes(protected.Group("/recipes"))
	shopping.NewHandler(sess, hub).RegisterRoutes(protected.Group("/shopping"))
	history.NewHandler(sess, hub).RegisterRoutes(protected.Group("/history"))

	httpSrv := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg stdsync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("HTTP API server listening on :8080")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
