// Package recipes exposes the recipe collection and the live selection
// over HTTP. All state changes go through the shared session.
package recipes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pantryhub/internal/auth"
	"pantryhub/internal/session"
	"pantryhub/internal/sync"
	"pantryhub/pkg/apperr"
	"pantryhub/pkg/models"
)

type Handler struct {
	Session *session.Session
	Hub     *sync.Hub
}

func NewHandler(s *session.Session, hub *sync.Hub) *Handler {
	return &Handler{Session: s, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)       // GET /recipes
	rg.POST("", h.create)    // POST /recipes
	rg.GET("/selected", h.selected)
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.delete)
	rg.POST("/:id/favorite", h.toggleFavorite)
	rg.POST("/:id/select", h.selectRecipe)
	rg.DELETE("/:id/select", h.deselectRecipe)
}

type recipeReq struct {
	Name        string              `json:"name"`
	Ingredients []models.Ingredient `json:"ingredients"`
	Notes       string              `json:"notes"`
	Image       string              `json:"image"`
	NoteImage   string              `json:"note_image"`
}

func (r recipeReq) input() session.RecipeInput {
	return session.RecipeInput{
		Name:        r.Name,
		Ingredients: r.Ingredients,
		Notes:       r.Notes,
		Image:       r.Image,
		NoteImage:   r.NoteImage,
	}
}

func (h *Handler) list(c *gin.Context) {
	all := h.Session.Recipes()

	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	favOnly := c.Query("favorite") == "true"

	items := make([]models.Recipe, 0, len(all))
	for _, r := range all {
		if favOnly && !r.Favorite {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) {
			continue
		}
		items = append(items, r)
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) get(c *gin.Context) {
	r, err := h.Session.GetRecipe(c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) create(c *gin.Context) {
	var req recipeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	r, err := h.Session.AddRecipe(c.Request.Context(), req.input())
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.Hub.Broadcast(sync.RecipeUpdated(actor(c), r))
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) update(c *gin.Context) {
	var req recipeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	r, err := h.Session.UpdateRecipe(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.Hub.Broadcast(sync.RecipeUpdated(actor(c), r))
	c.JSON(http.StatusOK, r)
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.Session.DeleteRecipe(c.Request.Context(), id); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.Hub.Broadcast(sync.RecipeDeleted(actor(c), id))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) toggleFavorite(c *gin.Context) {
	id := c.Param("id")
	fav, err := h.Session.ToggleFavorite(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	if r, err := h.Session.GetRecipe(id); err == nil {
		h.Hub.Broadcast(sync.RecipeUpdated(actor(c), r))
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "favorite": fav})
}

func (h *Handler) selectRecipe(c *gin.Context) {
	if err := h.Session.SelectRecipe(c.Param("id")); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": h.Session.SelectedRecipeIDs()})
}

func (h *Handler) deselectRecipe(c *gin.Context) {
	h.Session.DeselectRecipe(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"selected": h.Session.SelectedRecipeIDs()})
}

func (h *Handler) selected(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"selected": h.Session.SelectedRecipeIDs()})
}

func actor(c *gin.Context) string {
	if claims := auth.MustGetClaims(c); claims != nil {
		return claims.Username
	}
	return ""
}
