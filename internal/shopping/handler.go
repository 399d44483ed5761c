// Package shopping exposes the active trip, the custom item pantry and
// the completion flow over HTTP.
package shopping

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pantryhub/internal/auth"
	"pantryhub/internal/session"
	"pantryhub/internal/sync"
	"pantryhub/pkg/apperr"
)

type Handler struct {
	Session *session.Session
	Hub     *sync.Hub
}

func NewHandler(s *session.Session, hub *sync.Hub) *Handler {
	return &Handler{Session: s, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.DELETE("", h.clear)
	rg.POST("/aggregate", h.aggregate)
	rg.POST("/complete", h.complete)
	rg.POST("/items/:id/toggle", h.toggleItem)
	rg.DELETE("/items/:id", h.deleteItem)

	rg.GET("/custom", h.listCustom)
	rg.POST("/custom", h.createCustom)
	rg.DELETE("/custom/:id", h.deleteCustom)
	rg.POST("/custom/:id/add", h.addCustomToList)
}

func (h *Handler) list(c *gin.Context) {
	list := h.Session.ShoppingList()
	c.JSON(http.StatusOK, gin.H{
		"list":         list,
		"total":        list.Len(),
		"trip_recipes": h.Session.TripRecipes(),
		"all_complete": h.Session.AllComplete(),
	})
}

// aggregate rebuilds the recipe partition from the selected recipes.
// Custom items on the trip are left alone.
func (h *Handler) aggregate(c *gin.Context) {
	added := h.Session.AddSelectedToShopping(c.Request.Context())
	list := h.Session.ShoppingList()

	if added {
		h.Hub.Broadcast(sync.ListUpdated(actor(c), list))
	}
	c.JSON(http.StatusOK, gin.H{
		"added":        added,
		"list":         list,
		"trip_recipes": h.Session.TripRecipes(),
	})
}

func (h *Handler) toggleItem(c *gin.Context) {
	item, err := h.Session.ToggleItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.Hub.Broadcast(sync.ListUpdated(actor(c), h.Session.ShoppingList()))
	c.JSON(http.StatusOK, gin.H{
		"item":         item,
		"all_complete": h.Session.AllComplete(),
	})
}

func (h *Handler) deleteItem(c *gin.Context) {
	if err := h.Session.DeleteShoppingItem(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.Hub.Broadcast(sync.ListUpdated(actor(c), h.Session.ShoppingList()))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) clear(c *gin.Context) {
	h.Session.ClearShoppingList(c.Request.Context())

	h.Hub.Broadcast(sync.ListUpdated(actor(c), h.Session.ShoppingList()))
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

type completeReq struct {
	// The checked set as the client saw it; the session skips ids that
	// disappeared in the meantime.
	ItemIDs []string `json:"item_ids"`
}

func (h *Handler) complete(c *gin.Context) {
	var req completeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	entry, err := h.Session.CompleteShopping(c.Request.Context(), req.ItemIDs)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	if entry == nil {
		// Another device's completion is already in flight.
		c.JSON(http.StatusConflict, gin.H{"error": "completion already in progress"})
		return
	}

	h.Hub.Broadcast(sync.ListCompleted(actor(c), *entry, h.Session.ShoppingList()))
	c.JSON(http.StatusOK, gin.H{
		"entry": entry,
		"list":  h.Session.ShoppingList(),
	})
}

func (h *Handler) listCustom(c *gin.Context) {
	items := h.Session.CustomItems()
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

type customReq struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

func (h *Handler) createCustom(c *gin.Context) {
	var req customReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	item, err := h.Session.AddCustomItem(c.Request.Context(), req.Name, req.Quantity)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.Hub.Broadcast(sync.CustomUpdated(actor(c), h.Session.CustomItems()))
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) deleteCustom(c *gin.Context) {
	if err := h.Session.DeleteCustomItem(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.Hub.Broadcast(sync.CustomUpdated(actor(c), h.Session.CustomItems()))
	h.Hub.Broadcast(sync.ListUpdated(actor(c), h.Session.ShoppingList()))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) addCustomToList(c *gin.Context) {
	item, err := h.Session.AddCustomItemToList(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.Hub.Broadcast(sync.ListUpdated(actor(c), h.Session.ShoppingList()))
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func actor(c *gin.Context) string {
	if claims := auth.MustGetClaims(c); claims != nil {
		return claims.Username
	}
	return ""
}
