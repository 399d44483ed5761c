// Package history serves the archived shopping trips.
package history

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
	rg.GET("/:id", h.get)
	rg.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	entries := h.Session.History()
	c.JSON(http.StatusOK, gin.H{
		"total":   len(entries),
		"entries": entries,
	})
}

func (h *Handler) get(c *gin.Context) {
	e, err := h.Session.GetHistoryEntry(c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Session.DeleteHistoryEntry(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.Hub.Broadcast(sync.HistoryUpdated(actor(c)))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) clear(c *gin.Context) {
	h.Session.ClearHistory(c.Request.Context())

	h.Hub.Broadcast(sync.HistoryUpdated(actor(c)))
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func actor(c *gin.Context) string {
	if claims := auth.MustGetClaims(c); claims != nil {
		return claims.Username
	}
	return ""
}
