package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/http/middleware"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
)

type GuestHandler struct {
	ids *middleware.Identity
	ttl time.Duration
}

func NewGuestHandler(ids *middleware.Identity, ttl time.Duration) *GuestHandler {
	return &GuestHandler{ids: ids, ttl: ttl}
}

// POST /v1/guest
// Issues an anonymous device token. A caller that already holds a guest token
// gets it renewed for the same device, so its cart survives.
func (h *GuestHandler) IssueToken(c *gin.Context) {
	guest := entity.Guest{DeviceID: uuid.NewString()}
	if id, ok := middleware.IdentityFrom(c); ok {
		if g, ok := id.(entity.Guest); ok {
			guest = g
		} else {
			c.JSON(http.StatusConflict, gin.H{"error": "already signed in"})
			return
		}
	}

	signed, exp, err := h.ids.Sign(guest, h.ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"device_id":    guest.DeviceID,
		"expires_at":   exp.UTC().Format(time.RFC3339),
	})
}
