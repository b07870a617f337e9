package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/upstream"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

const msgUpstreamDown = "The shop is not reachable right now. Please try again."

// writeError maps use case errors onto HTTP. Messages meant for the user are
// passed through; everything else is logged and replaced.
func writeError(c *gin.Context, err error) {
	var (
		ve *usecase.ValidationError
		re *usecase.RejectedError
		se *upstream.StatusError
	)
	switch {
	case errors.As(err, &ve):
		status := http.StatusUnprocessableEntity
		if errors.Is(err, usecase.ErrCouponLocked) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": ve.Msg, "code": ve.Err.Error()})
	case errors.As(err, &re):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": re.Msg})
	case errors.Is(err, usecase.ErrSessionNotFound),
		errors.Is(err, usecase.ErrOrderNotFound),
		errors.Is(err, usecase.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrOrderInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrLoginRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrOrderNumberRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		logging.From(c).Error("request timed out", "err", err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": msgUpstreamDown})
	case errors.As(err, &se):
		logging.From(c).Error("upstream failure", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgUpstreamDown})
	default:
		logging.From(c).Error("request failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgUpstreamDown})
	}
	_ = c.Error(err)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "error_description": err.Error()})
}
