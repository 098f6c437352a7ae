package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"

	"github.com/inzamam-virk/lottery-app/internal/lock"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
	"github.com/inzamam-virk/lottery-app/internal/services"
)

// respondError maps service and repository errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var rerr *services.RepositoryError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, services.PlaceBetResult{
			Accepted:        false,
			RejectionReason: verr.Reason,
			Message:         verr.Message,
		})
	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDrawNotSettleable), errors.Is(err, lock.ErrNotAcquired):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrFutureRun), errors.Is(err, services.ErrDealerRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &rerr):
		slog.Error("Record store failure", "op", rerr.Op, "error", rerr.Err, "path", c.FullPath())
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Record store unavailable"})
	default:
		slog.Error("Unhandled error", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
	_ = c.Error(err)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
