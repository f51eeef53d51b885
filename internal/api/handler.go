package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"garage-backend/internal/schedule"
	"garage-backend/internal/store"
	"garage-backend/internal/workorder"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store       store.Store
	coordinator *workorder.Coordinator
	slots       *schedule.Generator
	checker     *schedule.Checker
	webpush     *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, coordinator *workorder.Coordinator, slots *schedule.Generator, checker *schedule.Checker, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:       s,
		coordinator: coordinator,
		slots:       slots,
		checker:     checker,
		webpush:     webpushOptions,
	}
}

// respondError maps domain errors onto HTTP statuses. Nothing is swallowed;
// unexpected errors surface as 500.
func respondError(c *gin.Context, err error) {
	var (
		invalid  *workorder.InvalidTransitionError
		conflict *workorder.SchedulingConflictError
		authz    *workorder.AuthorizationError
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{"error": invalid.Error(), "from": invalid.From, "to": invalid.To})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":                conflict.Error(),
			"conflictingWorkOrder": conflict.ConflictingOrderID,
			"conflictingBooking":   conflict.ConflictingBookingID,
			"conflictingStart":     conflict.WindowStart,
			"conflictingEnd":       conflict.WindowEnd,
		})
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, gin.H{"error": authz.Error()})
	case errors.Is(err, store.ErrStaleStatus):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, schedule.ErrNoSettings):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
