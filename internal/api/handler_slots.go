package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetSlots handles GET /api/slots?date=YYYY-MM-DD, returning the bookable
// windows of the given service day with remaining capacity per slot.
func (h *Handler) GetSlots(c *gin.Context) {
	dateParam := c.Query("date")
	if dateParam == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	date, err := time.Parse("2006-01-02", dateParam)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	day, err := h.slots.GenerateSlots(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}
