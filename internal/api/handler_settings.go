package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"garage-backend/internal/model"
	"garage-backend/internal/store"
)

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.store.BusinessSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type putSettingsRequest struct {
	Timezone             string `json:"timezone" binding:"required"`
	OpenTime             string `json:"openTime" binding:"required"`
	CloseTime            string `json:"closeTime" binding:"required"`
	SlotMinutes          int    `json:"slotMinutes" binding:"required"`
	BufferMinutes        int    `json:"bufferMinutes"`
	AllowCustomerBooking *bool  `json:"allowCustomerBooking" binding:"required"`
}

// PutSettings handles PUT /api/settings. Every field is validated before the
// row is written: a bad timezone or an inverted window would otherwise poison
// all slot generation.
func (h *Handler) PutSettings(c *gin.Context) {
	var req putSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := time.LoadLocation(req.Timezone); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown timezone"})
		return
	}
	openAt, err := time.Parse("15:04", req.OpenTime)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "openTime must be HH:mm"})
		return
	}
	closeAt, err := time.Parse("15:04", req.CloseTime)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "closeTime must be HH:mm"})
		return
	}
	if !openAt.Before(closeAt) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "openTime must be before closeTime"})
		return
	}
	if req.SlotMinutes <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "slotMinutes must be positive"})
		return
	}
	if req.BufferMinutes < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bufferMinutes must not be negative"})
		return
	}

	ctx := c.Request.Context()
	settings, err := h.store.BusinessSettings(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			respondError(c, err)
			return
		}
		settings = &model.BusinessSettings{}
	}

	settings.Timezone = req.Timezone
	settings.OpenTime = req.OpenTime
	settings.CloseTime = req.CloseTime
	settings.SlotMinutes = req.SlotMinutes
	settings.BufferMinutes = req.BufferMinutes
	settings.AllowCustomerBooking = *req.AllowCustomerBooking

	if err := h.store.SaveBusinessSettings(ctx, settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
