package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"garage-backend/internal/model"
	"garage-backend/internal/mw"
	"garage-backend/internal/workorder"
)

type createBookingRequest struct {
	CustomerID int64     `json:"customerId" binding:"required"`
	ServiceIDs []int64   `json:"serviceIds" binding:"required"`
	EmployeeID *int64    `json:"employeeId"`
	Type       string    `json:"type" binding:"required"`
	StartAt    time.Time `json:"startAt" binding:"required"`
	EndAt      time.Time `json:"endAt" binding:"required"`
	Notes      string    `json:"notes"`
}

// CreateBooking handles POST /api/bookings: booking plus work order, created
// together. Customers are additionally gated by the allowCustomerBooking
// switch in the business settings.
func (h *Handler) CreateBooking(c *gin.Context) {
	actor, ok := mw.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookingType := model.BookingType(req.Type)
	if bookingType != model.BookingWalkIn && bookingType != model.BookingOnline {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "type must be WALKIN or ONLINE"})
		return
	}

	if actor.UserType == model.UserCustomer {
		settings, err := h.store.BusinessSettings(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if !settings.AllowCustomerBooking {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "customer booking is disabled"})
			return
		}
	}

	res, err := h.coordinator.CreateWorkOrderWithBooking(c.Request.Context(), workorder.CreateInput{
		CustomerID: req.CustomerID,
		ServiceIDs: req.ServiceIDs,
		EmployeeID: req.EmployeeID,
		Type:       bookingType,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Notes:      req.Notes,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelBooking handles POST /api/bookings/:id/cancel.
func (h *Handler) CancelBooking(c *gin.Context) {
	actor, ok := mw.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	var req cancelRequest
	_ = c.ShouldBindJSON(&req) // reason is optional

	res, err := h.coordinator.CancelBooking(c.Request.Context(), id, req.Reason, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetBooking handles GET /api/bookings/:id.
func (h *Handler) GetBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	booking, err := h.store.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
