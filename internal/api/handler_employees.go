package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type availabilityResponse struct {
	EmployeeID int64     `json:"employeeId"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Available  bool      `json:"available"`

	ConflictingWorkOrder *int64 `json:"conflictingWorkOrder,omitempty"`
	ConflictingBooking   *int64 `json:"conflictingBooking,omitempty"`
}

// GetEmployeeAvailability handles GET /api/employees/:id/availability?from=&to=
// with RFC 3339 bounds. It answers the same question the assignment paths ask
// internally, so a client can pre-check before choosing an employee.
func (h *Handler) GetEmployeeAvailability(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid from, use RFC 3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid to, use RFC 3339"})
		return
	}
	if !from.Before(to) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	}

	if _, err := h.store.GetEmployee(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	conflict, err := h.checker.FindConflict(c.Request.Context(), id, from.UTC(), to.UTC(), 0)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := availabilityResponse{
		EmployeeID: id,
		From:       from.UTC(),
		To:         to.UTC(),
		Available:  conflict == nil,
	}
	if conflict != nil {
		resp.ConflictingWorkOrder = &conflict.ID
		resp.ConflictingBooking = &conflict.BookingID
	}
	c.JSON(http.StatusOK, resp)
}
