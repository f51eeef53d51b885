package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"garage-backend/internal/model"
	"garage-backend/internal/mw"
	"garage-backend/internal/workorder"
)

func workOrderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid work order id"})
		return 0, false
	}
	return id, true
}

func requireActor(c *gin.Context) (workorder.Actor, bool) {
	actor, ok := mw.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	}
	return actor, ok
}

// GetWorkOrder handles GET /api/workorders/:id.
func (h *Handler) GetWorkOrder(c *gin.Context) {
	id, ok := workOrderID(c)
	if !ok {
		return
	}
	wo, err := h.store.GetWorkOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type assignRequest struct {
	EmployeeID int64 `json:"employeeId" binding:"required"`
}

// AssignWorkOrder handles POST /api/workorders/:id/assign.
func (h *Handler) AssignWorkOrder(c *gin.Context) {
	h.assignLike(c, h.coordinator.Assign)
}

// ReassignWorkOrder handles POST /api/workorders/:id/reassign.
func (h *Handler) ReassignWorkOrder(c *gin.Context) {
	h.assignLike(c, h.coordinator.Reassign)
}

// AcceptWorkOrder handles POST /api/workorders/:id/accept. The employee id
// comes from the token, not the body: acceptance is always for oneself.
func (h *Handler) AcceptWorkOrder(c *gin.Context) {
	id, ok := workOrderID(c)
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	res, err := h.coordinator.AcceptByEmployee(c.Request.Context(), id, actor.EmployeeID, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) assignLike(c *gin.Context, op func(ctx context.Context, workOrderID, employeeID int64, actor workorder.Actor) (*workorder.Result, error)) {
	id, ok := workOrderID(c)
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := op(c.Request.Context(), id, req.EmployeeID, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// StartWorkOrder handles POST /api/workorders/:id/start.
func (h *Handler) StartWorkOrder(c *gin.Context) {
	id, ok := workOrderID(c)
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	res, err := h.coordinator.StartWork(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CancelWorkOrder handles POST /api/workorders/:id/cancel.
func (h *Handler) CancelWorkOrder(c *gin.Context) {
	id, ok := workOrderID(c)
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req cancelRequest
	_ = c.ShouldBindJSON(&req)
	res, err := h.coordinator.Cancel(c.Request.Context(), id, req.Reason, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type doneRequest struct {
	Note string `json:"note"`
}

// MarkWorkOrderDone handles POST /api/workorders/:id/done.
func (h *Handler) MarkWorkOrderDone(c *gin.Context) {
	id, ok := workOrderID(c)
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req doneRequest
	_ = c.ShouldBindJSON(&req)
	res, err := h.coordinator.MarkDone(c.Request.Context(), id, req.Note, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type completeRequest struct {
	PartsUsed    []model.PartUsed   `json:"partsUsed"`
	LaborEntries []model.LaborEntry `json:"laborEntries"`
	TaxRate      float64            `json:"taxRate"`
	TaxAmount    *float64           `json:"taxAmount"`
	Note         string             `json:"note"`
}

// CompleteWorkOrder handles POST /api/workorders/:id/complete.
func (h *Handler) CompleteWorkOrder(c *gin.Context) {
	id, ok := workOrderID(c)
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.coordinator.CompleteWithBilling(c.Request.Context(), id, workorder.BillingInput{
		PartsUsed:    req.PartsUsed,
		LaborEntries: req.LaborEntries,
		TaxRate:      req.TaxRate,
		TaxAmount:    req.TaxAmount,
		Note:         req.Note,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
