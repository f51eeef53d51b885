package workorder

import "garage-backend/internal/model"

// transitions lists the legal status graph. Role and conflict guards are
// enforced by the coordinator on top of this; the map only answers whether a
// jump is structurally legal. Terminal states map to nothing: there is no way
// out of CANCELLED, DONE or COMPLETED.
var transitions = map[model.WorkOrderStatus][]model.WorkOrderStatus{
	model.OrderDraft:      {model.OrderAssigned, model.OrderWaiting, model.OrderDone, model.OrderCompleted, model.OrderCancelled},
	model.OrderOpen:       {model.OrderAssigned, model.OrderWaiting, model.OrderDone, model.OrderCompleted, model.OrderCancelled},
	model.OrderAssigned:   {model.OrderAssigned, model.OrderInProgress, model.OrderDone, model.OrderCompleted, model.OrderCancelled},
	model.OrderInProgress: {model.OrderDone, model.OrderCompleted, model.OrderCancelled},
	model.OrderWaiting:    {model.OrderAssigned, model.OrderDone, model.OrderCompleted, model.OrderCancelled},
	model.OrderDone:       {},
	model.OrderCompleted:  {},
	model.OrderCancelled:  {},
}

// CanTransition reports whether from -> to is a legal status jump.
func CanTransition(from, to model.WorkOrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// guardTransition returns the typed error for an illegal jump.
func guardTransition(wo *model.WorkOrder, to model.WorkOrderStatus) error {
	if !CanTransition(wo.Status, to) {
		return &InvalidTransitionError{WorkOrderID: wo.ID, From: wo.Status, To: to}
	}
	return nil
}
