package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garage-backend/internal/model"
)

type conflictStoreStub struct {
	gotEmployeeID int64
	gotStart      time.Time
	gotEnd        time.Time
	gotExcludeID  int64
	gotBusy       []model.WorkOrderStatus
	result        *model.WorkOrder
}

func (s *conflictStoreStub) FindConflictingWorkOrder(ctx context.Context, employeeID int64, start, end time.Time, excludeID int64, busy []model.WorkOrderStatus) (*model.WorkOrder, error) {
	s.gotEmployeeID = employeeID
	s.gotStart = start
	s.gotEnd = end
	s.gotExcludeID = excludeID
	s.gotBusy = busy
	return s.result, nil
}

func TestChecker_FindConflict(t *testing.T) {
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	t.Run("queries with the busy set and exclusion", func(t *testing.T) {
		stub := &conflictStoreStub{result: &model.WorkOrder{ID: 9}}
		checker := NewChecker(stub)

		conflict, err := checker.FindConflict(context.Background(), 3, start, end, 7)
		require.NoError(t, err)
		require.NotNil(t, conflict)
		assert.Equal(t, int64(9), conflict.ID)

		assert.Equal(t, int64(3), stub.gotEmployeeID)
		assert.Equal(t, int64(7), stub.gotExcludeID)
		assert.Equal(t, BusySet, stub.gotBusy)
	})

	t.Run("free employee yields nil", func(t *testing.T) {
		checker := NewChecker(&conflictStoreStub{})
		conflict, err := checker.FindConflict(context.Background(), 3, start, end, 0)
		require.NoError(t, err)
		assert.Nil(t, conflict)
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		checker := NewChecker(&conflictStoreStub{})
		_, err := checker.FindConflict(context.Background(), 3, end, start, 0)
		assert.Error(t, err)
	})
}

func TestBusySet(t *testing.T) {
	// WAITING is a queued request, not a claim on the window; DONE and
	// friends are already over. Only a confirmed or running job blocks.
	assert.ElementsMatch(t,
		[]model.WorkOrderStatus{model.OrderAssigned, model.OrderInProgress},
		BusySet)
}
