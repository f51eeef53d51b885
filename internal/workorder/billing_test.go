package workorder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"garage-backend/internal/model"
)

func TestComputeRevenue(t *testing.T) {
	parts := []model.PartUsed{
		{Name: "brake pads", Price: 50, Qty: 2},
	}
	labor := []model.LaborEntry{
		{Hours: 2, Rate: 30},
	}

	t.Run("tax from rate", func(t *testing.T) {
		subtotal, tax, total := ComputeRevenue(parts, labor, 10, nil)
		assert.Equal(t, 160.0, subtotal)
		assert.Equal(t, 16.0, tax)
		assert.Equal(t, 176.0, total)
	})

	t.Run("explicit tax amount wins over rate", func(t *testing.T) {
		amount := 12.5
		subtotal, tax, total := ComputeRevenue(parts, labor, 10, &amount)
		assert.Equal(t, 160.0, subtotal)
		assert.Equal(t, 12.5, tax)
		assert.Equal(t, 172.5, total)
	})

	t.Run("empty closeout", func(t *testing.T) {
		subtotal, tax, total := ComputeRevenue(nil, nil, 10, nil)
		assert.Zero(t, subtotal)
		assert.Zero(t, tax)
		assert.Zero(t, total)
	})
}
