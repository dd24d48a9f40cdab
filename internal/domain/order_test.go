package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatusWalksPipelineInOrder(t *testing.T) {
	expected := []struct {
		current OrderStatus
		next    OrderStatus
	}{
		{OrderStatusPending, OrderStatusPaymentConfirmed},
		{OrderStatusPaymentConfirmed, OrderStatusPrinting},
		{OrderStatusPrinting, OrderStatusReadyForPickup},
		{OrderStatusReadyForPickup, OrderStatusCompleted},
	}

	for _, step := range expected {
		next, ok := NextStatus(step.current)
		assert.True(t, ok, "expected successor for %q", step.current)
		assert.Equal(t, step.next, next)
	}
}

func TestNextStatusTerminalAndUnknown(t *testing.T) {
	_, ok := NextStatus(OrderStatusCompleted)
	assert.False(t, ok, "Completed is terminal")

	_, ok = NextStatus(OrderStatus("Cancelled"))
	assert.False(t, ok)
}

func TestOrderStatusValid(t *testing.T) {
	for _, status := range AllStatuses() {
		assert.True(t, status.Valid(), "%q should be valid", status)
	}
	assert.False(t, OrderStatus("Archived").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleCustomer.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("staff").Valid())
}
