package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTerminal(t *testing.T) {
	terminal := []OrderStatus{OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%s should be terminal", s)
	}

	open := []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusOnHold}
	for _, s := range open {
		assert.False(t, s.Terminal(), "%s should not be terminal", s)
	}
}

func TestSyncStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from SyncStatus
		to   SyncStatus
		want bool
	}{
		{"not exported can only become exported", SyncStatusNotExported, SyncStatusExported, true},
		{"not exported cannot jump to shipped", SyncStatusNotExported, SyncStatusShipped, false},
		{"exported can progress", SyncStatusExported, SyncStatusPlanned, true},
		{"exported can go on hold", SyncStatusExported, SyncStatusOnHold, true},
		{"exported cannot regress", SyncStatusExported, SyncStatusNotExported, false},
		{"processing can ship", SyncStatusProcessing, SyncStatusShipped, true},
		{"problem can recover", SyncStatusProblem, SyncStatusProcessing, true},
		{"shipped is final", SyncStatusShipped, SyncStatusCancelled, false},
		{"cancelled is final", SyncStatusCancelled, SyncStatusExported, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSyncStatusTerminal(t *testing.T) {
	assert.True(t, SyncStatusShipped.Terminal())
	assert.True(t, SyncStatusCancelled.Terminal())
	assert.False(t, SyncStatusExported.Terminal())
	assert.False(t, SyncStatusProblem.Terminal())
	assert.False(t, SyncStatusOnHold.Terminal())
}

func TestQueueStatusTerminal(t *testing.T) {
	assert.True(t, QueueStatusCompleted.Terminal())
	assert.True(t, QueueStatusFailed.Terminal())
	assert.False(t, QueueStatusPending.Terminal())
	assert.False(t, QueueStatusProcessing.Terminal())
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, OrderStatusProcessing.IsValid())
	assert.False(t, OrderStatus("SHIPPED_TO_MARS").IsValid())

	assert.True(t, EntityTypeOrder.IsValid())
	assert.False(t, EntityType("invoice").IsValid())

	assert.True(t, QueueActionCancel.IsValid())
	assert.False(t, QueueAction("explode").IsValid())
}

func TestCancelOutranksExport(t *testing.T) {
	assert.Greater(t, PriorityCancel, PriorityExport)
	assert.Greater(t, PriorityExport, PriorityProduct)
}
