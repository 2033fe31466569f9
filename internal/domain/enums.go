package domain

// OrderStatus represents the storefront lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusOnHold     OrderStatus = "ON_HOLD"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
	OrderStatusFailed     OrderStatus = "FAILED"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusOnHold,
		OrderStatusCompleted,
		OrderStatusCancelled,
		OrderStatusRefunded,
		OrderStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status allows no further automated changes
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed:
		return true
	default:
		return false
	}
}

// SyncStatus tracks where an order sits in its WMS synchronization lifecycle.
// SHIPPED and CANCELLED are terminal for sync purposes: later webhooks are
// recorded as notes but never move the local lifecycle back.
type SyncStatus string

const (
	SyncStatusNotExported SyncStatus = "NOT_EXPORTED"
	SyncStatusExported    SyncStatus = "EXPORTED"
	SyncStatusPlanned     SyncStatus = "PLANNED"
	SyncStatusProcessing  SyncStatus = "PROCESSING"
	SyncStatusShipped     SyncStatus = "SHIPPED"
	SyncStatusCancelled   SyncStatus = "CANCELLED"
	SyncStatusProblem     SyncStatus = "PROBLEM"
	SyncStatusOnHold      SyncStatus = "ON_HOLD"
)

// IsValid checks if the sync status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusNotExported,
		SyncStatusExported,
		SyncStatusPlanned,
		SyncStatusProcessing,
		SyncStatusShipped,
		SyncStatusCancelled,
		SyncStatusProblem,
		SyncStatusOnHold:
		return true
	default:
		return false
	}
}

// Terminal reports whether sync is finished for the order
func (s SyncStatus) Terminal() bool {
	return s == SyncStatusShipped || s == SyncStatusCancelled
}

// CanTransitionTo checks if a sync status transition is valid
func (s SyncStatus) CanTransitionTo(next SyncStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case SyncStatusNotExported:
		return next == SyncStatusExported
	default:
		// Once exported the WMS drives the lifecycle; anything but a
		// regression to NOT_EXPORTED is acceptable.
		return next != SyncStatusNotExported
	}
}

// EntityType identifies what an outbound queue item refers to
type EntityType string

const (
	EntityTypeOrder   EntityType = "order"
	EntityTypeProduct EntityType = "product"
)

// IsValid checks if the entity type is known
func (t EntityType) IsValid() bool {
	return t == EntityTypeOrder || t == EntityTypeProduct
}

// QueueAction is the outbound operation a queue item requests
type QueueAction string

const (
	QueueActionExport QueueAction = "export"
	QueueActionCancel QueueAction = "cancel"
	QueueActionSync   QueueAction = "sync"
)

// IsValid checks if the action is known
func (a QueueAction) IsValid() bool {
	switch a {
	case QueueActionExport, QueueActionCancel, QueueActionSync:
		return true
	default:
		return false
	}
}

// QueueStatus is the lifecycle state of an outbound queue item
type QueueStatus string

const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusCompleted  QueueStatus = "completed"
	QueueStatusFailed     QueueStatus = "failed"
)

// Terminal reports whether the item will not be picked up again without
// explicit operator action
func (s QueueStatus) Terminal() bool {
	return s == QueueStatusCompleted || s == QueueStatusFailed
}

// Queue priorities. Cancel outranks export so that when both are pending for
// the same order, cancel wins.
const (
	PriorityCancel  = 10
	PriorityExport  = 5
	PriorityProduct = 1
)
