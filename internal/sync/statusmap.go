package sync

import (
	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/wms"
)

// statusAction is what an order webhook asks us to do locally
type statusAction int

const (
	actionNone statusAction = iota
	actionCancel
	actionShip
	actionHold
	actionStatusChange
	actionUnknown
)

// statusMapping is the fixed WMS status to local action table
type statusMapping struct {
	action     statusAction
	syncStatus domain.SyncStatus
	// orderStatus is the storefront lifecycle status applied for
	// actionStatusChange transitions.
	orderStatus domain.OrderStatus
}

var wmsStatusTable = map[string]statusMapping{
	wms.StatusCancelled:      {action: actionCancel, syncStatus: domain.SyncStatusCancelled, orderStatus: domain.OrderStatusCancelled},
	wms.StatusShipped:        {action: actionShip, syncStatus: domain.SyncStatusShipped, orderStatus: domain.OrderStatusCompleted},
	wms.StatusInvalidAddress: {action: actionHold, syncStatus: domain.SyncStatusProblem, orderStatus: domain.OrderStatusOnHold},
	wms.StatusProblem:        {action: actionHold, syncStatus: domain.SyncStatusProblem, orderStatus: domain.OrderStatusOnHold},
	wms.StatusBackorder:      {action: actionHold, syncStatus: domain.SyncStatusOnHold, orderStatus: domain.OrderStatusOnHold},
	wms.StatusOnHold:         {action: actionHold, syncStatus: domain.SyncStatusOnHold, orderStatus: domain.OrderStatusOnHold},
	wms.StatusCreated:        {action: actionStatusChange, syncStatus: domain.SyncStatusExported, orderStatus: domain.OrderStatusProcessing},
	wms.StatusPlanned:        {action: actionStatusChange, syncStatus: domain.SyncStatusPlanned, orderStatus: domain.OrderStatusProcessing},
	wms.StatusProcessing:     {action: actionStatusChange, syncStatus: domain.SyncStatusProcessing, orderStatus: domain.OrderStatusProcessing},
}

// mapWMSStatus resolves a WMS status value to its local handling. Unknown
// values degrade to actionUnknown: logged and noted, never a hard failure,
// so a new WMS vocabulary cannot freeze order books.
func mapWMSStatus(status string) statusMapping {
	if m, ok := wmsStatusTable[status]; ok {
		return m
	}
	return statusMapping{action: actionUnknown}
}
