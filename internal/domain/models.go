package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a storefront order
type Order struct {
	ID              int64
	Number          string
	Status          OrderStatus
	Total           decimal.Decimal
	Refunded        decimal.Decimal
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress Address
	BillingAddress  Address
	Lines           []OrderLine
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasPhysicalLines reports whether the order carries at least one line that
// needs fulfillment. Orders with only virtual lines are never exported.
func (o *Order) HasPhysicalLines() bool {
	for _, l := range o.Lines {
		if l.IsPhysical && l.Quantity > 0 {
			return true
		}
	}
	return false
}

// OrderLine represents a single line item on an order
type OrderLine struct {
	ID          int64
	OrderID     int64
	ArticleCode string
	Title       string
	Quantity    int
	Price       decimal.Decimal
	IsPhysical  bool
}

// Address holds a shipping or billing address
type Address struct {
	Name    string
	Street  string
	City    string
	Zip     string
	State   string
	Country string
}

// OrderNote is one entry in the order's append-only note log
type OrderNote struct {
	ID        int64
	OrderID   int64
	Text      string
	CreatedAt time.Time
}

// SyncState is the per-order synchronization record: the identity mapping to
// the WMS plus all sync flags, kept as typed columns rather than a loose
// metadata bag so the pending/failed reports stay queryable.
//
// Invariant: at most one WMS order id per local order; once set it only
// changes through explicit re-export after cancellation.
type SyncState struct {
	OrderID            int64
	WMSOrderID         string
	ExternalReference  string
	SyncStatus         SyncStatus
	ExportedAt         *time.Time
	WebhookProcessedAt *time.Time
	SyncInProgressAt   *time.Time
	LastStatusChange   *time.Time
	CancelledAt        *time.Time
	ItemsSyncNeeded    bool
	StatusSyncNeeded   bool
	ShippingHash       string
	ExportAttempts     int
	LastExportError    string
	TrackingCarrier    *string
	TrackingNumber     *string
	TrackingURL        *string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// WebhookJustProcessed is set in-memory when the current request marked
	// the order as webhook-processed. It is not persisted; it exists so the
	// event hooks fired later in the same request can skip re-enqueueing.
	WebhookJustProcessed bool
}

// Exported reports whether the order has been created in the WMS
func (s *SyncState) Exported() bool {
	return s.WMSOrderID != ""
}

// QueueItem is one unit of outbound work: an export, cancel or sync task for
// an order or product, processed in batches by the scheduled worker.
type QueueItem struct {
	ID         int64
	EntityType EntityType
	EntityID   int64
	Action     QueueAction
	Priority   int
	Status     QueueStatus
	Attempts   int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WebhookEvent is a durably queued inbound webhook, applied strictly in
// arrival order per external reference.
type WebhookEvent struct {
	ID                int64
	WebhookID         string
	Group             string
	Action            string
	EntityID          string
	ExternalReference string
	Payload           []byte
	Attempts          int
	Processed         bool
	LastError         string
	EnqueuedAt        time.Time
	ProcessedAt       *time.Time
}

// StockLevel is the locally mirrored stock quantity for an article
type StockLevel struct {
	ArticleCode string
	Quantity    int
	UpdatedAt   time.Time
}

// Product is the subset of catalog data pushed to the WMS
type Product struct {
	ID          int64
	ArticleCode string
	Title       string
	Barcode     string
	Weight      int
	IsActive    bool
	UpdatedAt   time.Time
}
