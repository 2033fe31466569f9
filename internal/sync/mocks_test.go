package sync

import (
	"context"
	"strconv"
	"time"

	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/wms"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

// fakeOrderStore is an in-memory OrderStore
type fakeOrderStore struct {
	orders map[int64]*domain.Order
	notes  map[int64][]string
}

func newFakeOrderStore(orders ...*domain.Order) *fakeOrderStore {
	s := &fakeOrderStore{
		orders: make(map[int64]*domain.Order),
		notes:  make(map[int64][]string),
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *fakeOrderStore) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: strconv.FormatInt(id, 10)}
	}
	return o, nil
}

func (s *fakeOrderStore) GetByNumber(_ context.Context, number string) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.Number == number {
			return o, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "order", ID: number}
}

func (s *fakeOrderStore) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus) error {
	o, ok := s.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: strconv.FormatInt(id, 10)}
	}
	o.Status = status
	return nil
}

func (s *fakeOrderStore) AddNote(_ context.Context, id int64, text string) error {
	s.notes[id] = append(s.notes[id], text)
	return nil
}

// fakeStateStore is an in-memory SyncStateStore
type fakeStateStore struct {
	states map[int64]*domain.SyncState
}

func newFakeStateStore(states ...*domain.SyncState) *fakeStateStore {
	s := &fakeStateStore{states: make(map[int64]*domain.SyncState)}
	for _, st := range states {
		s.states[st.OrderID] = st
	}
	return s
}

func (s *fakeStateStore) Get(_ context.Context, orderID int64) (*domain.SyncState, error) {
	return s.states[orderID], nil
}

func (s *fakeStateStore) GetByWMSOrderID(_ context.Context, wmsOrderID string) (*domain.SyncState, error) {
	for _, st := range s.states {
		if st.WMSOrderID == wmsOrderID {
			return st, nil
		}
	}
	return nil, nil
}

func (s *fakeStateStore) GetByExternalReference(_ context.Context, ref string) (*domain.SyncState, error) {
	for _, st := range s.states {
		if st.ExternalReference == ref {
			return st, nil
		}
	}
	return nil, nil
}

func (s *fakeStateStore) Upsert(_ context.Context, state *domain.SyncState) error {
	s.states[state.OrderID] = state
	return nil
}

func (s *fakeStateStore) MarkExported(_ context.Context, orderID int64, wmsOrderID, ref, shippingHash string) error {
	st, ok := s.states[orderID]
	if !ok {
		st = &domain.SyncState{OrderID: orderID}
		s.states[orderID] = st
	}
	if st.WMSOrderID != "" && st.WMSOrderID != wmsOrderID {
		return &errors.ErrEntityMismatch{OrderID: orderID, StoredID: st.WMSOrderID, Received: wmsOrderID}
	}
	now := time.Now()
	st.WMSOrderID = wmsOrderID
	st.ExternalReference = ref
	st.ShippingHash = shippingHash
	st.SyncStatus = domain.SyncStatusExported
	st.ExportedAt = &now
	st.LastExportError = ""
	return nil
}

func (s *fakeStateStore) MarkWebhookProcessed(_ context.Context, orderID int64) error {
	st, ok := s.states[orderID]
	if !ok {
		return &errors.ErrNotFound{Resource: "sync state", ID: strconv.FormatInt(orderID, 10)}
	}
	now := time.Now()
	st.WebhookProcessedAt = &now
	return nil
}

func (s *fakeStateStore) SetSyncInProgress(_ context.Context, orderID int64, inProgress bool) error {
	st, ok := s.states[orderID]
	if !ok {
		st = &domain.SyncState{OrderID: orderID}
		s.states[orderID] = st
	}
	if inProgress {
		now := time.Now()
		st.SyncInProgressAt = &now
	} else {
		st.SyncInProgressAt = nil
	}
	return nil
}

func (s *fakeStateStore) SetSyncStatus(_ context.Context, orderID int64, status domain.SyncStatus) error {
	st, ok := s.states[orderID]
	if !ok {
		return &errors.ErrNotFound{Resource: "sync state", ID: strconv.FormatInt(orderID, 10)}
	}
	st.SyncStatus = status
	now := time.Now()
	st.LastStatusChange = &now
	return nil
}

func (s *fakeStateStore) SetTracking(_ context.Context, orderID int64, carrier, number, url *string) error {
	st, ok := s.states[orderID]
	if !ok {
		return &errors.ErrNotFound{Resource: "sync state", ID: strconv.FormatInt(orderID, 10)}
	}
	if carrier != nil {
		st.TrackingCarrier = carrier
	}
	if number != nil {
		st.TrackingNumber = number
	}
	if url != nil {
		st.TrackingURL = url
	}
	return nil
}

func (s *fakeStateStore) RecordExportFailure(_ context.Context, orderID int64, message string) error {
	st, ok := s.states[orderID]
	if !ok {
		st = &domain.SyncState{OrderID: orderID}
		s.states[orderID] = st
	}
	st.ExportAttempts++
	st.LastExportError = message
	return nil
}

func (s *fakeStateStore) ClearExport(_ context.Context, orderID int64) error {
	st, ok := s.states[orderID]
	if !ok {
		return &errors.ErrNotFound{Resource: "sync state", ID: strconv.FormatInt(orderID, 10)}
	}
	st.WMSOrderID = ""
	st.ExportedAt = nil
	st.SyncStatus = domain.SyncStatusNotExported
	return nil
}

func (s *fakeStateStore) ListFailedExports(_ context.Context, limit int) ([]domain.SyncState, error) {
	var out []domain.SyncState
	for _, st := range s.states {
		if st.LastExportError != "" {
			out = append(out, *st)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// fakeOutboundQueue records enqueued tasks and mimics the live-item dedup
type fakeOutboundQueue struct {
	items []queuedTask
}

type queuedTask struct {
	entityType domain.EntityType
	entityID   int64
	action     domain.QueueAction
	priority   int
}

func (q *fakeOutboundQueue) Enqueue(_ context.Context, entityType domain.EntityType, entityID int64, action domain.QueueAction, priority int) (bool, error) {
	for _, it := range q.items {
		if it.entityType == entityType && it.entityID == entityID && it.action == action {
			return false, nil
		}
	}
	q.items = append(q.items, queuedTask{entityType, entityID, action, priority})
	return true, nil
}

func (q *fakeOutboundQueue) ClaimPending(_ context.Context, _ domain.EntityType, _ int) ([]domain.QueueItem, error) {
	return nil, nil
}

func (q *fakeOutboundQueue) MarkCompleted(_ context.Context, _ int64) error { return nil }

func (q *fakeOutboundQueue) MarkFailedOrRetry(_ context.Context, _ int64, _ string, _ int) (bool, error) {
	return false, nil
}

func (q *fakeOutboundQueue) ResetFailed(_ context.Context, _ int64) (bool, error) { return false, nil }

func (q *fakeOutboundQueue) ListByStatus(_ context.Context, _ domain.QueueStatus, _ int) ([]domain.QueueItem, error) {
	return nil, nil
}

func (q *fakeOutboundQueue) ListByEntity(_ context.Context, _ domain.EntityType, _ int64) ([]domain.QueueItem, error) {
	return nil, nil
}

// fakeWMSAPI is an in-memory OrderAPI and ProductAPI
type fakeWMSAPI struct {
	nextID     string
	createErr  error
	updateErr  error
	cancelErr  error
	created    []wms.OrderPayload
	updated    map[string]wms.OrderPayload
	cancelled  []string
	products   []wms.ProductPayload
	productErr error
}

func newFakeWMSAPI(nextID string) *fakeWMSAPI {
	return &fakeWMSAPI{
		nextID:  nextID,
		updated: make(map[string]wms.OrderPayload),
	}
}

func (a *fakeWMSAPI) CreateOrder(_ context.Context, payload wms.OrderPayload) (*wms.Order, error) {
	if a.createErr != nil {
		return nil, a.createErr
	}
	a.created = append(a.created, payload)
	return &wms.Order{ID: a.nextID, ExternalReference: payload.ExternalReference, Status: wms.StatusCreated}, nil
}

func (a *fakeWMSAPI) UpdateOrder(_ context.Context, wmsOrderID string, payload wms.OrderPayload) (*wms.Order, error) {
	if a.updateErr != nil {
		return nil, a.updateErr
	}
	a.updated[wmsOrderID] = payload
	return &wms.Order{ID: wmsOrderID, ExternalReference: payload.ExternalReference}, nil
}

func (a *fakeWMSAPI) CancelOrder(_ context.Context, wmsOrderID string) error {
	if a.cancelErr != nil {
		return a.cancelErr
	}
	a.cancelled = append(a.cancelled, wmsOrderID)
	return nil
}

func (a *fakeWMSAPI) UpsertProduct(_ context.Context, payload wms.ProductPayload) (*wms.Product, error) {
	if a.productErr != nil {
		return nil, a.productErr
	}
	a.products = append(a.products, payload)
	return &wms.Product{ID: "wms-prod-1", ArticleCode: payload.ArticleCode}, nil
}

// fakeStockStore is an in-memory StockStore
type fakeStockStore struct {
	levels map[string]int
}

func newFakeStockStore() *fakeStockStore {
	return &fakeStockStore{levels: make(map[string]int)}
}

func (s *fakeStockStore) Upsert(_ context.Context, articleCode string, quantity int) error {
	s.levels[articleCode] = quantity
	return nil
}

func (s *fakeStockStore) Get(_ context.Context, articleCode string) (*domain.StockLevel, error) {
	qty, ok := s.levels[articleCode]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "stock level", ID: articleCode}
	}
	return &domain.StockLevel{ArticleCode: articleCode, Quantity: qty}, nil
}
