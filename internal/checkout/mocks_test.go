package checkout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/cache"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/gateway"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/journal"
)

// MockCartReader implements CartReader for testing
type MockCartReader struct {
	Items     []domain.CartLineItem
	Err       error
	CallCount int32
}

func (m *MockCartReader) LoadCart(_ context.Context, _ string) ([]domain.CartLineItem, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Items, nil
}

// MockOrderSubmitter implements OrderSubmitter and captures the submission.
type MockOrderSubmitter struct {
	Order *domain.Order
	Err   error
	Delay time.Duration

	CallCount   int32
	SentAddress string
	SentMethod  domain.PaymentMethod
	SentItems   []domain.CartLineItem
}

func (m *MockOrderSubmitter) SubmitOrder(_ context.Context, address string, method domain.PaymentMethod, items []domain.CartLineItem) (*domain.Order, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	m.SentAddress = address
	m.SentMethod = method
	m.SentItems = items
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Order, nil
}

// MockPaymentGateway implements PaymentGateway and captures the confirmation.
type MockPaymentGateway struct {
	Intent     *domain.PaymentIntent
	IntentErr  error
	ConfirmErr error

	InitiateCalls    int32
	InitiatedOrderID int64
	ConfirmCalls     int32
	Confirmed        domain.PaymentConfirmation
}

func (m *MockPaymentGateway) InitiatePayment(_ context.Context, orderID int64) (*domain.PaymentIntent, error) {
	atomic.AddInt32(&m.InitiateCalls, 1)
	m.InitiatedOrderID = orderID
	if m.IntentErr != nil {
		return nil, m.IntentErr
	}
	return m.Intent, nil
}

func (m *MockPaymentGateway) ConfirmPayment(_ context.Context, conf domain.PaymentConfirmation) error {
	atomic.AddInt32(&m.ConfirmCalls, 1)
	m.Confirmed = conf
	return m.ConfirmErr
}

// MockWidget implements Widget. The Result is delivered as soon as the bridge
// opens the session.
type MockWidget struct {
	LoadErr   error
	OpenErr   error
	Result    gateway.WidgetResult
	LoadCalls int32
	OpenCalls int32
	Abandoned string
}

func (m *MockWidget) Load(_ context.Context) error {
	atomic.AddInt32(&m.LoadCalls, 1)
	return m.LoadErr
}

func (m *MockWidget) Open(_ context.Context, _ domain.PaymentIntent) (<-chan gateway.WidgetResult, error) {
	atomic.AddInt32(&m.OpenCalls, 1)
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	ch := make(chan gateway.WidgetResult, 1)
	ch <- m.Result
	return ch, nil
}

func (m *MockWidget) Abandon(gatewayOrderID string) {
	m.Abandoned = gatewayOrderID
}

// MockJournal implements journal.Store and records the status trail.
type MockJournal struct {
	mu sync.Mutex

	CreateErr error
	Created   *journal.Attempt
	Statuses  []domain.AttemptStatus

	OrderID        *int64
	OrderNumber    string
	GatewayOrderID string
	GatewayPayment string

	TerminalStatus domain.AttemptStatus
	TerminalReason string
	TerminalBody   []byte
}

func (m *MockJournal) CreateAttempt(_ context.Context, attempt *journal.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Created = attempt
	m.Statuses = append(m.Statuses, attempt.Status)
	return nil
}

func (m *MockJournal) GetAttempt(context.Context, string) (*journal.Attempt, error) {
	return nil, journal.ErrAttemptNotFound
}

func (m *MockJournal) SetOrder(_ context.Context, _ string, orderID int64, orderNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderID = &orderID
	m.OrderNumber = orderNumber
	m.Statuses = append(m.Statuses, domain.AttemptStatusOrderCreated)
	return nil
}

func (m *MockJournal) SetGatewayOrder(_ context.Context, _ string, gatewayOrderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GatewayOrderID = gatewayOrderID
	m.Statuses = append(m.Statuses, domain.AttemptStatusPaymentPending)
	return nil
}

func (m *MockJournal) SetGatewayPayment(_ context.Context, _ string, gatewayPaymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GatewayPayment = gatewayPaymentID
	return nil
}

func (m *MockJournal) MarkTerminal(_ context.Context, _ string, status domain.AttemptStatus, reason string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TerminalStatus = status
	m.TerminalReason = reason
	m.TerminalBody = payload
	m.Statuses = append(m.Statuses, status)
	return nil
}

func (m *MockJournal) GetStuckAttempts(context.Context, time.Time) ([]journal.Attempt, error) {
	return nil, nil
}

func (m *MockJournal) GetUnprocessedEvents(context.Context, int) ([]journal.OutboxEvent, error) {
	return nil, nil
}

func (m *MockJournal) MarkEventProcessed(context.Context, string) error { return nil }
func (m *MockJournal) Close() error                                     { return nil }

// MockCache implements cache.SnapshotCache; by default every Get misses.
type MockCache struct {
	mu        sync.Mutex
	Snapshots map[string]*domain.CartSnapshot
	Deleted   []string
}

func (m *MockCache) Get(_ context.Context, userID string) (*domain.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snapshot, ok := m.Snapshots[userID]; ok {
		return snapshot, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *MockCache) Set(_ context.Context, userID string, snapshot *domain.CartSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Snapshots == nil {
		m.Snapshots = map[string]*domain.CartSnapshot{}
	}
	m.Snapshots[userID] = snapshot
	return nil
}

func (m *MockCache) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, userID)
	delete(m.Snapshots, userID)
	return nil
}

// MockLocker implements cache.AttemptLocker with real mutual exclusion so the
// single-flight property can be exercised with concurrent calls.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]bool

	AcquireErr error
	DenyAll    bool
}

func (m *MockLocker) Acquire(_ context.Context, userID string) (bool, error) {
	if m.AcquireErr != nil {
		return false, m.AcquireErr
	}
	if m.DenyAll {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = map[string]bool{}
	}
	if m.held[userID] {
		return false, nil
	}
	m.held[userID] = true
	return true, nil
}

func (m *MockLocker) Release(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, userID)
	return nil
}
