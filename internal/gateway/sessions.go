// Package gateway is the boundary with the hosted Razorpay checkout widget.
// A widget session is opened per gateway order; its outcome arrives later as
// a signed callback (or a dismissal) and is delivered to the waiting payment
// bridge through a single-buffered channel.
package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

const (
	// DefaultSessionTTL is how long a widget session waits for the user
	// before it counts as dismissed.
	DefaultSessionTTL = 10 * time.Minute

	// cleanupInterval is how often the background expiry runs
	cleanupInterval = 15 * time.Second
)

var (
	ErrSessionExists   = errors.New("widget session already open for this gateway order")
	ErrSessionNotFound = errors.New("no open widget session for this gateway order")
)

// WidgetResult is the terminal outcome of one widget session. Dismissed
// results carry no confirmation payload.
type WidgetResult struct {
	Confirmation *domain.PaymentConfirmation
	Dismissed    bool
}

type session struct {
	gatewayOrderID string
	openedAt       time.Time
	expiresAt      time.Time
	result         chan WidgetResult // buffered, written exactly once
}

// SessionStore tracks pending widget sessions in memory with a TTL and a
// background expiry loop.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration

	stopCleanup chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &SessionStore{
		sessions:    make(map[string]*session),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Open registers a pending session for the intent's gateway order and returns
// the channel the outcome will arrive on.
func (s *SessionStore) Open(intent domain.PaymentIntent) (<-chan WidgetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[intent.GatewayOrderID]; exists {
		return nil, ErrSessionExists
	}

	now := time.Now()
	sess := &session{
		gatewayOrderID: intent.GatewayOrderID,
		openedAt:       now,
		expiresAt:      now.Add(s.ttl),
		result:         make(chan WidgetResult, 1),
	}
	s.sessions[intent.GatewayOrderID] = sess
	return sess.result, nil
}

// Complete resolves a session with the widget's signed callback payload.
func (s *SessionStore) Complete(gatewayOrderID string, conf domain.PaymentConfirmation) error {
	sess, err := s.take(gatewayOrderID)
	if err != nil {
		return err
	}
	sess.result <- WidgetResult{Confirmation: &conf}
	return nil
}

// Dismiss resolves a session as abandoned by the user.
func (s *SessionStore) Dismiss(gatewayOrderID string) error {
	sess, err := s.take(gatewayOrderID)
	if err != nil {
		return err
	}
	sess.result <- WidgetResult{Dismissed: true}
	return nil
}

// Abandon drops a session whose waiter has gone away. A callback arriving
// afterwards gets ErrSessionNotFound instead of being acknowledged into a
// channel nobody reads. Dropping an already-resolved session is a no-op.
func (s *SessionStore) Abandon(gatewayOrderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, gatewayOrderID)
}

// take removes a session so every outcome is delivered at most once.
func (s *SessionStore) take(gatewayOrderID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[gatewayOrderID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(s.sessions, gatewayOrderID)
	return sess, nil
}

// Pending reports how many sessions are waiting on the user.
func (s *SessionStore) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions()
		case <-s.stopCleanup:
			return
		}
	}
}

// expireSessions resolves overdue sessions as dismissed.
func (s *SessionStore) expireSessions() {
	now := time.Now()

	s.mu.Lock()
	var expired []*session
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.result <- WidgetResult{Dismissed: true}
	}
}

// Close stops the expiry loop and resolves every pending session as
// dismissed so no bridge is left waiting forever. Safe to call more than
// once.
func (s *SessionStore) Close() {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
		s.wg.Wait()

		s.mu.Lock()
		defer s.mu.Unlock()
		for id, sess := range s.sessions {
			delete(s.sessions, id)
			sess.result <- WidgetResult{Dismissed: true}
		}
	})
}
