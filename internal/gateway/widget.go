package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

// SDKLoader lazily fetches the checkout widget script from the gateway CDN.
// Loading happens once per process; concurrent callers coalesce on the same
// attempt and a failed load may be retried by the next attempt.
type SDKLoader struct {
	scriptURL string
	http      *http.Client

	mu      sync.Mutex
	loaded  bool
	loading chan struct{} // non-nil while a load is in flight
}

func NewSDKLoader(scriptURL string, timeout time.Duration) *SDKLoader {
	return &SDKLoader{
		scriptURL: scriptURL,
		http:      &http.Client{Timeout: timeout},
	}
}

// Load makes sure the widget SDK is available. Idempotent: once a load has
// succeeded, every later call returns immediately.
func (l *SDKLoader) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.loaded {
		l.mu.Unlock()
		return nil
	}
	if l.loading != nil {
		wait := l.loading
		l.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.loaded {
			return nil
		}
		return fmt.Errorf("payment SDK load failed")
	}
	done := make(chan struct{})
	l.loading = done
	l.mu.Unlock()

	err := l.fetchScript(ctx)

	l.mu.Lock()
	l.loaded = err == nil
	l.loading = nil
	close(done)
	l.mu.Unlock()

	return err
}

func (l *SDKLoader) fetchScript(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.scriptURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build SDK request: %w", err)
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to load payment SDK: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to load payment SDK: CDN returned %d", resp.StatusCode)
	}

	log.Printf("payment SDK loaded from %s", l.scriptURL)
	return nil
}

// HostedWidget ties the SDK loader and the session registry together into the
// widget boundary the payment bridge drives.
type HostedWidget struct {
	loader   *SDKLoader
	sessions *SessionStore
}

func NewHostedWidget(loader *SDKLoader, sessions *SessionStore) *HostedWidget {
	return &HostedWidget{loader: loader, sessions: sessions}
}

func (w *HostedWidget) Load(ctx context.Context) error {
	return w.loader.Load(ctx)
}

func (w *HostedWidget) Open(ctx context.Context, intent domain.PaymentIntent) (<-chan WidgetResult, error) {
	return w.sessions.Open(intent)
}

// Abandon drops an open session once nobody waits on it anymore.
func (w *HostedWidget) Abandon(gatewayOrderID string) {
	w.sessions.Abandon(gatewayOrderID)
}
