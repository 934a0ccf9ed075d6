package checkout

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/cache"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

// Snapshot returns the user's cart as captured for checkout: cache first,
// then the cart service. The subtotal is display-only; the order service
// computes the authoritative total at submission.
func (s *Service) Snapshot(ctx context.Context, userID string) (*domain.CartSnapshot, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		snapshot, err := s.cache.Get(ctx, userID)
		if err == nil {
			return snapshot, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("snapshot cache get error: %v", err) // log cache error but continue
		}

		items, errLoad := s.cart.LoadCart(ctx, userID)
		if errLoad != nil {
			return nil, errLoad // ErrEmptyCart included
		}

		snapshot = &domain.CartSnapshot{
			Items:      items,
			Subtotal:   domain.Subtotal(items),
			CapturedAt: time.Now(),
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(setCtx, userID, snapshot); errSet != nil {
				log.Printf("snapshot cache set error: %v", errSet)
			}
		}()

		return snapshot, nil
	})

	if err != nil {
		return nil, err
	}
	return v.(*domain.CartSnapshot), nil
}

// invalidateSnapshot drops the cached cart after an order consumed it.
func (s *Service) invalidateSnapshot(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("snapshot cache delete error: %v", err)
	}
}
