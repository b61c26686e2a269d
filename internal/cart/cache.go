package cart

import (
	"context"
	"errors"

	"github.com/fjod/go_pos/internal/domain"
)

// Cache mirrors session carts outside the process so another gateway
// replica can pick up an operator session.
type Cache interface {
	Get(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	Set(ctx context.Context, sessionID string, lines []domain.CartLine) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache is used when no Redis address is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]domain.CartLine, error) {
	return nil, ErrCacheMiss
}

func (NopCache) Set(context.Context, string, []domain.CartLine) error { return nil }

func (NopCache) Delete(context.Context, string) error { return nil }
