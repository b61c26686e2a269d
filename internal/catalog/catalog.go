package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/rs/zerolog"
)

var ErrProductNotFound = errors.New("product not found in catalog")

type ProductSource interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

type Notifier interface {
	Notify(source, message string)
}

// Browser holds the purchasable items of one POS screen.
type Browser struct {
	src    ProductSource
	notify Notifier
	log    zerolog.Logger

	mu       sync.RWMutex
	products []domain.Product
	loading  bool
}

func NewBrowser(src ProductSource, notify Notifier, log zerolog.Logger) *Browser {
	return &Browser{src: src, notify: notify, log: log, loading: true}
}

// Load fetches the catalog. On failure the previous items stay visible and
// the operator is notified; the browser still leaves the loading state.
func (b *Browser) Load(ctx context.Context) error {
	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	products, err := b.src.Products(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	if err != nil {
		b.log.Error().Ctx(ctx).Err(err).Msg("failed to fetch products")
		b.notify.Notify("catalog", "Failed to fetch products.")
		return err
	}
	b.products = products
	return nil
}

func (b *Browser) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

// Filter returns products whose name or category name contains term,
// ignoring case. An empty term returns everything.
func (b *Browser) Filter(term string) []domain.Product {
	b.mu.RLock()
	defer b.mu.RUnlock()

	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.Product, 0, len(b.products))
	for _, p := range b.products {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.CategoryName), term) {
			out = append(out, p)
		}
	}
	return out
}

func (b *Browser) Find(id int64) (domain.Product, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, p := range b.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, ErrProductNotFound
}
