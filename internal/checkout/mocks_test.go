package checkout

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fjod/go_pos/internal/composer"
	"github.com/fjod/go_pos/internal/domain"
)

type mockComposer struct {
	sel   composer.Selection
	names composer.Names
}

func (m *mockComposer) Selection() composer.Selection { return m.sel }

func (m *mockComposer) Names(composer.Selection) composer.Names { return m.names }

type mockOrders struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	order   *domain.Order
	err     error

	mu   sync.Mutex
	last domain.OrderRequest
}

func (m *mockOrders) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.last = req
	m.mu.Unlock()

	if m.started != nil {
		close(m.started)
	}
	if m.release != nil {
		<-m.release
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

type mockPublisher struct {
	published []domain.OrderSnapshot
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, snapshot domain.OrderSnapshot) error {
	m.published = append(m.published, snapshot)
	return m.err
}
