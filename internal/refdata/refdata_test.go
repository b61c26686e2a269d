package refdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (m *mockSource) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.calls.Add(1)
	if m.release != nil {
		<-m.release
	}
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Product{{ID: 1, Name: "Tea"}, {ID: 2, Name: "Cake"}}, nil
}

func (m *mockSource) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 1, Name: "Drinks"}}, nil
}

func (m *mockSource) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return nil, m.err
}

func (m *mockSource) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	return nil, m.err
}

func (m *mockSource) ListOrderStatuses(ctx context.Context) ([]domain.OrderStatus, error) {
	return nil, m.err
}

func TestLoader_ConcurrentCallsShareOneRequest(t *testing.T) {
	src := &mockSource{release: make(chan struct{})}
	l := NewLoader(src)

	var wg sync.WaitGroup
	results := make([][]domain.Product, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := l.Products(context.Background())
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for _, res := range results {
		assert.Len(t, res, 2)
	}
}

func TestLoader_CallersGetIndependentSlices(t *testing.T) {
	l := NewLoader(&mockSource{})

	a, err := l.Products(context.Background())
	require.NoError(t, err)
	a[0].Name = "changed"

	b, err := l.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Tea", b[0].Name)
}

func TestLoader_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	l := NewLoader(&mockSource{err: boom})

	_, err := l.Products(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestLoader_CallerCancellationStopsWaiting(t *testing.T) {
	src := &mockSource{release: make(chan struct{})}
	defer close(src.release)
	l := NewLoader(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Products(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
