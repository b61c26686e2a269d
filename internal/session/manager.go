package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_pos/internal/apiclient"
	"github.com/fjod/go_pos/internal/cart"
	"github.com/fjod/go_pos/internal/catalog"
	"github.com/fjod/go_pos/internal/checkout"
	"github.com/fjod/go_pos/internal/composer"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/resource"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	// CleanupInterval is how often idle sessions are looked for
	CleanupInterval = 30 * time.Second

	cacheTimeout = 2 * time.Second
)

// RefData is the shared reference-data loader
type RefData interface {
	catalog.ProductSource
	composer.ReferenceSource
	resource.CategorySource
}

type Remotes struct {
	Products       resource.Remote[domain.Product]
	Categories     resource.Remote[domain.Category]
	Customers      resource.Remote[domain.Customer]
	Employees      resource.Remote[domain.Employee]
	PaymentMethods resource.Remote[domain.PaymentMethod]
	Orders         resource.Remote[domain.Order]
}

// RemotesFromClient binds every back-office screen to the API client
func RemotesFromClient(c *apiclient.Client) Remotes {
	return Remotes{
		Products:       c.Products,
		Categories:     c.Categories,
		Customers:      c.Customers,
		Employees:      c.Employees,
		PaymentMethods: c.PaymentMethods,
		Orders:         c.Orders,
	}
}

type Deps struct {
	RefData   RefData
	Remotes   Remotes
	Orders    checkout.OrderCreator
	Cache     cart.Cache
	Publisher checkout.Publisher
	Logger    zerolog.Logger
}

// Manager owns all live sessions and evicts idle ones in the background
type Manager struct {
	deps Deps
	ttl  time.Duration
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	// creating collapses concurrent first requests for one id
	creating singleflight.Group

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewManager creates the registry and starts the cleanup goroutine
func NewManager(deps Deps, ttl time.Duration) *Manager {
	if deps.Cache == nil {
		deps.Cache = cart.NopCache{}
	}
	m := &Manager{
		deps:        deps,
		ttl:         ttl,
		now:         time.Now,
		sessions:    make(map[string]*Session),
		stopCleanup: make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// cleanupLoop periodically evicts sessions idle longer than the TTL
func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.expireSessions()
		case <-m.stopCleanup:
			return
		}
	}
}

// expireSessions drops every session past its idle TTL. The cart stays in
// the cache so the operator can resume on any replica.
func (m *Manager) expireSessions() {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) && !s.Checkout.State().Status.InFlight() {
			delete(m.sessions, id)
			m.deps.Logger.Debug().Str("session_id", id).Msg("session expired")
		}
	}
}

// Get returns the session for id, creating it on first use. Creation reads
// the cache outside the registry lock so other sessions are not held up.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	if s, ok := m.lookup(id); ok {
		return s
	}

	v, _, _ := m.creating.Do(id, func() (interface{}, error) {
		if s, ok := m.lookup(id); ok {
			return s, nil
		}
		s := m.newSession(context.WithoutCancel(ctx), id)
		m.mu.Lock()
		m.sessions[id] = s
		m.mu.Unlock()
		return s, nil
	})
	return v.(*Session)
}

func (m *Manager) lookup(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the background cleanup and waits for it to finish
func (m *Manager) Close() error {
	close(m.stopCleanup)
	m.wg.Wait()
	return nil
}

func (m *Manager) newSession(ctx context.Context, id string) *Session {
	log := m.deps.Logger.With().Str("session_id", id).Logger()
	s := &Session{ID: id, now: m.now}
	s.lastSeen = m.now()

	s.Cart = cart.New()
	m.rehydrate(ctx, log, s)
	s.Cart.OnChange(func(lines []domain.CartLine) {
		m.mirror(log, id, lines)
	})

	s.Catalog = catalog.NewBrowser(m.deps.RefData, s, log)
	s.Composer = composer.New(m.deps.RefData, s, log)

	opts := []checkout.Option{checkout.WithLogger(log)}
	if m.deps.Publisher != nil {
		opts = append(opts, checkout.WithPublisher(m.deps.Publisher))
	}
	s.Checkout = checkout.NewWorkflow(s.Cart, s.Composer, m.deps.Orders, opts...)

	r := m.deps.Remotes
	s.Products = resource.NewList("products", r.Products, s, log,
		resource.WithEnricher(resource.CategoryNames(m.deps.RefData, log)))
	s.Categories = resource.NewList("categories", r.Categories, s, log)
	s.Customers = resource.NewList("customers", r.Customers, s, log)
	s.Employees = resource.NewList("employees", r.Employees, s, log)
	s.PaymentMethods = resource.NewList("payment methods", r.PaymentMethods, s, log)
	s.Orders = resource.NewList("orders", r.Orders, s, log)

	log.Info().Msg("session created")
	return s
}

func (m *Manager) rehydrate(ctx context.Context, log zerolog.Logger, s *Session) {
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	lines, err := m.deps.Cache.Get(ctx, s.ID)
	switch {
	case errors.Is(err, cart.ErrCacheMiss):
	case err != nil:
		log.Warn().Err(err).Msg("failed to read cart from cache")
	default:
		s.Cart.Restore(lines)
		log.Info().Int("lines", len(lines)).Msg("cart restored from cache")
	}
}

// mirror runs under the cart lock so writes reach the cache in mutation
// order. Failures never fail the cart operation.
func (m *Manager) mirror(log zerolog.Logger, id string, lines []domain.CartLine) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	if err := m.deps.Cache.Set(ctx, id, lines); err != nil {
		log.Warn().Err(err).Msg("failed to write cart to cache")
	}
}
