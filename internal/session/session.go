package session

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_pos/internal/cart"
	"github.com/fjod/go_pos/internal/catalog"
	"github.com/fjod/go_pos/internal/checkout"
	"github.com/fjod/go_pos/internal/composer"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/resource"
)

// MaxNotifications bounds the queue; the oldest entries are dropped first.
const MaxNotifications = 50

type Notification struct {
	Source  string    `json:"source"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Session is one operator's workspace: the POS screen plus one list per
// back-office screen.
type Session struct {
	ID string

	Cart     *cart.Cart
	Catalog  *catalog.Browser
	Composer *composer.Composer
	Checkout *checkout.Workflow

	Products       *resource.List[domain.Product]
	Categories     *resource.List[domain.Category]
	Customers      *resource.List[domain.Customer]
	Employees      *resource.List[domain.Employee]
	PaymentMethods *resource.List[domain.PaymentMethod]
	Orders         *resource.List[domain.Order]

	now     func() time.Time
	posOnce sync.Once

	mu            sync.Mutex
	lastSeen      time.Time
	notifications []Notification
}

// Notify queues a non-blocking message for the operator
func (s *Session) Notify(source, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, Notification{Source: source, Message: message, At: s.now()})
	if over := len(s.notifications) - MaxNotifications; over > 0 {
		s.notifications = append([]Notification(nil), s.notifications[over:]...)
	}
}

// DrainNotifications returns and clears the queued messages
func (s *Session) DrainNotifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.notifications
	s.notifications = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// MountPOS loads the catalog and the composer's reference data the first
// time the POS screen is opened. Both loads run concurrently and report
// their own failures through Notify.
func (s *Session) MountPOS(ctx context.Context) {
	s.posOnce.Do(func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Catalog.Load(ctx)
		}()
		go func() {
			defer wg.Done()
			_ = s.Composer.Load(ctx)
		}()
		wg.Wait()
	})
}

// ResetCheckout starts a new order cycle after a finished checkout
func (s *Session) ResetCheckout() error {
	if err := s.Checkout.Reset(); err != nil {
		return err
	}
	s.Composer.ResetSelection()
	return nil
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
