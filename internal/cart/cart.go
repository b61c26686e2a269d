package cart

import (
	"sync"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/shopspring/decimal"
)

// Cart is the in-memory cart of one point-of-sale session. Lines keep
// insertion order and there is at most one line per product.
type Cart struct {
	mu       sync.RWMutex
	lines    []domain.CartLine
	onChange func(lines []domain.CartLine)
}

func New() *Cart {
	return &Cart{}
}

// OnChange registers fn to receive a copy of the lines after every
// mutation. fn runs under the cart lock so calls arrive in mutation order.
func (c *Cart) OnChange(fn func(lines []domain.CartLine)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Add increments the product's line or inserts a new one with quantity 1
// and the product's current price.
func (c *Cart) Add(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.find(p.ID); i >= 0 {
		c.lines[i].Quantity++
	} else {
		c.lines = append(c.lines, domain.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  1,
		})
	}
	c.changed()
}

// Decrement lowers the quantity by one and drops the line when it would
// reach zero. Unknown products are ignored.
func (c *Cart) Decrement(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.find(productID)
	if i < 0 {
		return
	}
	if c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
	} else {
		c.removeAt(i)
	}
	c.changed()
}

func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.find(productID)
	if i < 0 {
		return
	}
	c.removeAt(i)
	c.changed()
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	c.changed()
}

// Subtract takes the quantities of lines out of the cart, dropping lines
// that reach zero. Products added after lines were read are kept.
func (c *Cart) Subtract(lines []domain.CartLine) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range lines {
		i := c.find(l.ProductID)
		if i < 0 {
			continue
		}
		if c.lines[i].Quantity > l.Quantity {
			c.lines[i].Quantity -= l.Quantity
		} else {
			c.removeAt(i)
		}
	}
	c.changed()
}

// Restore replaces the contents with lines loaded from the session cache.
// Non-positive quantities are dropped and duplicate products merged.
func (c *Cart) Restore(lines []domain.CartLine) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i := c.find(l.ProductID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
}

func (c *Cart) Lines() []domain.CartLine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyLines()
}

func (c *Cart) SubTotal() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

func (c *Cart) TotalItemCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines) == 0
}

func (c *Cart) find(productID int64) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

func (c *Cart) copyLines() []domain.CartLine {
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) changed() {
	if c.onChange != nil {
		c.onChange(c.copyLines())
	}
}
