package domain

import "github.com/shopspring/decimal"

func init() {
	// the remote API reads and writes money as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Entity is a record managed by a back-office screen. T is the record type
// itself so WithKey can hand back a copy.
type Entity[T any] interface {
	Key() int64
	// WithKey returns a copy carrying id as its identifier.
	WithKey(id int64) T
	// Label is the primary display field, used by screen search.
	Label() string
	Validate() error
}
