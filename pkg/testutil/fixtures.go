package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
)

// ItemOption mutates an item fixture before it is returned
type ItemOption func(*repository.Item)

// FixtureFactory creates test entities with sensible defaults. The
// sequence keeps generated internal codes unique within a process.
type FixtureFactory struct {
	sequence atomic.Int64
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

// Item creates an active feed item with a healthy balance. IDs and
// timestamps are left for the repository to assign on Create.
func (f *FixtureFactory) Item(opts ...ItemOption) *repository.Item {
	seq := f.sequence.Add(1)

	item := &repository.Item{
		InternalCode:   fmt.Sprintf("FEE%04d", seq),
		Name:           fmt.Sprintf("Test Feed %d", seq),
		Category:       repository.CategoryFeed,
		Unit:           "kg",
		CurrentBalance: decimal.NewFromInt(100),
		MinimumBalance: decimal.NewFromInt(20),
		IsActive:       true,
	}

	for _, opt := range opts {
		opt(item)
	}

	return item
}

// WithItemName sets the item name
func WithItemName(name string) ItemOption {
	return func(i *repository.Item) {
		i.Name = name
	}
}

// WithInternalCode sets the item internal code
func WithInternalCode(code string) ItemOption {
	return func(i *repository.Item) {
		i.InternalCode = code
	}
}

// WithCategory sets the item category
func WithCategory(category repository.ItemCategory) ItemOption {
	return func(i *repository.Item) {
		i.Category = category
	}
}

// WithBalance sets the item's current and minimum balance
func WithBalance(current, minimum int64) ItemOption {
	return func(i *repository.Item) {
		i.CurrentBalance = decimal.NewFromInt(current)
		i.MinimumBalance = decimal.NewFromInt(minimum)
	}
}

// WithExpiry sets the item expiry date
func WithExpiry(expiry time.Time) ItemOption {
	return func(i *repository.Item) {
		i.ExpiryDate = PtrTime(expiry)
	}
}

// WithInactive marks the item inactive
func WithInactive() ItemOption {
	return func(i *repository.Item) {
		i.IsActive = false
	}
}
