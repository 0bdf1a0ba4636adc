package testutil

import (
	"fmt"
	"time"
)

// ItemFixture represents test catalogue item data
type ItemFixture struct {
	SKU             string
	Name            string
	ShelfLifeDays   *int
	ShelfLifeMonths *int
}

// BatchFixture represents test batch metadata
type BatchFixture struct {
	WarehouseID    int64
	ItemID         int64
	BatchCode      string
	ProductionDate *time.Time
	ExpiryDate     *time.Time
}

// LedgerEntryFixture represents a test ledger row, the unit CountWorkflow,
// ReceiptWorkflow, and ShipWorkflow all ultimately write through
// StockMutator.
type LedgerEntryFixture struct {
	WarehouseID int64
	ItemID      int64
	BatchCode   *string
	Reason      string
	Ref         string
	RefLine     int
	Delta       int
	OccurredAt  time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Item creates a catalogue item fixture with defaults: no shelf life, so
// RequiresBatch() is false unless an option sets one.
func (f *FixtureFactory) Item(opts ...func(*ItemFixture)) ItemFixture {
	seq := f.nextSeq()

	item := ItemFixture{
		SKU:  fmt.Sprintf("SKU-%04d", seq),
		Name: fmt.Sprintf("Test Item %d", seq),
	}

	for _, opt := range opts {
		opt(&item)
	}

	return item
}

// WithShelfLifeDays gives the item a finite shelf life in days, making
// RequiresBatch() true.
func WithShelfLifeDays(days int) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.ShelfLifeDays = &days
	}
}

// WithShelfLifeMonths gives the item a finite shelf life in calendar
// months, the mutually-exclusive alternative to WithShelfLifeDays.
func WithShelfLifeMonths(months int) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.ShelfLifeMonths = &months
	}
}

// WithSKU overrides the generated SKU.
func WithSKU(sku string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.SKU = sku
	}
}

// WithItemName overrides the generated item name.
func WithItemName(name string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.Name = name
	}
}

// Batch creates a batch fixture for the given warehouse/item with defaults.
func (f *FixtureFactory) Batch(warehouseID, itemID int64, opts ...func(*BatchFixture)) BatchFixture {
	seq := f.nextSeq()

	batch := BatchFixture{
		WarehouseID: warehouseID,
		ItemID:      itemID,
		BatchCode:   fmt.Sprintf("LOT-%04d", seq),
	}

	for _, opt := range opts {
		opt(&batch)
	}

	return batch
}

// WithProductionDate sets the batch's production date.
func WithProductionDate(d time.Time) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.ProductionDate = &d
	}
}

// WithExpiryDate sets the batch's expiry date.
func WithExpiryDate(d time.Time) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.ExpiryDate = &d
	}
}

// LedgerEntry creates a ledger entry fixture for a RECEIPT at warehouseID
// against itemID, the common case most workflow tests build on.
func (f *FixtureFactory) LedgerEntry(warehouseID, itemID int64, opts ...func(*LedgerEntryFixture)) LedgerEntryFixture {
	seq := f.nextSeq()

	entry := LedgerEntryFixture{
		WarehouseID: warehouseID,
		ItemID:      itemID,
		Reason:      "RECEIPT",
		Ref:         fmt.Sprintf("PO-%04d", seq),
		RefLine:     1,
		Delta:       10,
		OccurredAt:  time.Now(),
	}

	for _, opt := range opts {
		opt(&entry)
	}

	return entry
}

// WithBatchCode sets the ledger entry's batch code.
func WithBatchCode(code string) func(*LedgerEntryFixture) {
	return func(e *LedgerEntryFixture) {
		e.BatchCode = &code
	}
}

// WithReason sets the ledger entry's raw reason string.
func WithReason(reason string) func(*LedgerEntryFixture) {
	return func(e *LedgerEntryFixture) {
		e.Reason = reason
	}
}

// WithDelta sets the ledger entry's signed quantity delta.
func WithDelta(delta int) func(*LedgerEntryFixture) {
	return func(e *LedgerEntryFixture) {
		e.Delta = delta
	}
}

// WithRef sets the ledger entry's idempotency reference.
func WithRef(ref string, line int) func(*LedgerEntryFixture) {
	return func(e *LedgerEntryFixture) {
		e.Ref = ref
		e.RefLine = line
	}
}
