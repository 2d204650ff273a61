package checkout

import (
	"errors"
	"sync"
	"time"

	"homestay/internal/models"
)

var ErrReceiptNotFound = errors.New("receipt not found")

// Receipt records a paid checkout.
type Receipt struct {
	ID            string               `json:"id"`
	TransactionID string               `json:"transaction_id"`
	CardHolder    string               `json:"card_holder"`
	CardLast4     string               `json:"card_last4,omitempty"`
	Items         []models.BookingItem `json:"items"`
	Total         int64                `json:"total"`
	Currency      string               `json:"currency"`
	PaidAt        time.Time            `json:"paid_at"`
}

// ReceiptBook keeps receipts of the current process for lookup and export.
type ReceiptBook struct {
	mu       sync.RWMutex
	receipts map[string]Receipt
	order    []string
}

func NewReceiptBook() *ReceiptBook {
	return &ReceiptBook{receipts: make(map[string]Receipt)}
}

func (b *ReceiptBook) Add(r Receipt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.receipts[r.ID]; !exists {
		b.order = append(b.order, r.ID)
	}
	b.receipts[r.ID] = r
}

func (b *ReceiptBook) Get(id string) (Receipt, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.receipts[id]
	if !ok {
		return Receipt{}, ErrReceiptNotFound
	}
	return r, nil
}

// List returns receipts oldest first.
func (b *ReceiptBook) List() []Receipt {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Receipt, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.receipts[id])
	}
	return out
}
