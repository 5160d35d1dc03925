// Package notify is the engine's notification port. State-changing
// components emit typed signals; the presentation layer decides how to
// render them. Emission happens once per logical action, never from a
// render path, so a signal cannot be duplicated by re-reads.
package notify

import (
	"sync"
	"time"
)

// Category classifies a signal for the UI layer.
type Category string

const (
	CategoryInfo     Category = "info"
	CategoryWarning  Category = "warning"
	CategoryTerminal Category = "terminal"
)

// Codes for every signal the engine emits. Each rejected operation maps to
// a distinct code so the UI can show a distinct, human-readable message.
const (
	CodeItemAdded         = "item_added"
	CodeStockLimitReached = "stock_limit_reached"
	CodeInsufficientStock = "insufficient_stock"
	CodeCartEmpty         = "cart_empty"
	CodeMissingBuyerPhone = "missing_buyer_phone"
	CodeCheckoutBusy      = "checkout_busy"
	CodeSaleSucceeded     = "sale_succeeded"
	CodeSaleFailed        = "sale_failed"
)

// Event is one user-facing signal.
type Event struct {
	Category Category  `json:"category"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Notifier receives signals addressed to a seller's session.
type Notifier interface {
	Publish(sellerID int64, event Event)
}

const defaultBufferSize = 64

// Bus buffers signals per seller until the UI drains them. When a buffer
// overflows the oldest events are dropped; signals are notices, not an
// audit log.
type Bus struct {
	mu      sync.Mutex
	pending map[int64][]Event
	size    int
}

func NewBus() *Bus {
	return &Bus{
		pending: make(map[int64][]Event),
		size:    defaultBufferSize,
	}
}

func (b *Bus) Publish(sellerID int64, event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	queue := append(b.pending[sellerID], event)
	if len(queue) > b.size {
		queue = queue[len(queue)-b.size:]
	}
	b.pending[sellerID] = queue
}

// Drain returns and clears the seller's pending signals in emission order.
func (b *Bus) Drain(sellerID int64) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	queue := b.pending[sellerID]
	delete(b.pending, sellerID)
	return queue
}

func Info(code, message string) Event {
	return Event{Category: CategoryInfo, Code: code, Message: message}
}

func Warning(code, message string) Event {
	return Event{Category: CategoryWarning, Code: code, Message: message}
}

func Terminal(code, message string) Event {
	return Event{Category: CategoryTerminal, Code: code, Message: message}
}
