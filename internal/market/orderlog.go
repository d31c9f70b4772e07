package market

import (
	"context"
	"sync"
)

// OrderLedger is the append-only record of completed orders. Entries are
// keyed by correlation id and indexed by buyer for history queries.
type OrderLedger interface {
	Append(ctx context.Context, o CompletedOrder) error
	ListByBuyer(ctx context.Context, buyer string) ([]CompletedOrder, error)
}

// MemoryOrderLedger keeps the log in process memory.
type MemoryOrderLedger struct {
	mu      sync.RWMutex
	log     []CompletedOrder
	byBuyer map[string][]int
}

func NewMemoryOrderLedger() *MemoryOrderLedger {
	return &MemoryOrderLedger{byBuyer: map[string][]int{}}
}

func (l *MemoryOrderLedger) Append(ctx context.Context, o CompletedOrder) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = append(l.log, o)
	l.byBuyer[o.Buyer] = append(l.byBuyer[o.Buyer], len(l.log)-1)
	return nil
}

func (l *MemoryOrderLedger) ListByBuyer(ctx context.Context, buyer string) ([]CompletedOrder, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx := l.byBuyer[buyer]
	out := make([]CompletedOrder, 0, len(idx))
	for _, i := range idx {
		out = append(out, l.log[i])
	}
	return out, nil
}
