package market

import (
	"context"
	"sync"
	"time"
)

// DefaultReservationTTL is the payment window for a pending order.
const DefaultReservationTTL = 120 * time.Second

// ReservationStore holds pending orders keyed by correlation id. Resolve is
// an atomic remove-and-return: the completion path and the expiry path both
// race for the entry, and the first caller wins. Backends: in-memory or
// Redis (internal/redisx).
type ReservationStore interface {
	Reserve(ctx context.Context, o PendingOrder, ttl time.Duration) error
	Resolve(ctx context.Context, correlationID uint64) (PendingOrder, bool, error)
	Pending(ctx context.Context) ([]PendingOrder, error)
}

type reservation struct {
	order    PendingOrder
	deadline time.Time
	timer    *time.Timer
}

// MemoryReservations schedules a timer per entry and additionally refuses to
// resolve an entry past its deadline, so a stalled timer never hands out an
// expired reservation. Whichever path removes a dead entry first, timer or
// lazy check, fires OnExpire exactly once.
type MemoryReservations struct {
	mu sync.Mutex
	m  map[uint64]*reservation

	// OnExpire, when set, runs once when a reservation dies unpaid. Expiry
	// is a silent terminal state; the hook is for events and logs only.
	OnExpire func(PendingOrder)
}

func NewMemoryReservations() *MemoryReservations {
	return &MemoryReservations{m: map[uint64]*reservation{}}
}

func (s *MemoryReservations) Reserve(ctx context.Context, o PendingOrder, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := o.CorrelationID
	r := &reservation{order: o, deadline: time.Now().Add(ttl)}
	r.timer = time.AfterFunc(ttl, func() { s.expire(id) })
	s.m[id] = r
	return nil
}

func (s *MemoryReservations) Resolve(ctx context.Context, correlationID uint64) (PendingOrder, bool, error) {
	r, ok := s.remove(correlationID)
	if !ok {
		return PendingOrder{}, false, nil
	}
	if time.Now().After(r.deadline) {
		// the timer has not run yet, but the entry is already dead:
		// this removal is its expiry
		if s.OnExpire != nil {
			s.OnExpire(r.order)
		}
		return PendingOrder{}, false, nil
	}
	return r.order, true, nil
}

func (s *MemoryReservations) Pending(ctx context.Context) ([]PendingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	out := make([]PendingOrder, 0, len(s.m))
	for _, r := range s.m {
		if now.After(r.deadline) {
			continue
		}
		out = append(out, r.order)
	}
	return out, nil
}

// remove is the atomic take shared by the completion and expiry paths.
func (s *MemoryReservations) remove(correlationID uint64) (*reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.m[correlationID]
	if !ok {
		return nil, false
	}
	delete(s.m, correlationID)
	r.timer.Stop()
	return r, true
}

func (s *MemoryReservations) expire(correlationID uint64) {
	r, ok := s.remove(correlationID)
	if !ok {
		return // already completed, or already expired via the lazy check
	}
	if s.OnExpire != nil {
		s.OnExpire(r.order)
	}
}
