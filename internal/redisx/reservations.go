package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dacadeorg/icp-azle-201/internal/market"
)

// Reservations stores pending orders in Redis with the reservation TTL as
// the key TTL, so expiry needs no timer of its own. Resolve uses GETDEL,
// which is the atomic remove-and-return the reconciliation protocol needs:
// racing completion and expiry, exactly one caller sees the value.
type Reservations struct {
	RDB *redis.Client
}

func (s *Reservations) Reserve(ctx context.Context, o market.PendingOrder, ttl time.Duration) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(KeyReservation, o.CorrelationID)
	return s.RDB.Set(ctx, key, b, ttl).Err()
}

func (s *Reservations) Resolve(ctx context.Context, correlationID uint64) (market.PendingOrder, bool, error) {
	key := fmt.Sprintf(KeyReservation, correlationID)
	b, err := s.RDB.GetDel(ctx, key).Bytes()
	if err == redis.Nil {
		return market.PendingOrder{}, false, nil
	}
	if err != nil {
		return market.PendingOrder{}, false, err
	}
	var o market.PendingOrder
	if err := json.Unmarshal(b, &o); err != nil {
		return market.PendingOrder{}, false, err
	}
	return o, true, nil
}

func (s *Reservations) Pending(ctx context.Context) ([]market.PendingOrder, error) {
	var out []market.PendingOrder
	iter := s.RDB.Scan(ctx, 0, KeyReservationPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		b, err := s.RDB.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, err
		}
		var o market.PendingOrder
		if err := json.Unmarshal(b, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ market.ReservationStore = (*Reservations)(nil)
