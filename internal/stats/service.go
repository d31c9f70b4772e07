package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/dacadeorg/icp-azle-201/internal/kafka"
	"github.com/dacadeorg/icp-azle-201/internal/market"
	"github.com/dacadeorg/icp-azle-201/internal/redisx"
)

// Service tails the order event stream and keeps per-product sale/expiry
// counters in Redis. It holds no marketplace state of record; dropping the
// counters loses nothing the order ledger cannot rebuild.
type Service struct {
	Redis       *redis.Client
	ServiceName string
	Log         *slog.Logger
}

// HandleOrderEvent is wired as the consumer handler for the completed and
// expired topics.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup by event id across redeliveries
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case market.EventOrderCompleted:
		p, err := kafkax.UnwrapPayload[market.OrderCompletedPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := s.incr(ctx, "sold", p.ProductID); err != nil {
			return err
		}
		s.Log.Info("order completed",
			"correlation_id", p.CorrelationID, "product_id", p.ProductID, "paid_at_block", p.PaidAtBlock)
	case market.EventOrderExpired:
		p, err := kafkax.UnwrapPayload[market.OrderExpiredPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := s.incr(ctx, "expired", p.ProductID); err != nil {
			return err
		}
		s.Log.Info("order expired",
			"correlation_id", p.CorrelationID, "product_id", p.ProductID)
	default:
		// other event types are not ours to count
	}
	return nil
}

func (s *Service) incr(ctx context.Context, kind, productID string) error {
	key := fmt.Sprintf(redisx.KeyProductStat, kind, productID)
	return s.Redis.Incr(ctx, key).Err()
}
