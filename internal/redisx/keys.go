package redisx

import "time"

const (
	// Pending reservation: resv:order:{correlation_id} -> PendingOrder JSON.
	// The key TTL is the reservation TTL.
	KeyReservationPrefix = "resv:order:"
	KeyReservation       = KeyReservationPrefix + "%d"

	// Cache status per correlation id: order_status:{correlation_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Auditor counters per product: stats:{kind}:{product_id}, kind = sold | expired
	KeyProductStat = "stats:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
