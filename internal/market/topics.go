package market

import "strconv"

const (
	TopicOrderCreated   = "market.order.created"
	TopicOrderCompleted = "market.order.completed"
	TopicOrderExpired   = "market.order.expired"
)

// Partition key = correlation id, so every event of one order keeps its order.
func PartitionKey(correlationID uint64) []byte {
	return []byte(strconv.FormatUint(correlationID, 10))
}
