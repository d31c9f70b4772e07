package market

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// NewCorrelationID derives the memo that ties a ledger transfer back to a
// pending order. The uuid salt keeps concurrent orders for the same
// product/buyer pair from colliding.
func NewCorrelationID(productID, buyer string) uint64 {
	seed := fmt.Sprintf("%s|%s|%d|%s", productID, buyer, time.Now().UnixNano(), uuid.NewString())
	return xxhash.Sum64String(seed)
}
