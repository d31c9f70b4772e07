package market

import (
	"errors"

	"github.com/dacadeorg/icp-azle-201/internal/ledger"
)

var (
	// ErrNotFound covers missing products and unresolvable correlation ids.
	// An expired reservation surfaces as ErrNotFound on late completion.
	ErrNotFound = errors.New("not found")

	ErrInvalidPayload = errors.New("invalid payload")

	// ErrPaymentVerificationFailed means the claimed ledger transfer does not
	// match the order. The reservation stays live; the buyer may retry with a
	// corrected block index before the TTL runs out.
	ErrPaymentVerificationFailed = errors.New("payment verification failed")

	// ErrLedgerUnavailable is the ledger client's transport failure surfaced
	// through this package's API.
	ErrLedgerUnavailable = ledger.ErrUnavailable
)
