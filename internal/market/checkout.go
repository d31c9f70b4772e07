package market

import (
	"context"
	"fmt"
	"time"

	"github.com/dacadeorg/icp-azle-201/internal/ledger"
)

// Mode selects how a purchase is settled.
type Mode string

const (
	// ModeTransfer is the split protocol: the buyer performs the ledger
	// transfer with their own identity and hands the block index back. The
	// service cannot transfer on the buyer's behalf without losing the
	// correct sender attribution.
	ModeTransfer Mode = "transfer"

	// ModeAllowance has the service pull a pre-approved allowance from the
	// buyer's account itself (ICRC-2 style), so checkout is a single call.
	ModeAllowance Mode = "allowance"
)

// Checkout orchestrates the reconciliation protocol:
// reservation -> external payment -> verification -> completion or expiry.
type Checkout struct {
	Catalog      *Catalog
	Reservations ReservationStore
	Orders       OrderLedger
	Verifier     *Verifier
	Ledger       ledger.Client
	TTL          time.Duration
	Mode         Mode
}

// CreateOrder reserves a pending order for the buyer. The returned order
// carries the correlation id the buyer must use as the transfer memo.
func (s *Checkout) CreateOrder(ctx context.Context, buyer, productID string) (PendingOrder, error) {
	if buyer == "" {
		return PendingOrder{}, ErrInvalidPayload
	}
	p, err := s.Catalog.Get(ctx, productID)
	if err != nil {
		return PendingOrder{}, err
	}
	o := PendingOrder{
		ProductID:     p.ID,
		Price:         p.PriceMinorUnits,
		Seller:        p.Seller,
		Buyer:         buyer,
		Status:        StatusPaymentPending,
		CorrelationID: NewCorrelationID(p.ID, buyer),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Reservations.Reserve(ctx, o, s.ttl()); err != nil {
		return PendingOrder{}, err
	}
	return o, nil
}

// CompletePurchase settles a pending order. In transfer mode the buyer's
// claimed block must verify; a failed verification leaves the reservation
// untouched so the buyer can retry before the TTL. Only after settlement does
// the correlation id get resolved, and the atomic remove guarantees completion
// and expiry can never both win. A write failure past that point puts the
// reservation back for the rest of its window, so the call stays retryable
// without partial state.
func (s *Checkout) CompletePurchase(ctx context.Context, buyer, seller, productID string, price, blockIndex, correlationID uint64) (CompletedOrder, error) {
	if buyer == "" {
		return CompletedOrder{}, ErrInvalidPayload
	}
	// A delisted product fails before any money moves or the reservation
	// is consumed.
	if _, err := s.Catalog.Get(ctx, productID); err != nil {
		return CompletedOrder{}, err
	}

	paidAt := blockIndex
	switch s.Mode {
	case ModeAllowance:
		idx, err := s.Ledger.TransferFrom(ctx,
			ledger.AccountIdentifier(buyer), ledger.AccountIdentifier(seller), price, correlationID)
		if err != nil {
			return CompletedOrder{}, fmt.Errorf("%w: %v", ErrPaymentVerificationFailed, err)
		}
		paidAt = idx
	default:
		if !s.Verifier.Verify(ctx, buyer, ledger.AccountIdentifier(seller), price, blockIndex, correlationID) {
			return CompletedOrder{}, ErrPaymentVerificationFailed
		}
	}

	pending, ok, err := s.Reservations.Resolve(ctx, correlationID)
	if err != nil {
		return CompletedOrder{}, err
	}
	if !ok {
		// Already expired or already completed. A verified payment against a
		// dead correlation id still fails here; the TTL window is the deal.
		return CompletedOrder{}, ErrNotFound
	}

	done := CompletedOrder{
		ProductID:     pending.ProductID,
		Price:         pending.Price,
		Seller:        pending.Seller,
		Buyer:         pending.Buyer,
		Status:        StatusCompleted,
		PaidAtBlock:   paidAt,
		CorrelationID: pending.CorrelationID,
		CompletedAt:   time.Now().UTC(),
	}
	if err := s.Catalog.RecordSale(ctx, pending.ProductID); err != nil {
		s.reinstate(ctx, pending)
		return CompletedOrder{}, err
	}
	if err := s.Orders.Append(ctx, done); err != nil {
		_ = s.Catalog.revertSale(ctx, pending.ProductID)
		s.reinstate(ctx, pending)
		return CompletedOrder{}, err
	}
	return done, nil
}

func (s *Checkout) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultReservationTTL
	}
	return s.TTL
}

// reinstate puts a resolved reservation back for whatever remains of its
// original payment window.
func (s *Checkout) reinstate(ctx context.Context, o PendingOrder) {
	remaining := time.Until(o.CreatedAt.Add(s.ttl()))
	if remaining <= 0 {
		return
	}
	_ = s.Reservations.Reserve(ctx, o, remaining)
}

// History returns the buyer's completed orders.
func (s *Checkout) History(ctx context.Context, buyer string) ([]CompletedOrder, error) {
	return s.Orders.ListByBuyer(ctx, buyer)
}

// PendingOrders lists reservations still inside their payment window.
func (s *Checkout) PendingOrders(ctx context.Context) ([]PendingOrder, error) {
	return s.Reservations.Pending(ctx)
}
