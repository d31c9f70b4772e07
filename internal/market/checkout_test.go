package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacadeorg/icp-azle-201/internal/ledger"
)

type checkoutFixture struct {
	checkout *Checkout
	catalog  *Catalog
	store    *MemoryReservations
	orders   *MemoryOrderLedger
	ledger   *fakeLedger
	product  Product
}

func newCheckoutFixture(t *testing.T, ttl time.Duration) *checkoutFixture {
	t.Helper()
	fl := &fakeLedger{blocks: map[uint64]ledger.Block{}, fee: 10_000}
	catalog := newCatalog()
	store := NewMemoryReservations()
	orders := NewMemoryOrderLedger()

	p, err := catalog.Add(context.Background(), "seller-1", validInput())
	require.NoError(t, err)

	return &checkoutFixture{
		checkout: &Checkout{
			Catalog:      catalog,
			Reservations: store,
			Orders:       orders,
			Verifier:     &Verifier{Ledger: fl},
			Ledger:       fl,
			TTL:          ttl,
			Mode:         ModeTransfer,
		},
		catalog: catalog,
		store:   store,
		orders:  orders,
		ledger:  fl,
		product: p,
	}
}

// payFor records the buyer's transfer on the fake ledger and returns its
// block index, standing in for the out-of-band payment step.
func (f *checkoutFixture) payFor(o PendingOrder) uint64 {
	const idx = uint64(7)
	f.ledger.blocks[idx] = blockFor(o.Buyer, ledger.AccountIdentifier(o.Seller), o.Price, o.CorrelationID)
	return idx
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newCheckoutFixture(t, time.Minute)

	_, err := f.checkout.CreateOrder(context.Background(), "buyer-1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	pending, err := f.store.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending, "failed creation must leave no reservation")
}

func TestCreateOrderReserves(t *testing.T) {
	f := newCheckoutFixture(t, time.Minute)

	o, err := f.checkout.CreateOrder(context.Background(), "buyer-1", f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentPending, o.Status)
	assert.Equal(t, f.product.PriceMinorUnits, o.Price)
	assert.Equal(t, "seller-1", o.Seller)
	assert.NotZero(t, o.CorrelationID)

	pending, err := f.checkout.PendingOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, o.CorrelationID, pending[0].CorrelationID)
}

func TestCompletePurchaseHappyPath(t *testing.T) {
	f := newCheckoutFixture(t, time.Minute)
	ctx := context.Background()

	o, err := f.checkout.CreateOrder(ctx, "buyer-1", f.product.ID)
	require.NoError(t, err)
	idx := f.payFor(o)

	done, err := f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, idx, o.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, idx, done.PaidAtBlock)
	assert.Equal(t, o.CorrelationID, done.CorrelationID)

	got, err := f.catalog.Get(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.SoldCount)

	history, err := f.checkout.History(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, done, history[0])

	// the reservation is spent; completing again fails
	_, err = f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, idx, o.CorrelationID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, _ = f.catalog.Get(ctx, f.product.ID)
	assert.Equal(t, uint64(1), got.SoldCount, "double completion must not double count")
}

func TestCompletePurchaseBadBlockKeepsReservation(t *testing.T) {
	f := newCheckoutFixture(t, time.Minute)
	ctx := context.Background()

	o, err := f.checkout.CreateOrder(ctx, "buyer-1", f.product.ID)
	require.NoError(t, err)
	idx := f.payFor(o)

	// wrong block index first
	_, err = f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, idx+1, o.CorrelationID)
	assert.ErrorIs(t, err, ErrPaymentVerificationFailed)

	got, _ := f.catalog.Get(ctx, f.product.ID)
	assert.Equal(t, uint64(0), got.SoldCount, "failed verification must not record a sale")

	// reservation survived, corrected retry succeeds
	done, err := f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, idx, o.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
}

func TestCompletePurchaseAfterExpiry(t *testing.T) {
	f := newCheckoutFixture(t, 20*time.Millisecond)
	ctx := context.Background()

	o, err := f.checkout.CreateOrder(ctx, "buyer-1", f.product.ID)
	require.NoError(t, err)
	idx := f.payFor(o)

	time.Sleep(60 * time.Millisecond)

	// fully valid block, but the payment window is over
	_, err = f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, idx, o.CorrelationID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, _ := f.catalog.Get(ctx, f.product.ID)
	assert.Equal(t, uint64(0), got.SoldCount)

	history, err := f.checkout.History(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCompletePurchaseWithinTTL(t *testing.T) {
	// the 5-token example: TTL window respected when completion is prompt
	f := newCheckoutFixture(t, 2*time.Second)
	ctx := context.Background()

	o, err := f.checkout.CreateOrder(ctx, "buyer-1", f.product.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(500_000_000), o.Price)
	idx := f.payFor(o)

	done, err := f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, idx, o.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)

	got, _ := f.catalog.Get(ctx, f.product.ID)
	assert.Equal(t, uint64(1), got.SoldCount)
}

func TestAllowanceModePullsTransfer(t *testing.T) {
	f := newCheckoutFixture(t, time.Minute)
	f.checkout.Mode = ModeAllowance
	ctx := context.Background()

	o, err := f.checkout.CreateOrder(ctx, "buyer-1", f.product.ID)
	require.NoError(t, err)

	// no out-of-band payment, no claimed block: the service pulls the funds
	done, err := f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, 0, o.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.NotZero(t, done.PaidAtBlock, "paid-at block comes from the pull transfer")

	// the pull transfer is on the ledger with the right attribution
	blocks, err := f.ledger.QueryBlocks(ctx, done.PaidAtBlock, 1)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	op := blocks[0].Transaction.Operation
	require.NotNil(t, op)
	assert.Equal(t, ledger.AccountIdentifier("buyer-1"), op.From)
	assert.Equal(t, ledger.AccountIdentifier("seller-1"), op.To)
	assert.Equal(t, o.Price, op.Amount)
	assert.Equal(t, o.CorrelationID, blocks[0].Transaction.Memo)
}

func TestAllowanceModeLedgerFailure(t *testing.T) {
	f := newCheckoutFixture(t, time.Minute)
	f.checkout.Mode = ModeAllowance
	f.ledger.fromErr = ledger.ErrUnavailable
	ctx := context.Background()

	o, err := f.checkout.CreateOrder(ctx, "buyer-1", f.product.ID)
	require.NoError(t, err)

	_, err = f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, 0, o.CorrelationID)
	assert.ErrorIs(t, err, ErrPaymentVerificationFailed)

	// reservation intact, retry succeeds once the ledger is back
	f.ledger.fromErr = nil
	done, err := f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, 0, o.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
}

func TestCompletePurchaseDeletedProduct(t *testing.T) {
	f := newCheckoutFixture(t, time.Minute)
	ctx := context.Background()

	o, err := f.checkout.CreateOrder(ctx, "buyer-1", f.product.ID)
	require.NoError(t, err)
	idx := f.payFor(o)

	_, err = f.catalog.Delete(ctx, f.product.ID)
	require.NoError(t, err)

	// valid block, but the listing is gone; the reservation must survive
	_, err = f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, idx, o.CorrelationID)
	assert.ErrorIs(t, err, ErrNotFound)

	pending, err := f.store.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "failed completion must not consume the reservation")

	history, err := f.checkout.History(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, history, "no completed order may be recorded")
}

// failingOrderLedger rejects the first n appends and delegates afterwards.
type failingOrderLedger struct {
	*MemoryOrderLedger
	failures int
}

func (l *failingOrderLedger) Append(ctx context.Context, o CompletedOrder) error {
	if l.failures > 0 {
		l.failures--
		return assert.AnError
	}
	return l.MemoryOrderLedger.Append(ctx, o)
}

func TestCompletePurchaseAppendFailureIsRetryable(t *testing.T) {
	f := newCheckoutFixture(t, time.Minute)
	flaky := &failingOrderLedger{MemoryOrderLedger: f.orders, failures: 1}
	f.checkout.Orders = flaky
	ctx := context.Background()

	o, err := f.checkout.CreateOrder(ctx, "buyer-1", f.product.ID)
	require.NoError(t, err)
	idx := f.payFor(o)

	_, err = f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, idx, o.CorrelationID)
	require.Error(t, err)

	got, _ := f.catalog.Get(ctx, f.product.ID)
	assert.Equal(t, uint64(0), got.SoldCount, "aborted completion must not keep the sale counted")
	history, err := f.checkout.History(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, history)
	pending, err := f.store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "reservation must be back after the aborted completion")

	// the same request succeeds once the order log accepts writes again
	done, err := f.checkout.CompletePurchase(ctx, "buyer-1", o.Seller, o.ProductID, o.Price, idx, o.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	got, _ = f.catalog.Get(ctx, f.product.ID)
	assert.Equal(t, uint64(1), got.SoldCount)
}

func TestMissingBuyerRejected(t *testing.T) {
	f := newCheckoutFixture(t, time.Minute)
	ctx := context.Background()

	_, err := f.checkout.CreateOrder(ctx, "", f.product.ID)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = f.checkout.CompletePurchase(ctx, "", "seller-1", f.product.ID, 1, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
