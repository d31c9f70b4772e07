// Package ledger is the client for the external token ledger. The ledger is
// an opaque collaborator with a durable, linear transaction history; this
// package only reads and submits transfers, it builds no consensus of its own.
package ledger

import (
	"context"
	"errors"
)

// ErrUnavailable covers transport failures and timeouts talking to the
// ledger. Callers verifying payments must treat it as a failed verification,
// never as proof of payment.
var ErrUnavailable = errors.New("ledger unavailable")

// Operation is the transfer recorded in a block. Absent for non-transfer
// blocks (mint, burn, approve).
type Operation struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type Transaction struct {
	Memo      uint64     `json:"memo"`
	Operation *Operation `json:"operation,omitempty"`
}

type Block struct {
	Transaction Transaction `json:"transaction"`
}

// Client is the ledger contract the marketplace depends on.
type Client interface {
	// Transfer moves amount from the service's own account to the given
	// address and returns the block index of the recorded transfer.
	Transfer(ctx context.Context, to string, amount, memo uint64) (uint64, error)

	// TransferFrom pulls amount from a pre-approved allowance (ICRC-2 style)
	// into the receiver's account, keeping the payer as the recorded sender.
	TransferFrom(ctx context.Context, from, to string, amount, memo uint64) (uint64, error)

	// QueryBlocks returns length blocks starting at start. length 1 is the
	// point lookup used by payment verification.
	QueryBlocks(ctx context.Context, start, length uint64) ([]Block, error)

	TransferFee(ctx context.Context) (uint64, error)

	Balance(ctx context.Context, address string) (uint64, error)
}
