package market

import (
	"context"

	"github.com/dacadeorg/icp-azle-201/internal/ledger"
)

// Verifier confirms a claimed ledger transfer against ledger history. It is a
// point check: the caller supplies the exact block index it got back from the
// transfer, never a scan range.
type Verifier struct {
	Ledger ledger.Client
}

// Verify fetches the single block at blockIndex and requires all of: memo,
// sender address, receiver address, and amount match the claim. Any ledger
// error fails closed: an unverifiable order is never completed.
func (v *Verifier) Verify(ctx context.Context, payer, receiver string, amount, blockIndex, memo uint64) bool {
	blocks, err := v.Ledger.QueryBlocks(ctx, blockIndex, 1)
	if err != nil || len(blocks) == 0 {
		return false
	}
	tx := blocks[0].Transaction
	op := tx.Operation
	if op == nil {
		return false
	}
	return tx.Memo == memo &&
		op.From == ledger.AccountIdentifier(payer) &&
		op.To == receiver &&
		op.Amount == amount
}
