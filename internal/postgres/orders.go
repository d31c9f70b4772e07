package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dacadeorg/icp-azle-201/internal/market"
)

// Orders is the Postgres-backed market.OrderLedger. Rows are append-only,
// keyed by correlation id; buyer queries go through an index on buyer.
type Orders struct{ DB *pgxpool.Pool }

func (r *Orders) Append(ctx context.Context, o market.CompletedOrder) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO completed_orders(correlation_id, product_id, price, seller,
		                             buyer, status, paid_at_block, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.CorrelationID, o.ProductID, o.Price, o.Seller,
		o.Buyer, o.Status, o.PaidAtBlock, o.CompletedAt)
	return err
}

func (r *Orders) ListByBuyer(ctx context.Context, buyer string) ([]market.CompletedOrder, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT correlation_id, product_id, price, seller, buyer, status,
		       paid_at_block, completed_at
		FROM completed_orders WHERE buyer=$1 ORDER BY completed_at`, buyer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.CompletedOrder
	for rows.Next() {
		var o market.CompletedOrder
		if err := rows.Scan(&o.CorrelationID, &o.ProductID, &o.Price, &o.Seller,
			&o.Buyer, &o.Status, &o.PaidAtBlock, &o.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

var _ market.OrderLedger = (*Orders)(nil)
