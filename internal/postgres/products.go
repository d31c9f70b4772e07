package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dacadeorg/icp-azle-201/internal/market"
)

// Products is the Postgres-backed market.ProductRepo.
type Products struct{ DB *pgxpool.Pool }

func (r *Products) Get(ctx context.Context, id string) (market.Product, error) {
	var p market.Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, title, description, location, price_minor_units, seller,
		       attachment_url, sold_count, created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.Location, &p.PriceMinorUnits,
			&p.Seller, &p.AttachmentURL, &p.SoldCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.Product{}, market.ErrNotFound
	}
	if err != nil {
		return market.Product{}, err
	}
	return p, nil
}

func (r *Products) Put(ctx context.Context, p market.Product) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, title, description, location, price_minor_units,
		                     seller, attachment_url, sold_count, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			title=$2, description=$3, location=$4, price_minor_units=$5,
			attachment_url=$7, sold_count=$8, updated_at=$10`,
		p.ID, p.Title, p.Description, p.Location, p.PriceMinorUnits,
		p.Seller, p.AttachmentURL, p.SoldCount, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *Products) Remove(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (r *Products) Values(ctx context.Context) ([]market.Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, title, description, location, price_minor_units, seller,
		       attachment_url, sold_count, created_at, updated_at
		FROM products ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Product
	for rows.Next() {
		var p market.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Location, &p.PriceMinorUnits,
			&p.Seller, &p.AttachmentURL, &p.SoldCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ market.ProductRepo = (*Products)(nil)
