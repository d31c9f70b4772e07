package market

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ProductRepo is the owned storage for listings. Backends: in-memory map or
// Postgres (internal/postgres).
type ProductRepo interface {
	Get(ctx context.Context, id string) (Product, error)
	Put(ctx context.Context, p Product) error
	Remove(ctx context.Context, id string) error
	Values(ctx context.Context) ([]Product, error)
}

// Catalog is the listing CRUD surface. RecordSale is reserved for the
// reconciliation protocol.
type Catalog struct {
	Products ProductRepo
}

func (c *Catalog) Add(ctx context.Context, caller string, in ProductInput) (Product, error) {
	if caller == "" {
		return Product{}, ErrInvalidPayload
	}
	if err := validateInput(in); err != nil {
		return Product{}, err
	}
	now := time.Now().UTC()
	p := Product{
		ID:              uuid.NewString(),
		Title:           in.Title,
		Description:     in.Description,
		Location:        in.Location,
		PriceMinorUnits: in.PriceMinorUnits,
		Seller:          caller,
		AttachmentURL:   in.AttachmentURL,
		SoldCount:       0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.Products.Put(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (Product, error) {
	return c.Products.Get(ctx, id)
}

func (c *Catalog) List(ctx context.Context) ([]Product, error) {
	return c.Products.Values(ctx)
}

// Update replaces the mutable fields of a listing. The caller is not checked
// against the original seller; see DESIGN.md for why the gap is kept.
func (c *Catalog) Update(ctx context.Context, id string, in ProductInput) (Product, error) {
	if err := validateInput(in); err != nil {
		return Product{}, err
	}
	p, err := c.Products.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p.Title = in.Title
	p.Description = in.Description
	p.Location = in.Location
	p.PriceMinorUnits = in.PriceMinorUnits
	p.AttachmentURL = in.AttachmentURL
	p.UpdatedAt = time.Now().UTC()
	if err := c.Products.Put(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (c *Catalog) Delete(ctx context.Context, id string) (string, error) {
	if _, err := c.Products.Get(ctx, id); err != nil {
		return "", err
	}
	if err := c.Products.Remove(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// RecordSale bumps the sold counter of a listing by one.
func (c *Catalog) RecordSale(ctx context.Context, id string) error {
	p, err := c.Products.Get(ctx, id)
	if err != nil {
		return err
	}
	p.SoldCount++
	p.UpdatedAt = time.Now().UTC()
	return c.Products.Put(ctx, p)
}

// revertSale undoes a RecordSale whose enclosing completion failed to commit.
func (c *Catalog) revertSale(ctx context.Context, id string) error {
	p, err := c.Products.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.SoldCount > 0 {
		p.SoldCount--
	}
	p.UpdatedAt = time.Now().UTC()
	return c.Products.Put(ctx, p)
}

func validateInput(in ProductInput) error {
	if strings.TrimSpace(in.Title) == "" ||
		strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.Location) == "" {
		return ErrInvalidPayload
	}
	if in.PriceMinorUnits == 0 {
		return ErrInvalidPayload
	}
	return nil
}

// MemoryProducts is the map-backed ProductRepo.
type MemoryProducts struct {
	mu sync.RWMutex
	m  map[string]Product
}

func NewMemoryProducts() *MemoryProducts {
	return &MemoryProducts{m: map[string]Product{}}
}

func (r *MemoryProducts) Get(ctx context.Context, id string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.m[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryProducts) Put(ctx context.Context, p Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[p.ID] = p
	return nil
}

func (r *MemoryProducts) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[id]; !ok {
		return ErrNotFound
	}
	delete(r.m, id)
	return nil
}

func (r *MemoryProducts) Values(ctx context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0, len(r.m))
	for _, p := range r.m {
		out = append(out, p)
	}
	return out, nil
}
