package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog() *Catalog {
	return &Catalog{Products: NewMemoryProducts()}
}

func validInput() ProductInput {
	return ProductInput{
		Title:           "Mountain bike",
		Description:     "Hardtail, barely used",
		Location:        "Nairobi",
		PriceMinorUnits: 500_000_000,
		AttachmentURL:   "https://example.com/bike.jpg",
	}
}

func TestAddGetRoundTrip(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()
	in := validInput()

	created, err := c.Add(ctx, "seller-1", in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "seller-1", created.Seller)
	assert.Equal(t, uint64(0), created.SoldCount)
	assert.Equal(t, in.Title, created.Title)
	assert.Equal(t, in.PriceMinorUnits, created.PriceMinorUnits)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestAddInvalidPayload(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	cases := map[string]ProductInput{
		"empty title":    func() ProductInput { in := validInput(); in.Title = ""; return in }(),
		"blank location": func() ProductInput { in := validInput(); in.Location = "  "; return in }(),
		"zero price":     func() ProductInput { in := validInput(); in.PriceMinorUnits = 0; return in }(),
	}
	for name, in := range cases {
		_, err := c.Add(ctx, "seller-1", in)
		assert.ErrorIs(t, err, ErrInvalidPayload, name)
	}

	_, err := c.Add(ctx, "", validInput())
	assert.ErrorIs(t, err, ErrInvalidPayload, "missing caller")

	all, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetUpdateDeleteNotFound(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	_, err := c.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Update(ctx, "nope", validInput())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Delete(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReplacesFields(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	created, err := c.Add(ctx, "seller-1", validInput())
	require.NoError(t, err)

	in := validInput()
	in.Title = "Mountain bike (price drop)"
	in.PriceMinorUnits = 400_000_000
	updated, err := c.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, in.Title, updated.Title)
	assert.Equal(t, uint64(400_000_000), updated.PriceMinorUnits)
	assert.Equal(t, "seller-1", updated.Seller, "seller survives updates")
}

func TestDeleteRemovesProduct(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	created, err := c.Add(ctx, "seller-1", validInput())
	require.NoError(t, err)

	id, err := c.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)

	_, err = c.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordSale(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	created, err := c.Add(ctx, "seller-1", validInput())
	require.NoError(t, err)

	require.NoError(t, c.RecordSale(ctx, created.ID))
	require.NoError(t, c.RecordSale(ctx, created.ID))

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.SoldCount)

	assert.ErrorIs(t, c.RecordSale(ctx, "nope"), ErrNotFound)
}
