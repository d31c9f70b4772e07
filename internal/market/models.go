package market

import "time"

// Product is a seller's listing. Prices are integers in the token's minor
// unit; display conversion belongs to the UI.
type Product struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	PriceMinorUnits uint64    `json:"price_minor_units"`
	Seller          string    `json:"seller"`
	AttachmentURL   string    `json:"attachment_url"`
	SoldCount       uint64    `json:"sold_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProductInput is the create/update payload for a listing.
type ProductInput struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	PriceMinorUnits uint64 `json:"price_minor_units"`
	AttachmentURL   string `json:"attachment_url"`
}

// PendingOrder is a reservation awaiting an out-of-band ledger transfer.
// Keyed by CorrelationID, which doubles as the transfer memo.
type PendingOrder struct {
	ProductID     string    `json:"product_id"`
	Price         uint64    `json:"price"`
	Seller        string    `json:"seller"`
	Buyer         string    `json:"buyer"`
	Status        Status    `json:"status"`
	CorrelationID uint64    `json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// CompletedOrder is immutable once appended to the order ledger.
type CompletedOrder struct {
	ProductID     string    `json:"product_id"`
	Price         uint64    `json:"price"`
	Seller        string    `json:"seller"`
	Buyer         string    `json:"buyer"`
	Status        Status    `json:"status"`
	PaidAtBlock   uint64    `json:"paid_at_block"`
	CorrelationID uint64    `json:"correlation_id"`
	CompletedAt   time.Time `json:"completed_at"`
}
