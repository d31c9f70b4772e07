package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient talks to a ledger gateway over HTTP. Every call carries the
// caller's context plus the client-wide timeout, so no ledger call blocks
// indefinitely.
type HTTPClient struct {
	rc *resty.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &HTTPClient{rc: rc}
}

// req decodes responses as JSON even when the gateway omits or mislabels the
// Content-Type header; resty only unmarshals SetResult targets when the
// response advertises JSON.
func (c *HTTPClient) req(ctx context.Context) *resty.Request {
	return c.rc.R().
		SetContext(ctx).
		ForceContentType("application/json")
}

type transferRequest struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
	Memo   uint64 `json:"memo"`
}

type transferResponse struct {
	BlockIndex uint64 `json:"block_index"`
}

type queryBlocksResponse struct {
	Blocks []Block `json:"blocks"`
}

type feeResponse struct {
	Fee uint64 `json:"fee"`
}

type balanceResponse struct {
	Balance uint64 `json:"balance"`
}

func (c *HTTPClient) Transfer(ctx context.Context, to string, amount, memo uint64) (uint64, error) {
	var out transferResponse
	resp, err := c.req(ctx).
		SetBody(transferRequest{To: to, Amount: amount, Memo: memo}).
		SetResult(&out).
		Post("/transfer")
	if err := check(resp, err); err != nil {
		return 0, err
	}
	return out.BlockIndex, nil
}

func (c *HTTPClient) TransferFrom(ctx context.Context, from, to string, amount, memo uint64) (uint64, error) {
	var out transferResponse
	resp, err := c.req(ctx).
		SetBody(transferRequest{From: from, To: to, Amount: amount, Memo: memo}).
		SetResult(&out).
		Post("/transfer_from")
	if err := check(resp, err); err != nil {
		return 0, err
	}
	return out.BlockIndex, nil
}

func (c *HTTPClient) QueryBlocks(ctx context.Context, start, length uint64) ([]Block, error) {
	var out queryBlocksResponse
	resp, err := c.req(ctx).
		SetQueryParam("start", fmt.Sprintf("%d", start)).
		SetQueryParam("length", fmt.Sprintf("%d", length)).
		SetResult(&out).
		Get("/query_blocks")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out.Blocks, nil
}

func (c *HTTPClient) TransferFee(ctx context.Context) (uint64, error) {
	var out feeResponse
	resp, err := c.req(ctx).
		SetResult(&out).
		Get("/transfer_fee")
	if err := check(resp, err); err != nil {
		return 0, err
	}
	return out.Fee, nil
}

func (c *HTTPClient) Balance(ctx context.Context, address string) (uint64, error) {
	var out balanceResponse
	resp, err := c.req(ctx).
		SetResult(&out).
		Get("/balance/" + address)
	if err := check(resp, err); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
