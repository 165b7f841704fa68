// Package client is the ledger surface collaborating services embed: the
// complaint registry, resolution tracking, rewards, tier gating, upgrade
// redemption, and governance services all move value and read balances
// through it. They never touch blacklist, pause, or mint state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	dErrors "carecoin/pkg/domain-errors"
)

// Client calls the ledger HTTP API with a fixed bearer token identifying the
// collaborating service's account.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Info holds the token metadata constants.
type Info struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Decimals    int     `json:"decimals"`
	TotalSupply uint64  `json:"total_supply"`
	TokenURI    *string `json:"token_uri"`
}

type transferRequest struct {
	Amount    uint64 `json:"amount"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Memo      string `json:"memo,omitempty"`
}

type balanceResponse struct {
	Balance uint64 `json:"balance"`
}

type mintedResponse struct {
	TotalMinted uint64 `json:"total_minted"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Transfer moves amount from the caller's account to recipient. The sender
// must match the account the token was issued for; the ledger enforces
// self-authorization.
func (c *Client) Transfer(ctx context.Context, amount uint64, sender, recipient, memo string) error {
	body, err := json.Marshal(transferRequest{
		Amount:    amount,
		Sender:    sender,
		Recipient: recipient,
		Memo:      memo,
	})
	if err != nil {
		return fmt.Errorf("marshal transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ledger/transfer", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transfer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// Balance returns the ledger balance for an account, zero for unknown ones.
func (c *Client) Balance(ctx context.Context, account string) (uint64, error) {
	var out balanceResponse
	if err := c.get(ctx, "/ledger/balance/"+account, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// TotalMinted returns the circulating supply.
func (c *Client) TotalMinted(ctx context.Context) (uint64, error) {
	var out mintedResponse
	if err := c.get(ctx, "/ledger/minted", &out); err != nil {
		return 0, err
	}
	return out.TotalMinted, nil
}

// TokenInfo returns the token metadata constants.
func (c *Client) TokenInfo(ctx context.Context) (Info, error) {
	var out Info
	if err := c.get(ctx, "/ledger/info", &out); err != nil {
		return Info{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError rebuilds the ledger's coded error from the response envelope
// so collaborators can branch on codes the same way in-process callers do.
func decodeError(resp *http.Response) error {
	var envelope errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == "" {
		return dErrors.Newf(dErrors.CodeInternal, "ledger returned status %d", resp.StatusCode)
	}
	message := envelope.Message
	if message == "" {
		message = "ledger rejected the call"
	}
	return dErrors.New(dErrors.Code(envelope.Error), message)
}
