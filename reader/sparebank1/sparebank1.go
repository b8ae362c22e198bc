// Package sparebank1 reads transactions from the SpareBank1 personal banking
// API.
package sparebank1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	sb1ynab "github.com/bjorngi/sparebank1-to-ynab"
	"github.com/bjorngi/sparebank1-to-ynab/internal/log"
)

const (
	apiBase      = "https://api.sparebank1.no/personal/banking"
	acceptHeader = "application/vnd.sparebank1.v1+json"

	// maxResponseBodyBytes caps how much of a response body we buffer. 10 MB
	// is far above any realistic payload and guards against a misbehaving
	// upstream exhausting memory.
	maxResponseBodyBytes = 10 * 1024 * 1024
)

// Client handles HTTP communication with the SpareBank1 API
type Client struct {
	// BaseURL of the personal banking API, overridable in tests
	BaseURL    string
	HTTPClient *http.Client
	logger     *slog.Logger
}

// NewClient returns a new SpareBank1 API client
func NewClient() *Client {
	return &Client{
		BaseURL: apiBase,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default().With("reader", "sparebank1"),
	}
}

type transactionsResponse struct {
	Transactions []wireTransaction `json:"transactions"`
}

// wireTransaction is the banks transaction format. Description and
// cleanedDescription are optional and default to empty strings.
type wireTransaction struct {
	ID                 string  `json:"id"`
	Amount             float32 `json:"amount"`
	Description        string  `json:"description"`
	CleanedDescription string  `json:"cleanedDescription"`
	AccountKey         string  `json:"accountKey"`

	// Date is milliseconds since the Unix epoch
	Date int64 `json:"date"`
}

// Transactions fetches all booked transactions for the given account keys in
// a single request and returns them in the order the bank sent them.
func (c *Client) Transactions(ctx context.Context, accessToken string, accountKeys []string) ([]sb1ynab.Transaction, error) {
	query := url.Values{}
	for _, key := range accountKeys {
		query.Add("accountKey", key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/transactions?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", acceptHeader)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var response transactionsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, sb1ynab.RemoteError{API: "sparebank1", Err: fmt.Errorf("parsing transactions: %w", err)}
	}

	transactions := make([]sb1ynab.Transaction, 0, len(response.Transactions))
	for _, wire := range response.Transactions {
		transactions = append(transactions, toTransaction(wire))
	}
	c.logger.Info("read transactions", "accounts", len(accountKeys), "total", len(transactions))
	return transactions, nil
}

// Account is a SpareBank1 bank account as shown by cmd/setup
type Account struct {
	Name    string
	Number  string
	Key     string
	Balance decimal.Decimal
}

type wireAccount struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	Balance       string `json:"balance"`
	Metadata      struct {
		AccountKey string `json:"accountKey"`
	} `json:"metadata"`
}

// Accounts lists the accounts the access token grants access to
func (c *Client) Accounts(ctx context.Context, accessToken string) ([]Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/accounts", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", acceptHeader)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var response []wireAccount
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, sb1ynab.RemoteError{API: "sparebank1", Err: fmt.Errorf("parsing accounts: %w", err)}
	}

	accounts := make([]Account, 0, len(response))
	for _, wire := range response {
		balance, err := decimal.NewFromString(wire.Balance)
		if err != nil {
			return nil, sb1ynab.RemoteError{API: "sparebank1", Err: fmt.Errorf("parsing balance %q: %w", wire.Balance, err)}
		}
		accounts = append(accounts, Account{
			Name:    wire.AccountName,
			Number:  wire.AccountNumber,
			Key:     wire.Metadata.AccountKey,
			Balance: balance,
		})
	}
	return accounts, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	response, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, sb1ynab.RemoteError{API: "sparebank1", Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, sb1ynab.RemoteError{API: "sparebank1", StatusCode: response.StatusCode, Err: err}
	}
	log.Trace(c.logger, "response", "url", req.URL.Path, "status", response.StatusCode, "body", string(body))

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, sb1ynab.RemoteError{API: "sparebank1", StatusCode: response.StatusCode, Body: string(body)}
	}
	return body, nil
}
