// Package ynab writes transactions to You Need a Budget (YNAB) using their
// API. Account mapping and import-id derivation happen in import.go; this
// file is the HTTP client.
package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	sb1ynab "github.com/bjorngi/sparebank1-to-ynab"
	"github.com/bjorngi/sparebank1-to-ynab/internal/log"
)

const (
	apiBase = "https://api.ynab.com/v1"

	maxResponseBodyBytes = 10 * 1024 * 1024
)

// Client handles HTTP communication with the YNAB API
type Client struct {
	// BaseURL of the YNAB API, overridable in tests
	BaseURL    string
	HTTPClient *http.Client
	Config     sb1ynab.YNAB
	AccountMap sb1ynab.AccountMap
	logger     *slog.Logger
}

// NewClient returns a new YNAB API client. The account map may be nil for
// callers that only list budgets and accounts, like cmd/setup.
func NewClient(cfg sb1ynab.YNAB, accounts sb1ynab.AccountMap) *Client {
	return &Client{
		BaseURL: apiBase,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Config:     cfg,
		AccountMap: accounts,
		logger:     slog.Default().With("writer", "ynab"),
	}
}

type createRequest struct {
	Transactions []Transaction `json:"transactions"`
}

// CreateResponse is the servers verdict on a batch: which transactions it
// created and which import ids it recognized as duplicates and skipped.
// Duplicates are the expected idempotency signal, not an error.
type CreateResponse struct {
	TransactionIDs     []string `json:"transaction_ids"`
	DuplicateImportIDs []string `json:"duplicate_import_ids"`
}

// CreateTransactions derives YNAB payloads for the batch and submits them in
// a single request. An empty batch is a no-op. There are no retries; a failed
// submission is reported upward unchanged.
func (c *Client) CreateTransactions(ctx context.Context, batch []sb1ynab.Transaction) (CreateResponse, error) {
	payload, err := buildTransactions(batch, c.AccountMap)
	if err != nil {
		return CreateResponse{}, err
	}
	if len(payload) == 0 {
		c.logger.Info("no transactions to write")
		return CreateResponse{}, nil
	}

	body, err := json.Marshal(createRequest{Transactions: payload})
	if err != nil {
		return CreateResponse{}, fmt.Errorf("marshalling request: %w", err)
	}
	log.Trace(c.logger, "request", "body", string(body))

	url := fmt.Sprintf("%s/budgets/%s/transactions", c.BaseURL, c.Config.BudgetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return CreateResponse{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Config.Token)

	responseBody, err := c.do(req)
	if err != nil {
		return CreateResponse{}, err
	}

	var response struct {
		Data CreateResponse `json:"data"`
	}
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return CreateResponse{}, sb1ynab.RemoteError{API: "ynab", Err: fmt.Errorf("parsing response: %w", err)}
	}
	c.logger.Info("wrote transactions",
		"sent", len(payload),
		"created", len(response.Data.TransactionIDs),
		"duplicates", len(response.Data.DuplicateImportIDs),
	)
	return response.Data, nil
}

// Budget is a YNAB budget
type Budget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Budgets lists the budgets the token grants access to
func (c *Client) Budgets(ctx context.Context) ([]Budget, error) {
	body, err := c.get(ctx, c.BaseURL+"/budgets/")
	if err != nil {
		return nil, err
	}

	var response struct {
		Data struct {
			Budgets []Budget `json:"budgets"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, sb1ynab.RemoteError{API: "ynab", Err: fmt.Errorf("parsing budgets: %w", err)}
	}
	return response.Data.Budgets, nil
}

// Account is a YNAB account within the configured budget
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

// Accounts lists the open accounts of the configured budget
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/budgets/%s/accounts", c.BaseURL, c.Config.BudgetID))
	if err != nil {
		return nil, err
	}

	var response struct {
		Data struct {
			Accounts []Account `json:"accounts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, sb1ynab.RemoteError{API: "ynab", Err: fmt.Errorf("parsing accounts: %w", err)}
	}

	open := make([]Account, 0, len(response.Data.Accounts))
	for _, account := range response.Data.Accounts {
		if !account.Closed {
			open = append(open, account)
		}
	}
	return open, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Config.Token)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	response, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, sb1ynab.RemoteError{API: "ynab", Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, sb1ynab.RemoteError{API: "ynab", StatusCode: response.StatusCode, Err: err}
	}
	log.Trace(c.logger, "response", "url", req.URL.Path, "status", response.StatusCode, "body", string(body))

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, sb1ynab.RemoteError{API: "ynab", StatusCode: response.StatusCode, Body: string(body)}
	}
	return body, nil
}
