// Package gateway defines the external funds-transfer contract and its
// production HTTP implementation. Transfer outcomes are deterministic from
// the gateway's response; any simulated randomness belongs in test doubles,
// never here.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/ssp-workflow-api/pkg/config"
)

// TransferRequest carries everything the bank needs for one DBT payout.
type TransferRequest struct {
	AccountNumber string          `json:"accountNumber"`
	IFSC          string          `json:"ifsc"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference"`
}

// TransferResult is a successful transfer acknowledgement.
type TransferResult struct {
	TransactionReference string `json:"transactionReference"`
}

// TransferError is a decline from the gateway. It is distinct from
// transport errors: the bank answered and said no.
type TransferError struct {
	Reason string
}

func (e *TransferError) Error() string {
	return "transfer declined: " + e.Reason
}

// Gateway executes funds transfers against the external DBT system.
type Gateway interface {
	Transfer(ctx context.Context, req TransferRequest) (TransferResult, error)
}

// HTTPGateway talks to the configured DBT endpoint over HTTPS.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGateway constructs the production gateway client.
func NewHTTPGateway(cfg config.GatewayConfig) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPGateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type transferResponse struct {
	Status               string `json:"status"`
	TransactionReference string `json:"transactionReference"`
	Reason               string `json:"reason"`
}

// Transfer posts the payout order and maps the response onto the contract:
// a 2xx "completed" body yields a result, a decline yields *TransferError,
// anything else is a transport failure.
func (g *HTTPGateway) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return TransferResult{}, fmt.Errorf("encode transfer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transfers", bytes.NewReader(payload))
	if err != nil {
		return TransferResult{}, fmt.Errorf("build transfer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("X-Api-Key", g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return TransferResult{}, fmt.Errorf("execute transfer request: %w", err)
	}
	defer resp.Body.Close()

	var body transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return TransferResult{}, fmt.Errorf("decode transfer response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || body.Status != "completed" {
		reason := body.Reason
		if reason == "" {
			reason = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}
		return TransferResult{}, &TransferError{Reason: reason}
	}

	return TransferResult{TransactionReference: body.TransactionReference}, nil
}
