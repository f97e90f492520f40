package qbo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/policydesk/qbo-relay/internal/relayerr"
)

const (
	sandboxAPIBase    = "https://sandbox-quickbooks.api.intuit.com"
	productionAPIBase = "https://quickbooks.api.intuit.com"

	// QuickBooks API minor version sent on every call.
	minorVersion = "75"

	// ScopeAccounting is the only scope the relay ever requests.
	ScopeAccounting = "com.intuit.quickbooks.accounting"
)

// Config holds the OAuth application settings and endpoint overrides.
// Zero-value URL fields select the Intuit endpoints for Environment.
type Config struct {
	ClientID     string
	ClientSecret string
	Environment  string // "sandbox" or "production"
	RedirectURI  string

	APIBaseURL string // override for tests
	AuthURL    string
	TokenURL   string
}

// Client wraps HTTP access to the QuickBooks Online v3 API.
type Client struct {
	cfg        Config
	apiBase    string
	httpClient *http.Client
}

// Shared HTTP client with connection pooling.
var sharedHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// NewClient creates a QuickBooks client. A non-default timeout gets a
// dedicated http.Client sharing the pooled transport.
func NewClient(cfg Config, timeout time.Duration) *Client {
	httpClient := sharedHTTPClient
	if timeout > 0 && timeout != sharedHTTPClient.Timeout {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: sharedHTTPClient.Transport,
		}
	}

	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		if cfg.Environment == "production" {
			apiBase = productionAPIBase
		} else {
			apiBase = sandboxAPIBase
		}
	}

	return &Client{cfg: cfg, apiBase: apiBase, httpClient: httpClient}
}

// EscapeQueryLiteral escapes single quotes for embedding in a QuickBooks
// query string literal.
func EscapeQueryLiteral(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// QueryCustomersByName returns all customers whose DisplayName exactly
// matches name. Result order is whatever QuickBooks returns.
func (c *Client) QueryCustomersByName(ctx context.Context, accessToken, realmID, name string) ([]Customer, error) {
	query := fmt.Sprintf("SELECT * FROM Customer WHERE DisplayName = '%s'", EscapeQueryLiteral(name))
	endpoint := fmt.Sprintf("%s/v3/company/%s/query?query=%s", c.apiBase, realmID, url.QueryEscape(query))

	body, err := c.do(ctx, http.MethodGet, endpoint, accessToken, nil)
	if err != nil {
		return nil, err
	}

	var qr customerQueryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, relayerr.MalformedUpstream("failed to decode customer query response", err)
	}
	return qr.QueryResponse.Customer, nil
}

// CreateCustomer creates a customer and returns the typed record along
// with the verbatim response body.
func (c *Client) CreateCustomer(ctx context.Context, accessToken, realmID string, customer Customer) (*Customer, json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/v3/company/%s/customer", c.apiBase, realmID)

	payload, err := json.Marshal(customer)
	if err != nil {
		return nil, nil, relayerr.Internal(err)
	}

	body, err := c.do(ctx, http.MethodPost, endpoint, accessToken, payload)
	if err != nil {
		return nil, nil, err
	}

	var created customerCreateResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, nil, relayerr.MalformedUpstream("failed to decode customer creation response", err)
	}
	if created.Customer.ID == "" {
		return nil, nil, relayerr.MalformedUpstream("customer creation response missing Customer.Id", nil)
	}
	return &created.Customer, body, nil
}

// CreateInvoice submits an invoice and returns the verbatim response
// body. No idempotency key is attached; resubmission creates a duplicate
// invoice.
func (c *Client) CreateInvoice(ctx context.Context, accessToken, realmID string, invoice InvoicePayload) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/v3/company/%s/invoice", c.apiBase, realmID)

	payload, err := json.Marshal(invoice)
	if err != nil {
		return nil, relayerr.Internal(err)
	}
	return c.do(ctx, http.MethodPost, endpoint, accessToken, payload)
}

// do performs an authenticated QuickBooks API call and returns the
// response body. Non-2xx responses map to a tagged upstream error with
// the raw body preserved under Details.
func (c *Client) do(ctx context.Context, method, endpoint, accessToken string, payload []byte) (json.RawMessage, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, relayerr.Internal(err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	query := req.URL.Query()
	query.Set("minorversion", minorVersion)
	req.URL.RawQuery = query.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, relayerr.Upstream(fmt.Sprintf("request to QuickBooks failed: %v", err), nil)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, relayerr.MalformedUpstream("failed to read QuickBooks response", err)
	}

	if resp.StatusCode >= 400 {
		return nil, relayerr.Upstream(upstreamMessage(resp.StatusCode, body), json.RawMessage(body))
	}
	return body, nil
}

// upstreamMessage extracts the first Fault error message when the body
// carries the QuickBooks error envelope.
func upstreamMessage(status int, body []byte) string {
	var fault faultResponse
	if err := json.Unmarshal(body, &fault); err == nil && len(fault.Fault.Error) > 0 {
		first := fault.Fault.Error[0]
		return fmt.Sprintf("QuickBooks API error (%s): %s", first.Code, first.Message)
	}
	return fmt.Sprintf("QuickBooks API returned status %d", status)
}
