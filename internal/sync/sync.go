// Package sync composes the policy-invoice workflow: exchange token,
// resolve customer, map lines, submit invoice.
package sync

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/policydesk/qbo-relay/internal/invoice"
	"github.com/policydesk/qbo-relay/internal/qbo"
	"github.com/policydesk/qbo-relay/internal/relayerr"
)

// DefaultCustomerName stands in when the draft has no assured name.
const DefaultCustomerName = "Unknown Customer"

// Request is the sync-policy-invoice input. Either QBOAuthCode or
// AccessToken must be supplied.
type Request struct {
	QBOAuthCode string         `json:"qboAuthCode"`
	AccessToken string         `json:"access_token"`
	RealmID     string         `json:"realmId"`
	Invoice     *invoice.Draft `json:"invoice"`
	FileName    string         `json:"fileName"`
}

// Result is the remote invoice response merged with the resolved
// customer, so the caller can persist the mapping without a second call.
type Result map[string]any

// Service runs the sync workflow against one QuickBooks client.
type Service struct {
	client *qbo.Client
	logger *slog.Logger
}

// NewService creates a sync service.
func NewService(client *qbo.Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger}
}

// Sync validates the request, obtains an access token, resolves the
// customer, maps the line items and submits the invoice. Input
// validation failures are reported before any outbound call. There is no
// rollback: a customer created before a failed invoice submission stays.
func (s *Service) Sync(ctx context.Context, req Request) (Result, error) {
	if req.RealmID == "" {
		return nil, relayerr.InvalidInput("realmId is required")
	}
	if req.Invoice == nil {
		return nil, relayerr.InvalidInput("invoice is required")
	}
	coverages, charges, err := req.Invoice.Validate()
	if err != nil {
		return nil, err
	}

	accessToken := req.AccessToken
	if req.QBOAuthCode != "" {
		accessToken, err = s.client.ExchangeCode(ctx, req.QBOAuthCode)
		if err != nil {
			return nil, err
		}
	}
	if accessToken == "" {
		return nil, relayerr.InvalidInput("either qboAuthCode or access_token is required")
	}

	name := req.Invoice.Assured
	if name == "" {
		name = DefaultCustomerName
	}

	customer, err := s.ResolveCustomer(ctx, accessToken, req.RealmID, name)
	if err != nil {
		return nil, err
	}

	payload := qbo.InvoicePayload{
		CustomerRef: qbo.Ref{Value: customer.ID},
		Line:        invoice.MapLines(coverages, charges),
		TxnDate:     req.Invoice.DateIssued,
		PrivateNote: invoice.BuildNote(req.Invoice, req.FileName),
	}

	raw, err := s.client.CreateInvoice(ctx, accessToken, req.RealmID, payload)
	if err != nil {
		return nil, err
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, relayerr.MalformedUpstream("failed to decode invoice creation response", err)
	}
	if result == nil {
		return nil, relayerr.MalformedUpstream("invoice creation response is not a JSON object", nil)
	}
	result["customerName"] = customer.DisplayName
	result["customerId"] = customer.ID

	s.logger.Info("invoice synced",
		"realm_id", req.RealmID,
		"customer_id", customer.ID,
		"line_count", len(payload.Line))
	return result, nil
}

// ResolveCustomer finds a customer by exact display name, creating one
// with only the name populated when no match exists. When several
// customers share the name the first result wins; QuickBooks does not
// document an ordering.
func (s *Service) ResolveCustomer(ctx context.Context, accessToken, realmID, name string) (*qbo.Customer, error) {
	matches, err := s.client.QueryCustomersByName(ctx, accessToken, realmID, name)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		s.logger.Debug("customer matched", "realm_id", realmID, "customer_id", matches[0].ID)
		return &matches[0], nil
	}

	created, _, err := s.client.CreateCustomer(ctx, accessToken, realmID, qbo.Customer{DisplayName: name})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("customer created", "realm_id", realmID, "customer_id", created.ID)
	return created, nil
}
