package qbo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policydesk/qbo-relay/internal/relayerr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		ClientID:     "cid",
		ClientSecret: "csecret",
		RedirectURI:  "http://localhost/callback",
		APIBaseURL:   server.URL,
		TokenURL:     server.URL + "/oauth2/v1/tokens/bearer",
	}, 0)
}

func TestQueryCustomersByName(t *testing.T) {
	var gotQuery, gotAuth, gotMinor string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/company/realm-1/query", r.URL.Path)
		gotQuery = r.URL.Query().Get("query")
		gotAuth = r.Header.Get("Authorization")
		gotMinor = r.URL.Query().Get("minorversion")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"QueryResponse": map[string]any{
				"Customer": []map[string]any{
					{"Id": "42", "DisplayName": "Acme Co"},
				},
			},
		})
	})

	customers, err := client.QueryCustomersByName(context.Background(), "tok", "realm-1", "Acme Co")
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "42", customers[0].ID)
	assert.Equal(t, "Acme Co", customers[0].DisplayName)

	assert.Equal(t, "SELECT * FROM Customer WHERE DisplayName = 'Acme Co'", gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "75", gotMinor)
}

func TestQueryCustomersEscapesQuotes(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`{"QueryResponse":{}}`))
	})

	customers, err := client.QueryCustomersByName(context.Background(), "tok", "realm-1", "O'Brien & Sons")
	require.NoError(t, err)
	assert.Empty(t, customers)
	assert.Equal(t, `SELECT * FROM Customer WHERE DisplayName = 'O\'Brien & Sons'`, gotQuery)
}

func TestFaultResponseBecomesUpstreamError(t *testing.T) {
	body := `{"Fault":{"Error":[{"Message":"Invalid Reference Id","Detail":"bad customer","code":"2500"}]}}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(body))
	})

	_, err := client.QueryCustomersByName(context.Background(), "tok", "realm-1", "Acme Co")
	require.Error(t, err)

	tagged := relayerr.From(err)
	assert.Equal(t, relayerr.KindUpstream, tagged.Kind)
	assert.Contains(t, tagged.Message, "2500")
	assert.Contains(t, tagged.Message, "Invalid Reference Id")
	assert.JSONEq(t, body, string(tagged.Details))
}

func TestNonJSONErrorBodyStillSurfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream is down"))
	})

	_, err := client.QueryCustomersByName(context.Background(), "tok", "realm-1", "Acme Co")
	require.Error(t, err)

	tagged := relayerr.From(err)
	assert.Equal(t, relayerr.KindUpstream, tagged.Kind)
	assert.Contains(t, tagged.Message, "status 502")
}

func TestCreateCustomer(t *testing.T) {
	var gotBody Customer
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/company/realm-1/customer", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"Customer":{"Id":"58","DisplayName":"Acme Co"}}`))
	})

	created, raw, err := client.CreateCustomer(context.Background(), "tok", "realm-1", Customer{DisplayName: "Acme Co"})
	require.NoError(t, err)
	assert.Equal(t, "58", created.ID)
	assert.Equal(t, "Acme Co", created.DisplayName)
	assert.Contains(t, string(raw), `"Id":"58"`)

	assert.Equal(t, "Acme Co", gotBody.DisplayName)
	assert.Nil(t, gotBody.PrimaryEmailAddr)
}

func TestCreateCustomerMissingIDIsMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Customer":{"DisplayName":"Acme Co"}}`))
	})

	_, _, err := client.CreateCustomer(context.Background(), "tok", "realm-1", Customer{DisplayName: "Acme Co"})
	require.Error(t, err)
	assert.Equal(t, relayerr.KindMalformedUpstream, relayerr.From(err).Kind)
}

func TestCreateInvoiceReturnsVerbatimBody(t *testing.T) {
	response := `{"Invoice":{"Id":"1001","TotalAmt":110},"time":"2026-01-15T10:00:00Z"}`
	var gotPayload InvoicePayload
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/company/realm-1/invoice", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(response))
	})

	payload := InvoicePayload{
		CustomerRef: Ref{Value: "58"},
		Line: []Line{{
			Amount:     100,
			DetailType: "SalesItemLineDetail",
			SalesItemLineDetail: SalesItemLineDetail{
				ItemRef: Ref{Value: "1"}, Qty: 1, UnitPrice: 100,
				TaxCodeRef: Ref{Value: "TAX"},
			},
		}},
		PrivateNote: "File:  | Quote ID: Q-1",
	}

	raw, err := client.CreateInvoice(context.Background(), "tok", "realm-1", payload)
	require.NoError(t, err)
	assert.JSONEq(t, response, string(raw))
	assert.Equal(t, "58", gotPayload.CustomerRef.Value)
	require.Len(t, gotPayload.Line, 1)
}

func TestEscapeQueryLiteral(t *testing.T) {
	assert.Equal(t, `O\'Brien`, EscapeQueryLiteral("O'Brien"))
	assert.Equal(t, "plain", EscapeQueryLiteral("plain"))
	assert.Equal(t, `\'\'`, EscapeQueryLiteral("''"))
}
