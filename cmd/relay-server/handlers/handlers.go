package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/policydesk/qbo-relay/internal/qbo"
	"github.com/policydesk/qbo-relay/internal/relayerr"
	"github.com/policydesk/qbo-relay/internal/sync"
)

// authState is the fixed OAuth state literal the front-end expects back.
const authState = "testState"

// Handler serves the relay's HTTP surface.
type Handler struct {
	client *qbo.Client
	syncer *sync.Service
	logger *slog.Logger
}

// New creates the handler set.
func New(client *qbo.Client, syncer *sync.Service, logger *slog.Logger) *Handler {
	return &Handler{client: client, syncer: syncer, logger: logger}
}

// HandleRoot is the liveness check.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "QBO relay running")
}

// HandleAuthURI redirects the browser to the QuickBooks authorization
// page with the accounting scope.
func (h *Handler) HandleAuthURI(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.client.AuthCodeURL(authState)
	if err != nil {
		h.writeError(w, uuid.NewString(), relayerr.Internal(err))
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

var callbackTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><title>QuickBooks Connected</title></head>
<body>
<p>Connected to QuickBooks. This window will close automatically.</p>
<script>
  if (window.opener) {
    window.opener.postMessage({ type: "qbo_connected", code: "{{.Code}}", realmId: "{{.RealmID}}" }, "*");
  }
  setTimeout(function () { window.close(); }, 3000);
</script>
</body>
</html>
`))

// HandleCallback receives the provider redirect and relays the raw code
// and realm id to the opener window. No token exchange happens here; the
// web application completes it through /sync-policy-invoice. Missing
// query parameters render as empty strings.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	data := struct {
		Code    string
		RealmID string
	}{
		Code:    query.Get("code"),
		RealmID: query.Get("realmId"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := callbackTemplate.Execute(w, data); err != nil {
		h.logger.Error("callback template render failed", "error", err)
	}
}

// tokenRealmRequest is the body shared by the diagnostic endpoints.
type tokenRealmRequest struct {
	AccessToken string `json:"access_token"`
	RealmID     string `json:"realmId"`
}

// HandleCreateCustomer is a diagnostic endpoint: it creates a throwaway
// customer in the given realm and reflects the QuickBooks response.
func (h *Handler) HandleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var req tokenRealmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, requestID, relayerr.InvalidInput("invalid JSON body: %v", err))
		return
	}
	if req.AccessToken == "" || req.RealmID == "" {
		h.writeError(w, requestID, relayerr.InvalidInput("access_token and realmId are required"))
		return
	}

	customer := qbo.Customer{
		DisplayName:      fmt.Sprintf("Test Customer %d", time.Now().UnixMilli()),
		PrimaryEmailAddr: &qbo.EmailAddress{Address: "test@example.com"},
	}

	_, raw, err := h.client.CreateCustomer(r.Context(), req.AccessToken, req.RealmID, customer)
	if err != nil {
		h.writeError(w, requestID, relayerr.From(err))
		return
	}
	h.writeRaw(w, raw)
}

// HandleCreateInvoice is a diagnostic endpoint: it submits a minimal
// single-line invoice and reflects the QuickBooks response.
func (h *Handler) HandleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var req tokenRealmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, requestID, relayerr.InvalidInput("invalid JSON body: %v", err))
		return
	}
	if req.AccessToken == "" || req.RealmID == "" {
		h.writeError(w, requestID, relayerr.InvalidInput("access_token and realmId are required"))
		return
	}

	payload := qbo.InvoicePayload{
		CustomerRef: qbo.Ref{Value: "1"},
		Line: []qbo.Line{{
			Amount:     100,
			DetailType: "SalesItemLineDetail",
			SalesItemLineDetail: qbo.SalesItemLineDetail{
				ItemRef:   qbo.Ref{Value: "1"},
				Qty:       1,
				UnitPrice: 100,
			},
		}},
	}

	raw, err := h.client.CreateInvoice(r.Context(), req.AccessToken, req.RealmID, payload)
	if err != nil {
		h.writeError(w, requestID, relayerr.From(err))
		return
	}
	h.writeRaw(w, raw)
}

// HandleSyncPolicyInvoice runs the primary workflow.
func (h *Handler) HandleSyncPolicyInvoice(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var req sync.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, requestID, relayerr.InvalidInput("invalid JSON body: %v", err))
		return
	}

	result, err := h.syncer.Sync(r.Context(), req)
	if err != nil {
		h.writeError(w, requestID, relayerr.From(err))
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response encoding failed", "error", err)
	}
}

// writeRaw reflects a verbatim QuickBooks response body to the caller.
func (h *Handler) writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(raw); err != nil {
		h.logger.Error("response write failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, requestID string, e *relayerr.Error) {
	h.logger.Error("request failed",
		"request_id", requestID,
		"error_kind", e.Kind.Code(),
		"error", e.Error())
	h.writeJSON(w, e.Kind.HTTPStatus(), relayerr.NewEnvelope(e, requestID))
}
