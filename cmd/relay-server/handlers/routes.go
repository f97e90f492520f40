package handlers

import (
	"net/http"

	"github.com/policydesk/qbo-relay/internal/auth"
)

// Routes assembles the relay's HTTP surface. The guard protects the POST
// endpoints only; the OAuth redirect and callback must stay reachable by
// the browser.
func (h *Handler) Routes(guard *auth.Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.HandleRoot)
	mux.HandleFunc("GET /authUri", h.HandleAuthURI)
	mux.HandleFunc("GET /callback", h.HandleCallback)

	mux.HandleFunc("POST /create-customer", guard.HandlerFunc(h.HandleCreateCustomer))
	mux.HandleFunc("POST /create-invoice", guard.HandlerFunc(h.HandleCreateInvoice))
	mux.HandleFunc("POST /sync-policy-invoice", guard.HandlerFunc(h.HandleSyncPolicyInvoice))

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
