package relayerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatusAndCode(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
		code   string
	}{
		{KindInvalidInput, http.StatusBadRequest, "invalid_request"},
		{KindAuthFailed, http.StatusUnauthorized, "auth_failed"},
		{KindUpstream, http.StatusBadGateway, "upstream_error"},
		{KindMalformedUpstream, http.StatusBadGateway, "upstream_malformed"},
		{KindInternal, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.kind.HTTPStatus(), tc.code)
		assert.Equal(t, tc.code, tc.kind.Code())
	}
}

func TestFromClassifiesUnknownAsInternal(t *testing.T) {
	e := From(errors.New("boom"))
	assert.Equal(t, KindInternal, e.Kind)
}

func TestFromUnwrapsTaggedError(t *testing.T) {
	tagged := InvalidInput("bad field")
	wrapped := fmt.Errorf("handler: %w", tagged)

	e := From(wrapped)
	assert.Equal(t, KindInvalidInput, e.Kind)
	assert.Equal(t, "bad field", e.Message)
}

func TestEnvelopeCarriesDetails(t *testing.T) {
	details := json.RawMessage(`{"Fault":{"Error":[{"Message":"nope"}]}}`)
	e := Upstream("QuickBooks API error", details)

	env := NewEnvelope(e, "req-1")
	assert.Equal(t, "upstream_error", env.Error)
	assert.Equal(t, "req-1", env.RequestID)
	require.NotNil(t, env.Details)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"details"`)
	assert.Contains(t, string(raw), "nope")
}

func TestErrorMessageIncludesCause(t *testing.T) {
	e := AuthFailed(errors.New("expired code"))
	assert.Equal(t, "token exchange failed: expired code", e.Error())
	assert.EqualError(t, errors.Unwrap(e), "expired code")
}
