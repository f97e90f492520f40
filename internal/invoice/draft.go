package invoice

import (
	"bytes"
	"encoding/json"

	"github.com/policydesk/qbo-relay/internal/relayerr"
)

// Draft is the inbound policy-invoice shape. Coverages and charges stay
// raw until Validate runs so a non-array value can be rejected instead of
// silently coerced.
type Draft struct {
	Coverages    json.RawMessage `json:"coverages"`
	Charges      json.RawMessage `json:"charges"`
	Assured      string          `json:"assured"`
	DateIssued   string          `json:"dateIssued"`
	PolicyNumber string          `json:"policyNumber"`
	QuoteID      string          `json:"quoteId"`
	Agency       string          `json:"agency"`
	Agent        string          `json:"agent"`
	PreparedBy   string          `json:"preparedBy"`
	Address      string          `json:"address"`
	IncepDate    string          `json:"incepDate"`
}

// Coverage is one insured coverage on the policy.
type Coverage struct {
	Type    string  `json:"type"`
	Premium float64 `json:"premium"`
}

// Charge is one additional charge on the policy.
type Charge struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

// Validate checks that coverages and charges are both present as JSON
// arrays (possibly empty) and decodes them. Failures are client input
// errors; no outbound call happens after one.
func (d *Draft) Validate() ([]Coverage, []Charge, error) {
	if !isJSONArray(d.Coverages) {
		return nil, nil, relayerr.InvalidInput("invoice.coverages must be an array")
	}
	if !isJSONArray(d.Charges) {
		return nil, nil, relayerr.InvalidInput("invoice.charges must be an array")
	}

	var coverages []Coverage
	if err := json.Unmarshal(d.Coverages, &coverages); err != nil {
		return nil, nil, relayerr.InvalidInput("invoice.coverages is malformed: %v", err)
	}
	var charges []Charge
	if err := json.Unmarshal(d.Charges, &charges); err != nil {
		return nil, nil, relayerr.InvalidInput("invoice.charges is malformed: %v", err)
	}
	return coverages, charges, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
