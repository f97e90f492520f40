package invoice

import (
	"fmt"
	"strings"

	"github.com/policydesk/qbo-relay/internal/qbo"
)

const (
	// Fixed references every mapped line carries.
	itemRefValue    = "1"
	taxCodeRefValue = "TAX"

	detailType = "SalesItemLineDetail"
)

// MapLines flattens coverages and charges into invoice lines, coverages
// first, order preserved within each group. Quantity is fixed to 1 and
// unit price equals the source amount. Pure function.
func MapLines(coverages []Coverage, charges []Charge) []qbo.Line {
	lines := make([]qbo.Line, 0, len(coverages)+len(charges))
	for _, cov := range coverages {
		lines = append(lines, newLine(cov.Type, cov.Premium))
	}
	for _, ch := range charges {
		lines = append(lines, newLine(ch.Type, ch.Amount))
	}
	return lines
}

func newLine(description string, amount float64) qbo.Line {
	return qbo.Line{
		Amount:      amount,
		DetailType:  detailType,
		Description: description,
		SalesItemLineDetail: qbo.SalesItemLineDetail{
			ItemRef:    qbo.Ref{Value: itemRefValue},
			Qty:        1,
			UnitPrice:  amount,
			TaxCodeRef: qbo.Ref{Value: taxCodeRefValue},
		},
	}
}

// BuildNote renders the invoice free-text note: ten labeled segments in a
// fixed order joined by " | ". Absent fields render as empty strings, the
// labels are always present.
func BuildNote(d *Draft, fileName string) string {
	segments := []string{
		fmt.Sprintf("File: %s", fileName),
		fmt.Sprintf("Quote ID: %s", d.QuoteID),
		fmt.Sprintf("Policy No: %s", d.PolicyNumber),
		fmt.Sprintf("Assured: %s", d.Assured),
		fmt.Sprintf("Address: %s", d.Address),
		fmt.Sprintf("Date Issued: %s", d.DateIssued),
		fmt.Sprintf("Inception: %s", d.IncepDate),
		fmt.Sprintf("Agency: %s", d.Agency),
		fmt.Sprintf("Agent: %s", d.Agent),
		fmt.Sprintf("Prepared By: %s", d.PreparedBy),
	}
	return strings.Join(segments, " | ")
}
