package qbo

// Ref is a QuickBooks entity reference.
type Ref struct {
	Value string `json:"value"`
}

// EmailAddress is the QuickBooks email wrapper.
type EmailAddress struct {
	Address string `json:"Address"`
}

// Customer is the subset of the QuickBooks customer entity the relay
// reads and writes. Id is opaque and owned by QuickBooks.
type Customer struct {
	ID               string        `json:"Id,omitempty"`
	DisplayName      string        `json:"DisplayName"`
	PrimaryEmailAddr *EmailAddress `json:"PrimaryEmailAddr,omitempty"`
}

// customerQueryResponse is the shape of /query results for customers.
type customerQueryResponse struct {
	QueryResponse struct {
		Customer []Customer `json:"Customer"`
	} `json:"QueryResponse"`
}

// customerCreateResponse wraps a created customer.
type customerCreateResponse struct {
	Customer Customer `json:"Customer"`
}

// SalesItemLineDetail carries the item-level fields of an invoice line.
type SalesItemLineDetail struct {
	ItemRef    Ref     `json:"ItemRef"`
	Qty        float64 `json:"Qty"`
	UnitPrice  float64 `json:"UnitPrice"`
	TaxCodeRef Ref     `json:"TaxCodeRef,omitzero"`
}

// Line is one billable entry on an invoice.
type Line struct {
	Amount              float64             `json:"Amount"`
	DetailType          string              `json:"DetailType"`
	Description         string              `json:"Description,omitempty"`
	SalesItemLineDetail SalesItemLineDetail `json:"SalesItemLineDetail"`
}

// InvoicePayload is the invoice-creation request body.
type InvoicePayload struct {
	CustomerRef Ref    `json:"CustomerRef"`
	Line        []Line `json:"Line"`
	TxnDate     string `json:"TxnDate,omitempty"`
	PrivateNote string `json:"PrivateNote,omitempty"`
}

// faultResponse is the QuickBooks error envelope.
type faultResponse struct {
	Fault struct {
		Error []struct {
			Message string `json:"Message"`
			Detail  string `json:"Detail"`
			Code    string `json:"code"`
		} `json:"Error"`
	} `json:"Fault"`
}

// tokenResponse is the OAuth bearer-token response. Fields beyond the
// access token are ignored by the relay.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}
