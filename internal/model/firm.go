package model

// Firm is the issuing legal entity on invoices.
type Firm struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	GSTIN   string `json:"gstin,omitempty"`
	PAN     string `json:"pan,omitempty"`
}
