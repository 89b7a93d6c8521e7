package cageots

import (
	"time"
)

const (
	VENDOR   = "Les ptits cageots"
	CURRENCY = "EUR"

	DEFAULT_BASE_URL = "https://www.lesptitscageots.fr"

	STATUS_PLACED    = "Commande passée"
	STATUS_PROCESSED = "Commande traitée"
)

// RawOrderRow is one row of the order history table as it was scraped,
// nothing about it has been validated yet.
type RawOrderRow struct {
	Date        string
	Amount      string
	VendorRef   string
	OrderStatus string
	FileUrl     string
}

type Classification struct {
	Label          string `json:"label"`
	Purpose        string `json:"purpose"`
	SourceCategory string `json:"sourceCategory"`
}

// Metadata is attached to the stored invoice file for cataloging, it is
// passed through untouched to the bill store.
type Metadata struct {
	CarbonCopy     bool           `json:"carbonCopy"`
	Classification Classification `json:"classification"`
	Datetime       string         `json:"datetime"`
	DatetimeLabel  string         `json:"datetimeLabel"`
	ContentAuthor  string         `json:"contentAuthor"`
	IssueDate      string         `json:"issueDate"`
}

// InvoiceRecord is the canonical form of an invoiced order.
type InvoiceRecord struct {
	Date      time.Time
	Amount    float64
	VendorRef string
	Currency  string
	Vendor    string
	FileUrl   string
	Filename  string
	Metadata  Metadata
}

// DedupKey is the triple the bill store recognizes an already imported
// invoice by.
type DedupKey struct {
	VendorRef string
	Date      time.Time
	Amount    string
}

func (r InvoiceRecord) DedupKey() DedupKey {
	return DedupKey{
		VendorRef: r.VendorRef,
		Date:      r.Date,
		Amount:    FormatAmount(r.Amount),
	}
}

// Variant holds what differs between the historic deployments of the
// connector.
type Variant struct {
	Name string
	// AcceptedStatuses are the order statuses that guarantee an invoice
	// exists, compared with exact string equality.
	AcceptedStatuses []string
	// Identifiers are words found in the label of the bank operations that
	// pay for an order.
	Identifiers []string
}

func (v Variant) Accepts(status string) bool {
	for _, accepted := range v.AcceptedStatuses {
		if status == accepted {
			return true
		}
	}
	return false
}

var VariantCurrent = Variant{
	Name:             "current",
	AcceptedStatuses: []string{STATUS_PROCESSED},
	Identifiers:      []string{"Les P Tits Cag"},
}

var VariantLegacy = Variant{
	Name:             "legacy",
	AcceptedStatuses: []string{STATUS_PLACED, STATUS_PROCESSED},
	Identifiers:      []string{"Les P Tits Cag", "lesptitscageots"},
}

// VariantByName returns the variant with the given name, "" selects
// VariantCurrent.
func VariantByName(name string) (Variant, bool) {
	switch name {
	case "", VariantCurrent.Name:
		return VariantCurrent, true
	case VariantLegacy.Name:
		return VariantLegacy, true
	}
	return Variant{}, false
}
