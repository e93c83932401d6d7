// Package inventory turns the flat movement table into per-material
// summaries: schema resolution at the ingestion boundary, then a single
// aggregation fold. Everything downstream consumes the immutable output.
package inventory

import "time"

// Movement type codes recognized by the aggregator. Every other code is
// filtered noise, not an error.
const (
	MovementInbound  = "101" // goods receipt
	MovementOutbound = "201" // goods issue
)

// PlaceholderDescription stands in for materials whose first valid row
// carries no description.
const PlaceholderDescription = "No description"

// Transaction is one movement event. It is owned by the MaterialSummary
// that contains it and never mutated after aggregation.
type Transaction struct {
	PostingDate string    `json:"postingDate"`
	Date        time.Time `json:"-"`
	Quantity    float64   `json:"quantity"`
	User        string    `json:"user"`
	CostCenter  string    `json:"costCenter"`
	Reservation string    `json:"reservation"`
	Document    string    `json:"document"`
	HeaderText  string    `json:"headerText"`
	Text        string    `json:"text"`
}

// DateLabel renders the posting date the way the dashboard displays it.
// Unparseable dates fall back to the raw cell text.
func (t Transaction) DateLabel() string {
	if t.Date.IsZero() {
		return t.PostingDate
	}
	return t.Date.Format("Jan 2, 2006")
}

// MaterialSummary is the aggregated view of one material. Balance always
// equals TotalIn - TotalOut at rest; the two transaction lists partition
// the material's valid rows by movement type and are sorted descending by
// posting date.
type MaterialSummary struct {
	Material        string        `json:"material"`
	Description     string        `json:"description"`
	TotalIn         float64       `json:"totalIn"`
	TotalOut        float64       `json:"totalOut"`
	Balance         float64       `json:"balance"`
	Unit            string        `json:"unit"`
	InTransactions  []Transaction `json:"inTransactions"`
	OutTransactions []Transaction `json:"outTransactions"`
}

// postingDateLayouts are tried in order when parsing the posting date cell.
// The upstream export uses ISO dates; the older dotted and slashed forms
// show up in hand-edited spreadsheets.
var postingDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02.01.2006",
	"01/02/2006",
}

// parsePostingDate parses a posting date cell, returning the zero time when
// no layout matches.
func parsePostingDate(s string) time.Time {
	for _, layout := range postingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
