// Package dashboard holds the derived-view pipeline: pure projections over
// the aggregated summaries plus the single state store the view layer reads.
// Every projection recomputes wholesale from its inputs; nothing is patched
// incrementally.
package dashboard

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"

	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/inventory"
)

// PageSize is the fixed number of materials per page.
const PageSize = 12

// DefaultLowStockThreshold marks a material low-stock when its balance is at
// or below it.
const DefaultLowStockThreshold = 10.0

// MovementAll disables the movement-type filter.
const MovementAll = "all"

// SortColumn selects the inventory sort key.
type SortColumn string

const (
	SortByDescription SortColumn = "description"
	SortByBalance     SortColumn = "balance"
)

// SortDirection selects ascending or descending order.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Filters is the base filter state over the summary collection. The three
// predicates are independent and AND together.
type Filters struct {
	Search            string  `json:"search"`
	Movement          string  `json:"movement"`
	LowStockOnly      bool    `json:"lowStockOnly"`
	LowStockThreshold float64 `json:"lowStockThreshold"`
}

// applyFilters keeps the summaries passing every active predicate.
func applyFilters(items []*inventory.MaterialSummary, f Filters) []*inventory.MaterialSummary {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]*inventory.MaterialSummary, 0, len(items))

	for _, it := range items {
		if f.LowStockOnly && it.Balance > f.LowStockThreshold {
			continue
		}
		switch f.Movement {
		case inventory.MovementInbound:
			if it.TotalIn <= 0 {
				continue
			}
		case inventory.MovementOutbound:
			if it.TotalOut <= 0 {
				continue
			}
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(it.Material), term) &&
			!strings.Contains(strings.ToLower(it.Description), term) {
			continue
		}
		out = append(out, it)
	}

	return out
}

// sortSummaries returns a stably sorted copy; ties keep filtered order.
// Descriptions compare with locale collation, balances numerically.
func sortSummaries(items []*inventory.MaterialSummary, col SortColumn, dir SortDirection, coll *collate.Collator) []*inventory.MaterialSummary {
	sorted := make([]*inventory.MaterialSummary, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		var c int
		switch col {
		case SortByBalance:
			switch {
			case sorted[i].Balance < sorted[j].Balance:
				c = -1
			case sorted[i].Balance > sorted[j].Balance:
				c = 1
			}
		default:
			c = coll.CompareString(sorted[i].Description, sorted[j].Description)
		}
		if dir == SortDesc {
			return c > 0
		}
		return c < 0
	})

	return sorted
}

// totalPages is ceil(len/PageSize); zero for an empty set.
func totalPages(n int) int {
	return (n + PageSize - 1) / PageSize
}

// paginate slices the sorted set to the requested 1-indexed page. Callers
// validate the page number first; out-of-range here yields an empty slice.
func paginate(items []*inventory.MaterialSummary, page int) []*inventory.MaterialSummary {
	start := (page - 1) * PageSize
	if start < 0 || start >= len(items) {
		return nil
	}
	end := start + PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Direction tags a merged transaction with its movement direction.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// TaggedTransaction is a transaction in the per-material merged view.
type TaggedTransaction struct {
	inventory.Transaction
	Direction Direction `json:"direction"`
}

// MaterialFilters are the independent drill-down filters. Direction matches
// exactly; every other filter is a case-insensitive substring match. All
// active filters AND together.
type MaterialFilters struct {
	Direction  string `json:"direction"`
	Date       string `json:"date"`
	User       string `json:"user"`
	CostCenter string `json:"costCenter"`
	Query      string `json:"query"`
}

// MaterialView merges a material's inbound and outbound transactions into
// one direction-tagged sequence, newest first, then applies the filters.
// The free-text query matches header text, text, document or reservation.
func MaterialView(sum *inventory.MaterialSummary, f MaterialFilters) []TaggedTransaction {
	merged := make([]TaggedTransaction, 0, len(sum.InTransactions)+len(sum.OutTransactions))
	for _, tx := range sum.InTransactions {
		merged = append(merged, TaggedTransaction{Transaction: tx, Direction: DirectionIn})
	}
	for _, tx := range sum.OutTransactions {
		merged = append(merged, TaggedTransaction{Transaction: tx, Direction: DirectionOut})
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})

	out := make([]TaggedTransaction, 0, len(merged))
	for _, tx := range merged {
		if f.Direction != "" && string(tx.Direction) != f.Direction {
			continue
		}
		if f.Date != "" && !containsFold(tx.DateLabel(), f.Date) {
			continue
		}
		if f.User != "" && !containsFold(tx.User, f.User) {
			continue
		}
		if f.CostCenter != "" && !containsFold(tx.CostCenter, f.CostCenter) {
			continue
		}
		if f.Query != "" &&
			!containsFold(tx.HeaderText, f.Query) &&
			!containsFold(tx.Text, f.Query) &&
			!containsFold(tx.Document, f.Query) &&
			!containsFold(tx.Reservation, f.Query) {
			continue
		}
		out = append(out, tx)
	}

	return out
}

// RangeView is one material's transactions of a single direction bounded to
// an inclusive date range, with the quantity sum over the filtered set.
type RangeView struct {
	Material     string                  `json:"material"`
	Direction    Direction               `json:"direction"`
	From         time.Time               `json:"from"`
	To           time.Time               `json:"to"`
	Transactions []inventory.Transaction `json:"transactions"`
	Total        float64                 `json:"total"`
}

// NewRangeView builds the bounded view. A zero from defaults to the oldest
// transaction date for the direction (the last element of the
// descending-sorted list); a zero to defaults to today. From normalizes to
// start of day, to to end of day.
func NewRangeView(sum *inventory.MaterialSummary, dir Direction, from, to time.Time, now time.Time) RangeView {
	txs := sum.InTransactions
	if dir == DirectionOut {
		txs = sum.OutTransactions
	}

	if from.IsZero() {
		// Oldest dated transaction; the list is sorted newest first.
		for i := len(txs) - 1; i >= 0; i-- {
			if !txs[i].Date.IsZero() {
				from = txs[i].Date
				break
			}
		}
	}
	if to.IsZero() {
		to = now
	}
	from = startOfDay(from)
	to = endOfDay(to)

	view := RangeView{Material: sum.Material, Direction: dir, From: from, To: to}
	for _, tx := range txs {
		// Undated transactions have no position on the time axis.
		if tx.Date.IsZero() || tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		view.Transactions = append(view.Transactions, tx)
		view.Total += tx.Quantity
	}

	return view
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
