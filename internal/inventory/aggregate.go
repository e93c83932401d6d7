package inventory

import (
	"math"
	"sort"
	"strings"

	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/source"
)

// Aggregate folds a fetched table into per-material summaries.
//
// A row is admitted iff its trimmed movement type is exactly "101" or "201",
// its material cell is non-empty, and its quantity parses to a finite
// number; everything else is silently skipped. The returned slice iterates
// in first-appearance order of each material; callers sort before display.
func Aggregate(table *source.RawTable, costCenters CostCenterMap) ([]*MaterialSummary, error) {
	s, err := resolveSchema(table.Headers)
	if err != nil {
		return nil, err
	}

	byMaterial := make(map[string]*MaterialSummary)
	var summaries []*MaterialSummary

	for _, row := range table.Rows {
		movement := strings.TrimSpace(cellString(row, s.movement))
		if movement != MovementInbound && movement != MovementOutbound {
			continue
		}
		material := strings.TrimSpace(cellString(row, s.material))
		if material == "" {
			continue
		}
		qty, ok := cellFloat(row, s.quantity)
		if !ok {
			continue
		}

		sum := byMaterial[material]
		if sum == nil {
			// First valid row fixes description and unit for the material.
			desc := strings.TrimSpace(cellString(row, s.description))
			if desc == "" {
				desc = PlaceholderDescription
			}
			sum = &MaterialSummary{
				Material:    material,
				Description: desc,
				Unit:        cellString(row, s.unit),
			}
			byMaterial[material] = sum
			summaries = append(summaries, sum)
		}

		posting := cellString(row, s.postingDate)
		tx := Transaction{
			PostingDate: posting,
			Date:        parsePostingDate(posting),
			Quantity:    math.Abs(qty),
			User:        cellString(row, s.user),
			CostCenter:  costCenters.Resolve(cellString(row, s.costCenter)),
			Reservation: cellString(row, s.reservation),
			Document:    cellString(row, s.document),
			HeaderText:  cellString(row, s.headerText),
			Text:        cellString(row, s.text),
		}

		switch movement {
		case MovementInbound:
			// Receipts accumulate the raw quantity: the upstream sign
			// convention is unknown, so the source value is trusted as-is
			// while issues always use the magnitude.
			sum.TotalIn += qty
			sum.InTransactions = append(sum.InTransactions, tx)
		case MovementOutbound:
			sum.TotalOut += math.Abs(qty)
			sum.OutTransactions = append(sum.OutTransactions, tx)
		}
	}

	// Balance is computed once after the fold, never incrementally.
	for _, sum := range summaries {
		sum.Balance = sum.TotalIn - sum.TotalOut
		sortTransactionsDesc(sum.InTransactions)
		sortTransactionsDesc(sum.OutTransactions)
	}

	return summaries, nil
}

// sortTransactionsDesc orders newest first; ties keep input order.
func sortTransactionsDesc(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
}
