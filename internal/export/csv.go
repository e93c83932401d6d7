// Package export serializes projected views into CSV text. Text fields are
// always double-quoted with internal quotes doubled; numeric fields are
// written bare. encoding/csv is not used because it cannot express that
// mixed quoting policy.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/dashboard"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/inventory"
)

// Document is rendered CSV text plus the download filename for it.
type Document struct {
	Filename string
	Content  string
}

// Inventory serializes material summaries in their given (already filtered
// and sorted) order. Returns ok=false for an empty set: no file is produced.
func Inventory(items []*inventory.MaterialSummary, now time.Time) (*Document, bool) {
	if len(items) == 0 {
		return nil, false
	}

	lines := []string{"Material,MaterialDescription,TotalIn,TotalOut,Balance,Unit"}
	for _, it := range items {
		lines = append(lines, record(
			text(it.Material),
			text(it.Description),
			number(it.TotalIn),
			number(it.TotalOut),
			number(it.Balance),
			text(it.Unit),
		))
	}

	return &Document{
		Filename: fmt.Sprintf("inventory_export_%s.csv", now.Format("2006-01-02")),
		Content:  strings.Join(lines, "\n"),
	}, true
}

// Transactions serializes one material's transactions for a direction.
// Outbound quantities are negated so receipts and issues read with
// consistent sign semantics in the file. Returns ok=false when empty.
func Transactions(materialID string, dir dashboard.Direction, txs []inventory.Transaction) (*Document, bool) {
	if len(txs) == 0 {
		return nil, false
	}

	lines := []string{"PostingDate,Quantity,User,CostCenter,Document,Reservation,HeaderText,Text"}
	for _, tx := range txs {
		qty := tx.Quantity
		// The zero guard keeps a 0-quantity issue from rendering as -0.
		if dir == dashboard.DirectionOut && qty != 0 {
			qty = -qty
		}
		lines = append(lines, record(
			text(tx.PostingDate),
			number(qty),
			text(tx.User),
			text(tx.CostCenter),
			text(tx.Document),
			text(tx.Reservation),
			text(tx.HeaderText),
			text(tx.Text),
		))
	}

	return &Document{
		Filename: fmt.Sprintf("%s_%s_transactions.csv", materialID, dir),
		Content:  strings.Join(lines, "\n"),
	}, true
}

type cell struct {
	value   string
	numeric bool
}

func text(s string) cell {
	return cell{value: s}
}

func number(f float64) cell {
	return cell{value: strconv.FormatFloat(f, 'f', -1, 64), numeric: true}
}

func record(cells ...cell) string {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		if c.numeric {
			b.WriteString(c.value)
			continue
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(c.value, `"`, `""`))
		b.WriteByte('"')
	}
	return b.String()
}
