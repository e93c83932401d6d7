package inventory

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column headers of the inbound table, exact and case-sensitive.
const (
	ColMaterial    = "Material"
	ColDescription = "Material Description"
	ColQuantity    = "Quantity"
	ColUnit        = "Unit of Entry"
	ColMovement    = "Movement Type"

	ColUser        = "User Name"
	ColPostingDate = "Posting Date"
	ColCostCenter  = "Cost Center"
	ColReservation = "Reservation"
	ColDocument    = "Material Document"
	ColHeaderText  = "Document Header Text"
	ColText        = "Text"
)

// RequiredColumns must all be present for a load to proceed.
var RequiredColumns = []string{ColMaterial, ColDescription, ColQuantity, ColUnit, ColMovement}

// SchemaError reports required columns missing from a fetched table. The
// load that produced it is abandoned wholesale; no partial data is kept.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// schema maps each recognized column name to its index in the header row.
// Optional columns that are absent resolve to -1 and read as empty strings.
type schema struct {
	material    int
	description int
	quantity    int
	unit        int
	movement    int

	user        int
	postingDate int
	costCenter  int
	reservation int
	document    int
	headerText  int
	text        int
}

// resolveSchema locates every recognized column in the header row. A missing
// required column is a hard stop; the returned SchemaError names all of them.
func resolveSchema(headers []string) (*schema, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		// First occurrence wins for duplicated headers.
		if _, ok := index[h]; !ok {
			index[h] = i
		}
	}

	find := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	s := &schema{
		material:    find(ColMaterial),
		description: find(ColDescription),
		quantity:    find(ColQuantity),
		unit:        find(ColUnit),
		movement:    find(ColMovement),
		user:        find(ColUser),
		postingDate: find(ColPostingDate),
		costCenter:  find(ColCostCenter),
		reservation: find(ColReservation),
		document:    find(ColDocument),
		headerText:  find(ColHeaderText),
		text:        find(ColText),
	}

	var missing []string
	for _, rc := range []struct {
		name string
		idx  int
	}{
		{ColMaterial, s.material},
		{ColDescription, s.description},
		{ColQuantity, s.quantity},
		{ColUnit, s.unit},
		{ColMovement, s.movement},
	} {
		if rc.idx < 0 {
			missing = append(missing, rc.name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	return s, nil
}

// cellString reads a cell as text. Absent columns and short rows read as "".
func cellString(row []any, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	switch v := row[idx].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// cellFloat reads a cell as a finite number. The second return is false for
// absent columns, non-numeric text, NaN and infinities.
func cellFloat(row []any, idx int) (float64, bool) {
	if idx < 0 || idx >= len(row) {
		return 0, false
	}
	switch v := row[idx].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
