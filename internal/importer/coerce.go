package importer

import (
	"math"
	"strconv"
	"strings"
)

// Employees is the outcome of reading an employees_count cell.
type Employees struct {
	Value int
	// Fallback is set when a non-empty cell could not be used and 0 was stored.
	Fallback bool
}

// ParseEmployees reads a spreadsheet cell as a head count. Numbers are parsed
// as floats and truncated ("12.7" is 12). Empty cells give 0. Anything else
// gives 0 with Fallback set: text, NaN and infinities, negative numbers, and
// numbers above math.MaxInt32 (2147483647).
func ParseEmployees(cell string) Employees {
	s := strings.TrimSpace(cell)
	if s == "" {
		return Employees{}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Employees{Fallback: true}
	}

	f = math.Trunc(f)
	if f < 0 || f > math.MaxInt32 {
		return Employees{Fallback: true}
	}
	return Employees{Value: int(f)}
}
