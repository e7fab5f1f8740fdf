package mpn

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Table is a vendor MPN lookup table, as distributed alongside the tray
// product: one row per (large, small) well combination with its published
// MPN per 100 mL. When a table is supplied, its values are preferred over
// the analytic estimator so that results match the bench printouts.
type Table struct {
	// Distinct well counts present in the table, sorted. Vendor excerpts
	// are often sparse, publishing only a subset of the full grid.
	larges []int
	smalls []int
	values map[[2]int]float64
}

// LoadTable reads a lookup table from CSV with columns large_wells,
// small_wells, and mpn_per_100ml. Extra columns are ignored.
func LoadTable(r io.Reader) (*Table, error) {
	csvReader := csv.NewReader(r)
	entries, err := csvReader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(entries) < 2 {
		return nil, fmt.Errorf("mpn: lookup table has no data rows")
	}

	header := make(map[string]int)
	for i, col := range entries[0] {
		header[col] = i
	}

	for _, col := range []string{"large_wells", "small_wells", "mpn_per_100ml"} {
		if _, exists := header[col]; !exists {
			return nil, fmt.Errorf("mpn: lookup table is missing column %q", col)
		}
	}

	t := &Table{values: make(map[[2]int]float64, len(entries)-1)}
	largeSet := make(map[int]bool)
	smallSet := make(map[int]bool)

	for i, row := range entries {
		if i == 0 {
			continue
		}

		large, err := strconv.Atoi(row[header["large_wells"]])
		if err != nil {
			return nil, fmt.Errorf("mpn: lookup table row %d: %w", i, err)
		}

		small, err := strconv.Atoi(row[header["small_wells"]])
		if err != nil {
			return nil, fmt.Errorf("mpn: lookup table row %d: %w", i, err)
		}

		value, err := strconv.ParseFloat(row[header["mpn_per_100ml"]], 64)
		if err != nil {
			return nil, fmt.Errorf("mpn: lookup table row %d: %w", i, err)
		}

		if large < 0 || small < 0 {
			return nil, fmt.Errorf("mpn: lookup table row %d has negative well counts", i)
		}

		t.values[[2]int{large, small}] = value
		largeSet[large] = true
		smallSet[small] = true
	}

	for large := range largeSet {
		t.larges = append(t.larges, large)
	}
	for small := range smallSet {
		t.smalls = append(t.smalls, small)
	}
	sort.Ints(t.larges)
	sort.Ints(t.smalls)

	return t, nil
}

func (t *Table) maxLarge() int { return t.larges[len(t.larges)-1] }
func (t *Table) maxSmall() int { return t.smalls[len(t.smalls)-1] }

// Lookup returns the table's published estimate for a well combination,
// applying the same censoring rules as the analytic estimators: the
// all-negative corner is a non-detect and the all-positive corner is
// over-range.
func (t *Table) Lookup(largePositive, smallPositive int) (Estimate, error) {
	value, exists := t.values[[2]int{largePositive, smallPositive}]
	if !exists {
		return Estimate{}, fmt.Errorf("mpn: no table entry for %d large, %d small positive wells", largePositive, smallPositive)
	}

	out := Estimate{MPNPer100ML: value}
	switch {
	case largePositive == 0 && smallPositive == 0:
		out.Censoring = BelowLOD
	case largePositive == t.maxLarge() && smallPositive == t.maxSmall():
		out.Censoring = AboveULOQ
	}

	return out, nil
}

// Estimate resolves a well combination against the table, interpolating
// between the nearest published combinations when the exact entry is not
// in the vendor's grid.
func (t *Table) Estimate(largePositive, smallPositive int) (Estimate, error) {
	if est, err := t.Lookup(largePositive, smallPositive); err == nil {
		return est, nil
	}

	value, err := t.Interpolate(float64(largePositive), float64(smallPositive))
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{MPNPer100ML: value}, nil
}

// Interpolate evaluates the table at fractional well coordinates by
// bilinear interpolation between the four surrounding published entries,
// bracketing each axis with the nearest well counts the vendor actually
// lists. Coordinates that hit an entry return the entry itself.
func (t *Table) Interpolate(large, small float64) (float64, error) {
	if large < float64(t.larges[0]) || large > float64(t.maxLarge()) || small < float64(t.smalls[0]) || small > float64(t.maxSmall()) {
		return 0, fmt.Errorf("mpn: coordinates (%f, %f) outside the table grid", large, small)
	}

	l0, l1 := bracketAxis(t.larges, large)
	s0, s1 := bracketAxis(t.smalls, small)

	corners := [4]float64{}
	for i, key := range [][2]int{{l0, s0}, {l1, s0}, {l0, s1}, {l1, s1}} {
		v, exists := t.values[key]
		if !exists {
			return 0, fmt.Errorf("mpn: no table entry for %d large, %d small positive wells to interpolate from", key[0], key[1])
		}
		corners[i] = v
	}

	fl := 0.0
	if l1 > l0 {
		fl = (large - float64(l0)) / float64(l1-l0)
	}

	fs := 0.0
	if s1 > s0 {
		fs = (small - float64(s0)) / float64(s1-s0)
	}

	low := corners[0]*(1.0-fl) + corners[1]*fl
	high := corners[2]*(1.0-fl) + corners[3]*fl

	return low*(1.0-fs) + high*fs, nil
}

// bracketAxis returns the nearest axis values at or below and at or above
// x. The caller has already checked that x lies within the axis range.
func bracketAxis(axis []int, x float64) (lo, hi int) {
	i := sort.Search(len(axis), func(i int) bool { return float64(axis[i]) >= x })
	hi = axis[i]

	lo = hi
	if float64(hi) > x {
		lo = axis[i-1]
	}

	return lo, hi
}
