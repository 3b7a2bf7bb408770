package evaluation

import "strings"

// NormalizeTableName reduces a table reference to the form used for scoring:
// quotes dropped, schema or catalog qualifiers removed, lower-cased. The SQL
// extractor and the table index may disagree on qualification, so
// "public.Orders" and "orders" score as the same table.
func NormalizeTableName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Trim(name, "\"`[] ")
	return strings.ToLower(name)
}

// tableSet normalizes names, dropping blanks and duplicates
func tableSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if key := NormalizeTableName(n); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// topTables returns the first k distinct normalized names of retrieved, in rank order
func topTables(retrieved []string, k int) []string {
	seen := make(map[string]struct{}, k)
	top := make([]string, 0, k)
	for _, n := range retrieved {
		if len(top) == k {
			break
		}
		key := NormalizeTableName(n)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		top = append(top, key)
	}
	return top
}

// RecallAtK is the fraction of expected tables among the first k distinct
// retrieved tables. A table retrieved twice under different qualifications
// counts once. Returns 0 when nothing is expected.
func RecallAtK(expected, retrieved []string, k int) float64 {
	want := tableSet(expected)
	if len(want) == 0 || k <= 0 {
		return 0
	}

	found := 0
	for _, table := range topTables(retrieved, k) {
		if _, ok := want[table]; ok {
			found++
		}
	}
	return float64(found) / float64(len(want))
}

// MRRAtK is the reciprocal rank of the first expected table among the first k
// distinct retrieved tables, or 0 when none is found.
func MRRAtK(expected, retrieved []string, k int) float64 {
	want := tableSet(expected)
	if len(want) == 0 || k <= 0 {
		return 0
	}

	for i, table := range topTables(retrieved, k) {
		if _, ok := want[table]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}
