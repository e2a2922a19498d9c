package check

import (
	"fmt"

	"db-sanity/internal/schema"
)

// Check names as they appear in reports.
const (
	NameKeysAreStrings   = "Keys are strings"
	NameFileNotEmpty     = "File not empty"
	NamePrimaryNonNull   = "Primary keys non-null"
	NamePrimaryUnique    = "Primary keys unique"
	NameChildrenHaveRefs = "All children have parents"
	NameParentUnique     = "Parent column unique"
	NameChildUnique      = "Child column unique"
	NameAvgChildren      = "Average children per parent"
	NameTablesLoaded     = "Referenced tables loaded"
)

// KeysAreStrings always passes: table documents key records by JSON
// object keys, which are strings by construction.
func KeysAreStrings(t *schema.Table) Result {
	return Result{Check: NameKeysAreStrings, Passed: true}
}

// IdentityConsistency verifies that each record's identity column (the
// first column ending in the identity suffix) holds the record's own key.
func IdentityConsistency(t *schema.Table, opts Options) Result {
	opts = opts.withDefaults()

	if t.Len() == 0 {
		return Result{Check: NameFileNotEmpty, Passed: false}
	}

	idCol, ok := t.IdentityColumn(opts.IdentitySuffix)
	if !ok {
		return Result{Check: fmt.Sprintf("Has *%s field", opts.IdentitySuffix), Passed: false}
	}

	var mismatched []string
	for _, row := range t.Rows {
		if row.Record.Get(idCol).String() != row.Key {
			mismatched = append(mismatched, row.Key)
		}
	}

	r := Result{
		Check:  fmt.Sprintf("%s matches key", idCol),
		Passed: len(mismatched) == 0,
	}
	if !r.Passed {
		r.Details = &Details{
			Column:         idCol,
			MismatchedKeys: capStrings(mismatched, opts.SampleLimit),
			Count:          len(mismatched),
		}
	}
	return r
}

// PrimaryKeys returns the non-null and the uniqueness sub-checks over the
// record keys, in that order.
func PrimaryKeys(t *schema.Table, opts Options) []Result {
	opts = opts.withDefaults()

	empty := 0
	seen := make(map[string]int, t.Len())
	var dups []string
	for _, row := range t.Rows {
		if row.Key == "" {
			empty++
		}
		seen[row.Key]++
		if seen[row.Key] == 2 {
			dups = append(dups, row.Key)
		}
	}

	nonNull := Result{Check: NamePrimaryNonNull, Passed: empty == 0}
	if !nonNull.Passed {
		nonNull.Details = &Details{Count: empty}
	}

	unique := Result{Check: NamePrimaryUnique, Passed: len(dups) == 0}
	if !unique.Passed {
		unique.Details = &Details{
			DuplicateKeys: capStrings(dups, opts.SampleLimit),
			Count:         len(dups),
		}
	}
	return []Result{nonNull, unique}
}

// EnumMembership checks every column that appears both in the table and in
// its enum rules. Columns follow the declaration order of the rules.
func EnumMembership(t *schema.Table, rules *schema.TableEnums, opts Options) []Result {
	opts = opts.withDefaults()
	if rules == nil {
		return nil
	}

	var results []Result
	for _, col := range rules.Columns {
		if !t.HasColumn(col) {
			continue
		}
		allowed := newValueSet(rules.Allowed[col])

		vals := t.Column(col)
		var invalid []schema.Value
		for _, v := range distinct(vals) {
			if !allowed.has(v) {
				invalid = append(invalid, v)
			}
		}
		bad := newValueSet(invalid)

		sampleKeys := []string{}
		for i, v := range vals {
			if len(sampleKeys) == opts.SampleLimit {
				break
			}
			if !v.IsNull() && bad.has(v) {
				sampleKeys = append(sampleKeys, t.Rows[i].Key)
			}
		}

		results = append(results, Result{
			Check:  fmt.Sprintf("%s in enum", col),
			Passed: len(invalid) == 0,
			Details: &Details{
				Column:        col,
				InvalidValues: capValues(invalid, opts.SampleLimit),
				SampleKeys:    sampleKeys,
				Count:         len(invalid),
			},
		})
	}
	return results
}

// TableChecks runs the structural checks of one table in report order.
func TableChecks(t *schema.Table, opts Options) []Result {
	results := []Result{
		KeysAreStrings(t),
		IdentityConsistency(t, opts),
	}
	return append(results, PrimaryKeys(t, opts)...)
}

// Passed reports whether none of results failed.
func Passed(results []Result) bool {
	for _, r := range results {
		if r.Failed() {
			return false
		}
	}
	return true
}
