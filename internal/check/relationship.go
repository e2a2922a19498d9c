package check

import (
	"db-sanity/internal/schema"
)

// Relationship validates one declared foreign key. parent and child must
// be the loaded tables the relationship names.
//
// Results, in order: children have parents, parent column unique, then
// child column unique (1:1) or the average fan-out metric (1:N). Unknown
// types get the first two only.
func Relationship(rel schema.Relationship, parent, child *schema.Table, opts Options) []Result {
	opts = opts.withDefaults()
	label := rel.Label()

	parentVals := parent.Column(rel.ParentColumn)
	childVals := child.Column(rel.ChildColumn)

	var nonNull []schema.Value
	for _, v := range childVals {
		if !v.IsNull() {
			nonNull = append(nonNull, v)
		}
	}

	// 1) every child value references an existing parent
	parents := newValueSet(parentVals)
	var missing []schema.Value
	for _, v := range distinct(nonNull) {
		if !parents.has(v) {
			missing = append(missing, v)
		}
	}
	results := []Result{{
		Relationship: label,
		Check:        NameChildrenHaveRefs,
		Passed:       len(missing) == 0,
		Details: &Details{
			Column:     rel.ChildColumn,
			MissingIDs: capValues(missing, opts.SampleLimit),
			Count:      len(missing),
		},
	}}

	// 2) the referenced column is unique
	dupParents := duplicates(parentVals)
	results = append(results, Result{
		Relationship: label,
		Check:        NameParentUnique,
		Passed:       len(dupParents) == 0,
		Details: &Details{
			Column:             rel.ParentColumn,
			DuplicateParentIDs: capValues(dupParents, opts.SampleLimit),
			Count:              len(dupParents),
		},
	})

	// 3) cardinality
	switch rel.Type {
	case schema.OneToOne:
		dupChildren := duplicates(childVals)
		results = append(results, Result{
			Relationship: label,
			Check:        NameChildUnique,
			Passed:       len(dupChildren) == 0,
			Details: &Details{
				Column:            rel.ChildColumn,
				DuplicateChildIDs: capValues(dupChildren, opts.SampleLimit),
				Count:             len(dupChildren),
			},
		})
	case schema.OneToMany:
		results = append(results, Result{
			Relationship:  label,
			Check:         NameAvgChildren,
			Passed:        true,
			Informational: true,
			Metric:        averageFanOut(nonNull),
		})
	}
	return results
}

// averageFanOut is the mean occurrence count of the distinct values in
// vals, or nil when vals is empty.
func averageFanOut(vals []schema.Value) *float64 {
	groups := len(distinct(vals))
	if groups == 0 {
		return nil
	}
	avg := float64(len(vals)) / float64(groups)
	return &avg
}

// Skipped records a relationship whose tables were not all loaded.
func Skipped(rel schema.Relationship, missingTables []string) Result {
	return Result{
		Relationship:  rel.Label(),
		Check:         NameTablesLoaded,
		Passed:        false,
		Informational: true,
		Details: &Details{
			MissingTables: missingTables,
			Count:         len(missingTables),
		},
	}
}
