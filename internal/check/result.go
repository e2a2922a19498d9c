package check

import (
	"encoding/json"

	"db-sanity/internal/schema"
)

// DefaultSampleLimit bounds every list of offending values or keys in a report.
const DefaultSampleLimit = 5

// Result is the outcome of one validation rule. A failed check is data,
// not an error.
type Result struct {
	Relationship  string   `json:"relationship,omitempty"`
	Check         string   `json:"check"`
	Passed        bool     `json:"passed"`
	Informational bool     `json:"informational,omitempty"`
	Metric        *float64 `json:"metric,omitempty"`
	Details       *Details `json:"details,omitempty"`
}

// Details carries the diagnostic payload of a check. Lists are capped at
// the sample limit; Count holds the uncapped total.
type Details struct {
	Column             string         `json:"column,omitempty"`
	InvalidValues      []schema.Value `json:"invalid_values,omitempty"`
	SampleKeys         []string       `json:"sample_keys,omitempty"`
	MissingIDs         []schema.Value `json:"missing_ids,omitempty"`
	DuplicateParentIDs []schema.Value `json:"duplicate_parent_ids,omitempty"`
	DuplicateChildIDs  []schema.Value `json:"duplicate_child_ids,omitempty"`
	DuplicateKeys      []string       `json:"duplicate_keys,omitempty"`
	MismatchedKeys     []string       `json:"mismatched_keys,omitempty"`
	MissingTables      []string       `json:"missing_tables,omitempty"`
	Count              int            `json:"count"`
}

// MarshalJSON omits nil lists and encodes empty ones as [], so each check
// kind always reports the lists it owns.
func (d Details) MarshalJSON() ([]byte, error) {
	type encoded struct {
		Column             string          `json:"column,omitempty"`
		InvalidValues      *[]schema.Value `json:"invalid_values,omitempty"`
		SampleKeys         *[]string       `json:"sample_keys,omitempty"`
		MissingIDs         *[]schema.Value `json:"missing_ids,omitempty"`
		DuplicateParentIDs *[]schema.Value `json:"duplicate_parent_ids,omitempty"`
		DuplicateChildIDs  *[]schema.Value `json:"duplicate_child_ids,omitempty"`
		DuplicateKeys      *[]string       `json:"duplicate_keys,omitempty"`
		MismatchedKeys     *[]string       `json:"mismatched_keys,omitempty"`
		MissingTables      *[]string       `json:"missing_tables,omitempty"`
		Count              int             `json:"count"`
	}
	out := encoded{Column: d.Column, Count: d.Count}
	if d.InvalidValues != nil {
		out.InvalidValues = &d.InvalidValues
	}
	if d.SampleKeys != nil {
		out.SampleKeys = &d.SampleKeys
	}
	if d.MissingIDs != nil {
		out.MissingIDs = &d.MissingIDs
	}
	if d.DuplicateParentIDs != nil {
		out.DuplicateParentIDs = &d.DuplicateParentIDs
	}
	if d.DuplicateChildIDs != nil {
		out.DuplicateChildIDs = &d.DuplicateChildIDs
	}
	if d.DuplicateKeys != nil {
		out.DuplicateKeys = &d.DuplicateKeys
	}
	if d.MismatchedKeys != nil {
		out.MismatchedKeys = &d.MismatchedKeys
	}
	if d.MissingTables != nil {
		out.MissingTables = &d.MissingTables
	}
	return json.Marshal(out)
}

// Failed reports a check that did not pass and is not informational.
func (r Result) Failed() bool { return !r.Passed && !r.Informational }

// Options tune the checks.
type Options struct {
	IdentitySuffix string
	SampleLimit    int
}

func (o Options) withDefaults() Options {
	if o.IdentitySuffix == "" {
		o.IdentitySuffix = "_id"
	}
	if o.SampleLimit <= 0 {
		o.SampleLimit = DefaultSampleLimit
	}
	return o
}
