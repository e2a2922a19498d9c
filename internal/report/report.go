package report

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	"db-sanity/internal/check"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// TimeFormat is the layout of Report.Timestamp.
const TimeFormat = time.RFC3339

// TableReport holds the structural checks of one table.
type TableReport struct {
	RowCount int            `json:"row_count"`
	Checks   []check.Result `json:"checks"`
}

// Report is the findings of one run. Map sections encode sorted by table
// name; check order within a table or relationship is insertion order.
type Report struct {
	Timestamp     string                    `json:"timestamp"`
	Tables        map[string]*TableReport   `json:"tables"`
	EnumTables    map[string][]check.Result `json:"enum_tables"`
	Relationships []check.Result            `json:"relationships"`
}

func New(ts time.Time) *Report {
	return &Report{
		Timestamp:     ts.UTC().Format(TimeFormat),
		Tables:        make(map[string]*TableReport),
		EnumTables:    make(map[string][]check.Result),
		Relationships: []check.Result{},
	}
}

// AddTable records the checks of a loaded table. Every loaded table gets
// an enum_tables entry, empty when it has no enum rules.
func (r *Report) AddTable(name string, rowCount int, checks, enumChecks []check.Result) {
	if checks == nil {
		checks = []check.Result{}
	}
	if enumChecks == nil {
		enumChecks = []check.Result{}
	}
	r.Tables[name] = &TableReport{RowCount: rowCount, Checks: checks}
	r.EnumTables[name] = enumChecks
}

func (r *Report) AddRelationships(results ...check.Result) {
	r.Relationships = append(r.Relationships, results...)
}

// TableNames returns the reported tables in name order.
func (r *Report) TableNames() []string {
	names := make([]string, 0, len(r.Tables))
	for name := range r.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failure locates one failed check.
type Failure struct {
	Section string // "tables", "enum_tables" or "relationships"
	Scope   string // table name or relationship label
	Result  check.Result
}

// Failures lists every failed, non-informational check in report order.
func (r *Report) Failures() []Failure {
	var out []Failure
	for _, name := range r.TableNames() {
		for _, c := range r.Tables[name].Checks {
			if c.Failed() {
				out = append(out, Failure{Section: "tables", Scope: name, Result: c})
			}
		}
	}
	enumNames := make([]string, 0, len(r.EnumTables))
	for name := range r.EnumTables {
		enumNames = append(enumNames, name)
	}
	sort.Strings(enumNames)
	for _, name := range enumNames {
		for _, c := range r.EnumTables[name] {
			if c.Failed() {
				out = append(out, Failure{Section: "enum_tables", Scope: name, Result: c})
			}
		}
	}
	for _, c := range r.Relationships {
		if c.Failed() {
			out = append(out, Failure{Section: "relationships", Scope: c.Relationship, Result: c})
		}
	}
	return out
}

// Summary counts report contents.
type Summary struct {
	Tables        int
	Rows          int
	Checks        int
	Passed        int
	Failed        int
	Informational int
}

func (r *Report) Summary() Summary {
	var s Summary
	count := func(results []check.Result) {
		for _, c := range results {
			s.Checks++
			switch {
			case c.Informational:
				s.Informational++
			case c.Passed:
				s.Passed++
			default:
				s.Failed++
			}
		}
	}
	for _, t := range r.Tables {
		s.Tables++
		s.Rows += t.RowCount
		count(t.Checks)
	}
	for _, results := range r.EnumTables {
		count(results)
	}
	count(r.Relationships)
	return s
}

func (r *Report) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode report")
	}
	return append(b, '\n'), nil
}

// Write stores the report as indented JSON at path, creating parent
// directories as needed.
func (r *Report) Write(fs afero.Fs, path string) error {
	b, err := r.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	if err := afero.WriteFile(fs, path, b, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write report %s", path)
	}
	return nil
}

// Read loads a report written by Write.
func Read(fs afero.Fs, path string) (*Report, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read report %s", path)
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrapf(err, "failed to decode report %s", path)
	}
	return &r, nil
}
