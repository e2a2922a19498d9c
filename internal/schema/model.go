package schema

import (
	"fmt"
	"strings"
)

// Record is one entity instance: columns in first-seen order plus values by name.
type Record struct {
	Columns []string
	Values  map[string]Value
}

func NewRecord() *Record {
	return &Record{Values: make(map[string]Value)}
}

// Set assigns a column, keeping the position of the first assignment.
func (r *Record) Set(col string, v Value) {
	if _, ok := r.Values[col]; !ok {
		r.Columns = append(r.Columns, col)
	}
	r.Values[col] = v
}

// Get returns the value of col. An absent column reads as null.
func (r *Record) Get(col string) Value {
	if r == nil {
		return Null()
	}
	return r.Values[col]
}

func (r *Record) Has(col string) bool {
	_, ok := r.Values[col]
	return ok
}

// Row pairs a record with the key it was stored under.
type Row struct {
	Key    string
	Record *Record
}

// Table is a named, read-only snapshot of keyed records.
// Rows keep source order, duplicate keys included; keyed lookups see the
// last occurrence of a key.
type Table struct {
	Name    string
	Rows    []Row
	Columns []string

	byKey   map[string]int
	columns map[string]bool
}

func NewTable(name string) *Table {
	return &Table{
		Name:    name,
		byKey:   make(map[string]int),
		columns: make(map[string]bool),
	}
}

// Append adds a row. Only loaders call it, before the table is shared.
func (t *Table) Append(key string, rec *Record) {
	t.byKey[key] = len(t.Rows)
	t.Rows = append(t.Rows, Row{Key: key, Record: rec})
	for _, c := range rec.Columns {
		if !t.columns[c] {
			t.columns[c] = true
			t.Columns = append(t.Columns, c)
		}
	}
}

func (t *Table) Len() int { return len(t.Rows) }

func (t *Table) Keys() []string {
	keys := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		keys[i] = r.Key
	}
	return keys
}

func (t *Table) Record(key string) (*Record, bool) {
	i, ok := t.byKey[key]
	if !ok {
		return nil, false
	}
	return t.Rows[i].Record, true
}

func (t *Table) HasColumn(col string) bool { return t.columns[col] }

// Column is the columnar view of col, one value per row in row order.
func (t *Table) Column(col string) []Value {
	vals := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		vals[i] = r.Record.Get(col)
	}
	return vals
}

// IdentityColumn returns the first column whose name ends with suffix.
func (t *Table) IdentityColumn(suffix string) (string, bool) {
	for _, c := range t.Columns {
		if strings.HasSuffix(c, suffix) {
			return c, true
		}
	}
	return "", false
}

// EnumDef holds the permitted values per table and column, in declaration order.
type EnumDef struct {
	Tables []string
	rules  map[string]*TableEnums
}

type TableEnums struct {
	Columns []string
	Allowed map[string][]Value
}

func NewEnumDef() *EnumDef {
	return &EnumDef{rules: make(map[string]*TableEnums)}
}

func (e *EnumDef) Add(table, column string, allowed []Value) {
	te, ok := e.rules[table]
	if !ok {
		te = &TableEnums{Allowed: make(map[string][]Value)}
		e.rules[table] = te
		e.Tables = append(e.Tables, table)
	}
	if _, ok := te.Allowed[column]; !ok {
		te.Columns = append(te.Columns, column)
	}
	te.Allowed[column] = allowed
}

// Table returns the rules for one table, or nil.
func (e *EnumDef) Table(name string) *TableEnums {
	if e == nil {
		return nil
	}
	return e.rules[name]
}

func (e *EnumDef) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Tables)
}

// Cardinality is the declared relationship kind.
type Cardinality string

const (
	OneToOne  Cardinality = "1:1"
	OneToMany Cardinality = "1:N"
)

func (c Cardinality) Known() bool { return c == OneToOne || c == OneToMany }

// Relationship is a declared foreign key between two tables.
type Relationship struct {
	ParentTable  string      `yaml:"parent_table"`
	ParentColumn string      `yaml:"parent_column"`
	ChildTable   string      `yaml:"child_table"`
	ChildColumn  string      `yaml:"child_column"`
	Type         Cardinality `yaml:"type"`
}

func (r Relationship) Label() string {
	return fmt.Sprintf("%s.%s → %s.%s", r.ParentTable, r.ParentColumn, r.ChildTable, r.ChildColumn)
}
