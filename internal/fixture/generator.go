package fixture

import (
	"fmt"
	"sort"
	"strconv"

	"db-sanity/internal/schema"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/pkg/errors"
)

// DefaultCount is the number of rows generated per table.
const DefaultCount = 10

// Spec describes the fixture to generate.
type Spec struct {
	// Tables to generate besides those named by Relationships and Enums.
	Tables        []string
	Relationships []schema.Relationship
	Enums         *schema.EnumDef

	Count          int
	Columns        []string // free columns added to every table
	IdentitySuffix string

	// Fault injection, as a probability per generated cell.
	OrphanRate      float64
	InvalidEnumRate float64

	Seed int64 // 0 picks a random seed
}

// FaultKind names a deliberately injected defect.
type FaultKind string

const (
	FaultOrphan      FaultKind = "orphan"
	FaultInvalidEnum FaultKind = "invalid_enum"
)

// Fault records one injected defect.
type Fault struct {
	Kind   FaultKind
	Table  string
	Key    string
	Column string
	Value  string
}

type Fixture struct {
	Tables []*schema.Table // parents before children
	Faults []Fault
}

// Generate builds one table per named table. Tables are generated parents
// first, so every child column can draw from the values already generated
// for the column it references. A child column whose parent is not yet
// generated (a cycle) is left null.
func Generate(spec Spec, onTable func(name string)) (*Fixture, error) {
	if spec.Count <= 0 {
		spec.Count = DefaultCount
	}
	if spec.IdentitySuffix == "" {
		spec.IdentitySuffix = "_id"
	}
	if spec.OrphanRate < 0 || spec.OrphanRate > 1 || spec.InvalidEnumRate < 0 || spec.InvalidEnumRate > 1 {
		return nil, errors.New("fault rates must be between 0 and 1")
	}

	names := TableNames(spec)
	if len(names) == 0 {
		return nil, errors.New("no tables to generate")
	}

	g := &generator{
		spec:  spec,
		faker: gofakeit.New(spec.Seed),
		pools: make(map[string]map[string][]schema.Value),
	}

	fx := &Fixture{}
	for _, node := range schema.SortByDependencies(schema.DependencyNodes(names, spec.Relationships)) {
		t, faults := g.table(node.Name)
		fx.Tables = append(fx.Tables, t)
		fx.Faults = append(fx.Faults, faults...)
		if onTable != nil {
			onTable(node.Name)
		}
	}
	return fx, nil
}

// TableNames lists the tables a fixture will hold, sorted.
func TableNames(s Spec) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range s.Tables {
		add(n)
	}
	for _, rel := range s.Relationships {
		add(rel.ParentTable)
		add(rel.ChildTable)
	}
	if s.Enums != nil {
		for _, n := range s.Enums.Tables {
			add(n)
		}
	}
	sort.Strings(names)
	return names
}

type generator struct {
	spec  Spec
	faker *gofakeit.Faker
	// pools holds generated values per table and referenced column.
	pools map[string]map[string][]schema.Value
}

// identityColumn is the first column ending in the identity suffix that
// other tables reference, or the singular table name plus the suffix.
func (g *generator) identityColumn(table string) string {
	for _, rel := range g.spec.Relationships {
		if rel.ParentTable == table && hasSuffix(rel.ParentColumn, g.spec.IdentitySuffix) {
			return rel.ParentColumn
		}
	}
	return singular(table) + g.spec.IdentitySuffix
}

func (g *generator) table(name string) (*schema.Table, []Fault) {
	f := g.faker
	idCol := g.identityColumn(name)
	t := schema.NewTable(name)
	var faults []Fault

	var refCols []string // unique columns other tables point at
	var childRels []schema.Relationship
	for _, rel := range g.spec.Relationships {
		if rel.ParentTable == name && rel.ParentColumn != idCol && !contains(refCols, rel.ParentColumn) {
			refCols = append(refCols, rel.ParentColumn)
		}
		if rel.ChildTable == name && rel.ChildColumn != idCol {
			childRels = append(childRels, rel)
		}
	}
	enums := g.spec.Enums.Table(name)

	for i := 0; i < g.spec.Count; i++ {
		key := strconv.Itoa(i + 1)
		rec := schema.NewRecord()
		rec.Set(idCol, schema.NewString(key))

		for _, col := range refCols {
			rec.Set(col, schema.NewString(fmt.Sprintf("%s-%d", col, i+1)))
		}

		for _, rel := range childRels {
			if rec.Has(rel.ChildColumn) {
				continue
			}
			v := g.reference(rel, t, i)
			if !v.IsNull() && f.Float64() < g.spec.OrphanRate {
				v = schema.NewString("missing-" + f.LetterN(8))
				faults = append(faults, Fault{Kind: FaultOrphan, Table: name, Key: key, Column: rel.ChildColumn, Value: v.String()})
			}
			rec.Set(rel.ChildColumn, v)
		}

		if enums != nil {
			for _, col := range enums.Columns {
				if rec.Has(col) {
					continue
				}
				allowed := enums.Allowed[col]
				var v schema.Value
				if len(allowed) > 0 {
					v = allowed[f.Number(0, len(allowed)-1)]
				}
				if f.Float64() < g.spec.InvalidEnumRate {
					v = schema.NewString("invalid-" + f.Word())
					faults = append(faults, Fault{Kind: FaultInvalidEnum, Table: name, Key: key, Column: col, Value: v.String()})
				}
				rec.Set(col, v)
			}
		}

		for _, col := range g.spec.Columns {
			if !rec.Has(col) {
				rec.Set(col, GenerateValue(f, col))
			}
		}

		t.Append(key, rec)
	}

	pool := make(map[string][]schema.Value)
	for _, col := range t.Columns {
		pool[col] = t.Column(col)
	}
	g.pools[name] = pool
	return t, faults
}

// reference picks the parent value for row i of a child column: the i-th
// parent value for one-to-one, a random one otherwise.
func (g *generator) reference(rel schema.Relationship, current *schema.Table, i int) schema.Value {
	var vals []schema.Value
	if rel.ParentTable == rel.ChildTable {
		// self reference: point at an earlier row
		vals = current.Column(rel.ParentColumn)
	} else {
		vals = g.pools[rel.ParentTable][rel.ParentColumn]
	}
	if len(vals) == 0 {
		return schema.Null()
	}
	if rel.Type == schema.OneToOne {
		if rel.ParentTable == rel.ChildTable || i >= len(vals) {
			return schema.Null()
		}
		return vals[i]
	}
	return vals[g.faker.Number(0, len(vals)-1)]
}

func hasSuffix(s, suffix string) bool {
	return len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
