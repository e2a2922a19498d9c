package fixture_test

import (
	"testing"

	"db-sanity/internal/check"
	"db-sanity/internal/fixture"
	"db-sanity/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var smartHome = []schema.Relationship{
	{ParentTable: "users", ParentColumn: "user_id", ChildTable: "homes", ChildColumn: "owner_id", Type: schema.OneToOne},
	{ParentTable: "homes", ParentColumn: "home_id", ChildTable: "rooms", ChildColumn: "home_id", Type: schema.OneToMany},
	{ParentTable: "rooms", ParentColumn: "room_id", ChildTable: "devices", ChildColumn: "room_id", Type: schema.OneToMany},
}

func smartHomeEnums() *schema.EnumDef {
	def := schema.NewEnumDef()
	def.Add("devices", "status", []schema.Value{schema.NewString("on"), schema.NewString("off")})
	return def
}

func byName(fx *fixture.Fixture) map[string]*schema.Table {
	out := make(map[string]*schema.Table)
	for _, t := range fx.Tables {
		out[t.Name] = t
	}
	return out
}

// allResults runs every check over a generated fixture.
func allResults(fx *fixture.Fixture, rels []schema.Relationship, enums *schema.EnumDef) []check.Result {
	tables := byName(fx)
	var results []check.Result
	for _, t := range fx.Tables {
		results = append(results, check.TableChecks(t, check.Options{})...)
		results = append(results, check.EnumMembership(t, enums.Table(t.Name), check.Options{})...)
	}
	for _, rel := range rels {
		results = append(results, check.Relationship(rel, tables[rel.ParentTable], tables[rel.ChildTable], check.Options{})...)
	}
	return results
}

func TestGenerate_CleanFixturePassesChecks(t *testing.T) {
	enums := smartHomeEnums()
	var visited []string
	fx, err := fixture.Generate(fixture.Spec{
		Relationships: smartHome,
		Enums:         enums,
		Count:         12,
		Columns:       []string{"name", "created_dt", "usr_tel_no"},
		Seed:          42,
	}, func(name string) { visited = append(visited, name) })
	require.NoError(t, err)

	assert.Equal(t, []string{"users", "homes", "rooms", "devices"}, visited, "parents first")
	assert.Empty(t, fx.Faults)

	for _, r := range allResults(fx, smartHome, enums) {
		assert.False(t, r.Failed(), "%s %s", r.Relationship, r.Check)
	}

	homes := byName(fx)["homes"]
	assert.Equal(t, 12, homes.Len())
	assert.Equal(t, []string{"home_id", "owner_id", "name", "created_dt", "usr_tel_no"}, homes.Columns)
}

func TestGenerate_Deterministic(t *testing.T) {
	spec := fixture.Spec{Relationships: smartHome, Enums: smartHomeEnums(), Columns: []string{"email"}, Seed: 7, OrphanRate: 0.2}
	a, err := fixture.Generate(spec, nil)
	require.NoError(t, err)
	b, err := fixture.Generate(spec, nil)
	require.NoError(t, err)

	for i := range a.Tables {
		ja, err := a.Tables[i].MarshalJSON()
		require.NoError(t, err)
		jb, err := b.Tables[i].MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, string(ja), string(jb))
	}
	assert.Equal(t, a.Faults, b.Faults)
}

func TestGenerate_InjectedFaultsAreDetected(t *testing.T) {
	enums := smartHomeEnums()
	fx, err := fixture.Generate(fixture.Spec{
		Relationships:   smartHome,
		Enums:           enums,
		Count:           5,
		OrphanRate:      1,
		InvalidEnumRate: 1,
		Seed:            1,
	}, nil)
	require.NoError(t, err)

	var orphans, invalid int
	for _, f := range fx.Faults {
		switch f.Kind {
		case fixture.FaultOrphan:
			orphans++
		case fixture.FaultInvalidEnum:
			invalid++
		}
	}
	assert.Equal(t, 15, orphans, "every child cell of three relationships")
	assert.Equal(t, 5, invalid)

	failed := map[string]bool{}
	for _, r := range allResults(fx, smartHome, enums) {
		if r.Failed() {
			failed[r.Check] = true
		}
	}
	assert.True(t, failed[check.NameChildrenHaveRefs])
	assert.True(t, failed["status in enum"])
}

func TestGenerate_SelfReferenceAndExtraTables(t *testing.T) {
	rels := []schema.Relationship{
		{ParentTable: "categories", ParentColumn: "category_id", ChildTable: "categories", ChildColumn: "parent_id", Type: schema.OneToMany},
	}
	fx, err := fixture.Generate(fixture.Spec{Relationships: rels, Tables: []string{"settings"}, Count: 4, Seed: 3}, nil)
	require.NoError(t, err)

	tables := byName(fx)
	require.Contains(t, tables, "settings")
	assert.Equal(t, "setting_id", tables["settings"].Columns[0])

	cats := tables["categories"]
	assert.True(t, cats.Column("parent_id")[0].IsNull(), "first row has no earlier parent")
	for _, r := range check.Relationship(rels[0], cats, cats, check.Options{}) {
		assert.False(t, r.Failed(), r.Check)
	}
}

func TestGenerate_Invalid(t *testing.T) {
	_, err := fixture.Generate(fixture.Spec{}, nil)
	assert.Error(t, err)

	_, err = fixture.Generate(fixture.Spec{Tables: []string{"a"}, OrphanRate: 2}, nil)
	assert.Error(t, err)
}
