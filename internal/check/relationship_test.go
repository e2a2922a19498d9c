package check_test

import (
	"fmt"
	"testing"

	"db-sanity/internal/check"
	"db-sanity/internal/schema"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ownerRel = schema.Relationship{
	ParentTable: "users", ParentColumn: "user_id",
	ChildTable: "homes", ChildColumn: "owner_id",
	Type: schema.OneToOne,
}

func TestRelationship_OneToOnePasses(t *testing.T) {
	users := decode(t, "users", `{"1": {"user_id": "1"}, "2": {"user_id": "2"}}`)
	homes := decode(t, "homes", `{"1": {"home_id": "1", "owner_id": "1"}}`)

	results := check.Relationship(ownerRel, users, homes, check.Options{})
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, "users.user_id → homes.owner_id", r.Relationship)
		assert.True(t, r.Passed, r.Check)
	}
	assert.Equal(t, []string{check.NameChildrenHaveRefs, check.NameParentUnique, check.NameChildUnique},
		[]string{results[0].Check, results[1].Check, results[2].Check})
}

func TestRelationship_MissingParents(t *testing.T) {
	users := decode(t, "users", `{"1": {"user_id": "1"}}`)
	homes := decode(t, "homes", `{
		"1": {"home_id": "1", "owner_id": "99"},
		"2": {"home_id": "2", "owner_id": "99"},
		"3": {"home_id": "3", "owner_id": null},
		"4": {"home_id": "4", "owner_id": 1}
	}`)

	r := check.Relationship(ownerRel, users, homes, check.Options{})[0]
	assert.False(t, r.Passed)
	assert.Equal(t, "owner_id", r.Details.Column)
	assert.Equal(t, []string{"99", "1"}, str(r.Details.MissingIDs), "number 1 never matches string \"1\"")
	assert.Equal(t, 2, r.Details.Count)
}

func TestRelationship_LargeIntegerIDs(t *testing.T) {
	users := decode(t, "users", `{
		"a": {"user_id": 9007199254740993},
		"b": {"user_id": 9007199254740992}
	}`)
	homes := decode(t, "homes", `{
		"1": {"owner_id": 9007199254740993},
		"2": {"owner_id": 9007199254740994}
	}`)

	results := check.Relationship(ownerRel, users, homes, check.Options{})
	require.Len(t, results, 3)

	assert.False(t, results[0].Passed)
	assert.Equal(t, []string{"9007199254740994"}, str(results[0].Details.MissingIDs))

	assert.True(t, results[1].Passed, "distinct 64-bit ids are not duplicates")
	assert.Empty(t, results[1].Details.DuplicateParentIDs)
	assert.True(t, results[2].Passed)
}

func TestRelationship_DuplicateParentsAndChildren(t *testing.T) {
	users := decode(t, "users", `{
		"1": {"user_id": "a"}, "2": {"user_id": "b"}, "3": {"user_id": "a"},
		"4": {"user_id": null}, "5": {"user_id": null}, "6": {"user_id": "b"}
	}`)
	homes := decode(t, "homes", `{
		"1": {"owner_id": "b"}, "2": {"owner_id": "a"}, "3": {"owner_id": "b"},
		"4": {"owner_id": null}, "5": {"owner_id": null}
	}`)

	results := check.Relationship(ownerRel, users, homes, check.Options{})
	require.Len(t, results, 3)
	assert.True(t, results[0].Passed)

	assert.False(t, results[1].Passed)
	assert.Equal(t, []string{"a", "b"}, str(results[1].Details.DuplicateParentIDs), "first-encounter order, nulls ignored")
	assert.Equal(t, 2, results[1].Details.Count)

	assert.False(t, results[2].Passed)
	assert.Equal(t, []string{"b"}, str(results[2].Details.DuplicateChildIDs))
}

func TestRelationship_DuplicateParentCap(t *testing.T) {
	users := schema.NewTable("users")
	for i := 0; i < 14; i++ {
		rec := schema.NewRecord()
		rec.Set("user_id", schema.NewString(fmt.Sprintf("u%d", i%7)))
		users.Append(fmt.Sprintf("%d", i), rec)
	}
	homes := decode(t, "homes", `{"1": {"owner_id": "u3"}}`)

	r := check.Relationship(ownerRel, users, homes, check.Options{})[1]
	assert.False(t, r.Passed)
	assert.Equal(t, []string{"u0", "u1", "u2", "u3", "u4"}, str(r.Details.DuplicateParentIDs))
	assert.Equal(t, 7, r.Details.Count)
}

func TestRelationship_OneToManyAverage(t *testing.T) {
	rel := schema.Relationship{
		ParentTable: "homes", ParentColumn: "home_id",
		ChildTable: "rooms", ChildColumn: "home_id",
		Type: schema.OneToMany,
	}
	homes := decode(t, "homes", `{"h1": {"home_id": "h1"}, "h2": {"home_id": "h2"}, "h3": {"home_id": "h3"}}`)
	rooms := decode(t, "rooms", `{
		"r1": {"home_id": "h1"}, "r2": {"home_id": "h1"}, "r3": {"home_id": "h1"},
		"r4": {"home_id": "h2"}, "r5": {"home_id": null}
	}`)

	results := check.Relationship(rel, homes, rooms, check.Options{})
	require.Len(t, results, 3)
	avg := results[2]
	assert.Equal(t, check.NameAvgChildren, avg.Check)
	assert.True(t, avg.Informational)
	assert.False(t, avg.Failed())
	require.NotNil(t, avg.Metric)
	// 4 children over the 2 parent values that occur, not the 3 homes
	assert.InDelta(t, 2.0, *avg.Metric, 1e-9)

	none := decode(t, "rooms", `{"r1": {"home_id": null}}`)
	results = check.Relationship(rel, homes, none, check.Options{})
	assert.Nil(t, results[2].Metric)
}

// The average equals sum(children per value) / count(distinct values observed).
func TestRelationship_AverageProperty(t *testing.T) {
	rel := schema.Relationship{ParentTable: "p", ParentColumn: "p_id", ChildTable: "c", ChildColumn: "p_id", Type: schema.OneToMany}
	f := gofakeit.New(5)
	parent := decode(t, "p", `{"1": {"p_id": "1"}}`)
	for round := 0; round < 30; round++ {
		child := schema.NewTable("c")
		counts := map[string]int{}
		n := f.Number(1, 60)
		for i := 0; i < n; i++ {
			ref := fmt.Sprintf("%d", f.Number(1, 8))
			counts[ref]++
			rec := schema.NewRecord()
			rec.Set("p_id", schema.NewString(ref))
			child.Append(fmt.Sprintf("c%d", i), rec)
		}
		sum := 0
		for _, c := range counts {
			sum += c
		}
		want := float64(sum) / float64(len(counts))

		got := check.Relationship(rel, parent, child, check.Options{})[2].Metric
		require.NotNil(t, got)
		assert.InDelta(t, want, *got, 1e-9, "round %d", round)
	}
}

func TestRelationship_UnknownTypeAndMissingColumn(t *testing.T) {
	rel := ownerRel
	rel.Type = "N:M"
	users := decode(t, "users", `{"1": {"name": "no id column"}}`)
	homes := decode(t, "homes", `{"1": {"owner_id": "1"}}`)

	results := check.Relationship(rel, users, homes, check.Options{})
	require.Len(t, results, 2)
	assert.False(t, results[0].Passed, "absent parent column reads as all null")
	assert.True(t, results[1].Passed)
}

func TestSkipped(t *testing.T) {
	r := check.Skipped(ownerRel, []string{"homes"})
	assert.True(t, r.Informational)
	assert.False(t, r.Failed())
	assert.Equal(t, []string{"homes"}, r.Details.MissingTables)
}
