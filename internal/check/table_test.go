package check_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"db-sanity/internal/check"
	"db-sanity/internal/schema"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityConsistency(t *testing.T) {
	opts := check.Options{}

	ok := decode(t, "users", `{"1": {"user_id": "1"}, "2": {"user_id": 2}}`)
	r := check.IdentityConsistency(ok, opts)
	assert.Equal(t, "user_id matches key", r.Check)
	assert.True(t, r.Passed, "numbers stringify to their token")

	bad := decode(t, "users", `{"1": {"user_id": "1"}, "2": {"user_id": "3"}, "4": {"name": "x"}}`)
	r = check.IdentityConsistency(bad, opts)
	assert.False(t, r.Passed)
	require.NotNil(t, r.Details)
	assert.Equal(t, []string{"2", "4"}, r.Details.MismatchedKeys)
	assert.Equal(t, 2, r.Details.Count)

	noID := decode(t, "settings", `{"a": {"value": 1}}`)
	r = check.IdentityConsistency(noID, opts)
	assert.Equal(t, "Has *_id field", r.Check)
	assert.False(t, r.Passed)

	empty := decode(t, "empty", `{}`)
	r = check.IdentityConsistency(empty, opts)
	assert.Equal(t, check.NameFileNotEmpty, r.Check)
	assert.False(t, r.Passed)
}

func TestIdentityConsistency_BooleanIDs(t *testing.T) {
	tbl := decode(t, "flags", `{"true": {"flag_id": true}, "False": {"flag_id": false}}`)
	r := check.IdentityConsistency(tbl, check.Options{})
	assert.False(t, r.Passed)
	assert.Equal(t, []string{"False"}, r.Details.MismatchedKeys, "booleans render as JSON text")
}

func TestIdentityConsistency_CustomSuffix(t *testing.T) {
	tbl := decode(t, "homes", `{"h1": {"owner_id": "u1", "home_key": "h1"}}`)
	r := check.IdentityConsistency(tbl, check.Options{IdentitySuffix: "_key"})
	assert.Equal(t, "home_key matches key", r.Check)
	assert.True(t, r.Passed)
}

// Identity consistency holds iff every record's id equals its key.
func TestIdentityConsistency_Property(t *testing.T) {
	f := gofakeit.New(7)
	for round := 0; round < 50; round++ {
		n := f.Number(1, 30)
		tbl := schema.NewTable("t")
		corrupt := f.Bool()
		victim := f.Number(0, n-1)
		for i := 0; i < n; i++ {
			key := fmt.Sprintf("%s-%d", f.LetterN(4), i)
			rec := schema.NewRecord()
			id := key
			if corrupt && i == victim {
				id = key + "x"
			}
			rec.Set("thing_id", schema.NewString(id))
			rec.Set("label", schema.NewString(f.Word()))
			tbl.Append(key, rec)
		}
		r := check.IdentityConsistency(tbl, check.Options{})
		assert.Equal(t, !corrupt, r.Passed, "round %d", round)
	}
}

func TestPrimaryKeys(t *testing.T) {
	tbl := decode(t, "users", `{"1": {"user_id": "1"}, "": {"user_id": ""}, "1": {"user_id": "1"}}`)
	results := check.PrimaryKeys(tbl, check.Options{})
	require.Len(t, results, 2)

	assert.Equal(t, check.NamePrimaryNonNull, results[0].Check)
	assert.False(t, results[0].Passed)
	assert.Equal(t, 1, results[0].Details.Count)

	assert.Equal(t, check.NamePrimaryUnique, results[1].Check)
	assert.False(t, results[1].Passed)
	assert.Equal(t, []string{"1"}, results[1].Details.DuplicateKeys)
	assert.False(t, check.Passed(results))
}

// Primary-key integrity passes iff keys are unique and non-empty.
func TestPrimaryKeys_Property(t *testing.T) {
	f := gofakeit.New(11)
	for round := 0; round < 50; round++ {
		n := f.Number(2, 40)
		var keys []string
		for i := 0; i < n; i++ {
			keys = append(keys, fmt.Sprintf("k%d", i))
		}
		injectDup, injectEmpty := f.Bool(), f.Bool()
		if injectDup {
			keys[f.Number(1, n-1)] = keys[0]
		}
		if injectEmpty {
			keys[f.Number(0, n-1)] = ""
		}

		tbl := schema.NewTable("t")
		for _, k := range keys {
			tbl.Append(k, schema.NewRecord())
		}

		unique := map[string]bool{}
		hasEmpty := false
		for _, k := range keys {
			unique[k] = true
			hasEmpty = hasEmpty || k == ""
		}

		results := check.PrimaryKeys(tbl, check.Options{})
		assert.Equal(t, !hasEmpty, results[0].Passed, "round %d", round)
		assert.Equal(t, len(unique) == len(keys), results[1].Passed, "round %d", round)
		assert.Equal(t, !hasEmpty && len(unique) == len(keys), check.Passed(results), "round %d", round)
	}
}

func enumRules(col string, allowed ...string) *schema.TableEnums {
	def := schema.NewEnumDef()
	def.Add("devices", col, strValues(allowed...))
	return def.Table("devices")
}

func TestEnumMembership(t *testing.T) {
	tbl := decode(t, "devices", `{
		"d1": {"device_id": "d1", "status": "on"},
		"d2": {"device_id": "d2", "status": "broken"},
		"d3": {"device_id": "d3", "status": null},
		"d4": {"device_id": "d4"},
		"d5": {"device_id": "d5", "status": "broken"}
	}`)

	results := check.EnumMembership(tbl, enumRules("status", "on", "off"), check.Options{})
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "status in enum", r.Check)
	assert.False(t, r.Passed)
	assert.Equal(t, []string{"broken"}, str(r.Details.InvalidValues))
	assert.Equal(t, []string{"d2", "d5"}, r.Details.SampleKeys)
	assert.Equal(t, 1, r.Details.Count)
}

func TestEnumMembership_SkipsAbsentColumnsAndCaps(t *testing.T) {
	tbl := schema.NewTable("devices")
	for i := 0; i < 8; i++ {
		rec := schema.NewRecord()
		rec.Set("mode", schema.NewString(fmt.Sprintf("m%d", i)))
		tbl.Append(fmt.Sprintf("k%d", i), rec)
	}
	def := schema.NewEnumDef()
	def.Add("devices", "colour", strValues("red"))
	def.Add("devices", "mode", strValues("m0"))

	results := check.EnumMembership(tbl, def.Table("devices"), check.Options{})
	require.Len(t, results, 1, "colour is not a column of the table")
	r := results[0]
	assert.Equal(t, []string{"m1", "m2", "m3", "m4", "m5"}, str(r.Details.InvalidValues))
	assert.Equal(t, []string{"k1", "k2", "k3", "k4", "k5"}, r.Details.SampleKeys)
	assert.Equal(t, 7, r.Details.Count)

	assert.Nil(t, check.EnumMembership(tbl, nil, check.Options{}))
}

// A single injected out-of-range value fails the check and is reported.
func TestEnumMembership_Property(t *testing.T) {
	f := gofakeit.New(3)
	allowed := []string{"on", "off", "idle", "standby"}
	for round := 0; round < 50; round++ {
		tbl := schema.NewTable("devices")
		n := f.Number(1, 25)
		inject := f.Bool()
		victim := f.Number(0, n-1)
		for i := 0; i < n; i++ {
			rec := schema.NewRecord()
			status := f.RandomString(allowed)
			if inject && i == victim {
				status = "bad-" + f.LetterN(5)
			}
			rec.Set("status", schema.NewString(status))
			tbl.Append(fmt.Sprintf("d%d", i), rec)
		}

		r := check.EnumMembership(tbl, enumRules("status", allowed...), check.Options{})[0]
		assert.Equal(t, !inject, r.Passed, "round %d", round)
		if inject {
			assert.Len(t, r.Details.InvalidValues, 1)
			assert.Equal(t, []string{fmt.Sprintf("d%d", victim)}, r.Details.SampleKeys)
		}
	}
}

func TestDetails_EncodeEmptyLists(t *testing.T) {
	devices := decode(t, "devices", `{"d1": {"device_id": "d1", "status": "on"}}`)
	rules := &schema.TableEnums{
		Columns: []string{"status"},
		Allowed: map[string][]schema.Value{"status": strValues("on", "off")},
	}
	enum := check.EnumMembership(devices, rules, check.Options{})
	require.Len(t, enum, 1)
	require.True(t, enum[0].Passed)

	b, err := json.Marshal(enum[0].Details)
	require.NoError(t, err)
	assert.JSONEq(t, `{"column": "status", "invalid_values": [], "sample_keys": [], "count": 0}`, string(b))

	users := decode(t, "users", `{"1": {"user_id": "1"}}`)
	homes := decode(t, "homes", `{"1": {"owner_id": "1"}}`)
	rel := check.Relationship(ownerRel, users, homes, check.Options{})
	require.Len(t, rel, 3)

	want := []string{
		`{"column": "owner_id", "missing_ids": [], "count": 0}`,
		`{"column": "user_id", "duplicate_parent_ids": [], "count": 0}`,
		`{"column": "owner_id", "duplicate_child_ids": [], "count": 0}`,
	}
	for i, r := range rel {
		b, err := json.Marshal(r.Details)
		require.NoError(t, err)
		assert.JSONEq(t, want[i], string(b), r.Check)
	}
}

func TestTableChecks_Order(t *testing.T) {
	tbl := decode(t, "users", `{"1": {"user_id": "1"}}`)
	results := check.TableChecks(tbl, check.Options{})
	var names []string
	for _, r := range results {
		names = append(names, r.Check)
		assert.True(t, r.Passed)
	}
	assert.Equal(t, []string{check.NameKeysAreStrings, "user_id matches key", check.NamePrimaryNonNull, check.NamePrimaryUnique}, names)
}
