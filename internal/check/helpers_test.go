package check_test

import (
	"strings"
	"testing"

	"db-sanity/internal/schema"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, name, doc string) *schema.Table {
	t.Helper()
	tbl, err := schema.DecodeTable(name, strings.NewReader(doc))
	require.NoError(t, err)
	return tbl
}

func str(vals []schema.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}

func strValues(s ...string) []schema.Value {
	out := make([]schema.Value, len(s))
	for i, v := range s {
		out[i] = schema.NewString(v)
	}
	return out
}
