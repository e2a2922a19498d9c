package dialect

import (
	"fmt"
	"strings"
)

// selectAll builds "SELECT * FROM <table> [ORDER BY ...]" with the given identifier quoting.
func selectAll(quote func(string) string, table string, orderBy []string) string {
	query := fmt.Sprintf("SELECT * FROM %s", quote(table))
	if len(orderBy) == 0 {
		return query
	}
	cols := make([]string, len(orderBy))
	for i, c := range orderBy {
		cols[i] = quote(c)
	}
	return query + " ORDER BY " + strings.Join(cols, ", ")
}

// quoteWith wraps name in open/close, doubling any embedded close character.
func quoteWith(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

// DefaultGetSchemaName is a default implementation for Getting Schema Name (identity).
func DefaultGetSchemaName(input string) string {
	return input
}
