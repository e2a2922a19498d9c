package dialect

// Dialect abstracts the database-specific queries used to read table snapshots.
type Dialect interface {
	// Metadata Queries (Schema Introspection).
	// Each takes the schema name as its single bind parameter.
	GetTablesQuery(schema string) string
	GetPrimaryKeysQuery(schema string) string
	GetForeignKeysQuery(schema string) string

	// Query Generation
	SelectAllQuery(table string, orderBy []string) string
	QuoteIdent(name string) string

	// Helpers
	GetSchemaName(input string) string
	GetLimitRowQuery(query string, limit int) string
}
