package source

import (
	"database/sql"
	"strconv"
	"strings"
	"sync"

	"db-sanity/internal/dialect"
	"db-sanity/internal/schema"

	"github.com/pkg/errors"
)

// SQLSource reads table snapshots from a live database.
// Record keys are the primary-key value of each row (composite keys are
// joined with "|"); tables without a primary key are keyed by row ordinal.
type SQLSource struct {
	db       *sql.DB
	d        dialect.Dialect
	schema   string
	rowLimit int

	pkOnce sync.Once
	pks    map[string][]string
	pkErr  error
}

func NewSQLSource(db *sql.DB, d dialect.Dialect, schemaName string, rowLimit int) *SQLSource {
	return &SQLSource{
		db:       db,
		d:        d,
		schema:   d.GetSchemaName(schemaName),
		rowLimit: rowLimit,
	}
}

func (s *SQLSource) List() ([]string, error) {
	rows, err := s.db.Query(s.d.GetTablesQuery(s.schema), s.schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan table name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating tables")
	}
	return names, nil
}

// PrimaryKeys maps table name to its primary-key columns in key order.
// The query runs once per source.
func (s *SQLSource) PrimaryKeys() (map[string][]string, error) {
	s.pkOnce.Do(func() {
		s.pks, s.pkErr = s.queryPrimaryKeys()
	})
	return s.pks, s.pkErr
}

func (s *SQLSource) queryPrimaryKeys() (map[string][]string, error) {
	rows, err := s.db.Query(s.d.GetPrimaryKeysQuery(s.schema), s.schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query primary keys")
	}
	defer rows.Close()

	pks := make(map[string][]string)
	for rows.Next() {
		var table, col string
		if err := rows.Scan(&table, &col); err != nil {
			return nil, errors.Wrap(err, "failed to scan primary key")
		}
		pks[table] = append(pks[table], col)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating primary keys")
	}
	return pks, nil
}

func (s *SQLSource) Load(name string) (*schema.Table, error) {
	pks, err := s.PrimaryKeys()
	if err != nil {
		return nil, &LoadError{Table: name, Path: s.schema, Err: err}
	}
	pkCols := pks[name]

	query := s.d.SelectAllQuery(name, pkCols)
	if s.rowLimit > 0 {
		query = s.d.GetLimitRowQuery(query, s.rowLimit)
	}

	t, err := s.readTable(name, query, pkCols)
	if err != nil {
		return nil, &LoadError{Table: name, Path: s.schema, Err: err}
	}
	return t, nil
}

func (s *SQLSource) readTable(name, query string, pkCols []string) (*schema.Table, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query rows")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read columns")
	}

	t := schema.NewTable(name)
	raw := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	ordinal := 0
	for rows.Next() {
		ordinal++
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrapf(err, "failed to scan row %d", ordinal)
		}
		rec := schema.NewRecord()
		for i, c := range cols {
			v, err := schema.FromInterface(raw[i])
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %s", ordinal, c)
			}
			rec.Set(c, v)
		}
		t.Append(rowKey(rec, pkCols, ordinal), rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}
	return t, nil
}

func rowKey(rec *schema.Record, pkCols []string, ordinal int) string {
	if len(pkCols) == 0 {
		return strconv.Itoa(ordinal)
	}
	parts := make([]string, len(pkCols))
	for i, c := range pkCols {
		parts[i] = rec.Get(c).String()
	}
	return strings.Join(parts, "|")
}

// ForeignKeys reads the declared foreign keys of the schema as relationships.
// Every key is reported as one-to-many; the database does not say more.
func (s *SQLSource) ForeignKeys() ([]schema.Relationship, error) {
	rows, err := s.db.Query(s.d.GetForeignKeysQuery(s.schema), s.schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query foreign keys")
	}
	defer rows.Close()

	var rels []schema.Relationship
	for rows.Next() {
		var tName, cConst, cName, rTable, rCol sql.NullString
		if err := rows.Scan(&tName, &cConst, &cName, &rTable, &rCol); err != nil {
			return nil, errors.Wrap(err, "failed to scan foreign key")
		}
		if !tName.Valid || !rTable.Valid || !cName.Valid || !rCol.Valid {
			continue
		}
		rels = append(rels, schema.Relationship{
			ParentTable:  rTable.String,
			ParentColumn: rCol.String,
			ChildTable:   tName.String,
			ChildColumn:  cName.String,
			Type:         schema.OneToMany,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating foreign keys")
	}
	return rels, nil
}
