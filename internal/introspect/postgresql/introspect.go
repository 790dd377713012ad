// Package postgresql contains the introspect implementation for
// PostgreSQL. It reads information_schema and the pg_catalog tables
// over a sql pool connection and assembles the sqlschema description of
// the connected database. Only the public schema is read.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"morph/internal/flavour"
	"morph/internal/introspect"
	"morph/internal/sqlschema"
)

func init() {
	introspect.Register(flavour.Postgres, New)
}

const schemaName = "public"

type introspecter struct{}

type introspectCtx struct {
	db  *sql.DB
	ctx context.Context
}

// New creates a PostgreSQL introspecter.
func New() introspect.Introspecter {
	return &introspecter{}
}

func (i *introspecter) Introspect(ctx context.Context, db *sql.DB) (*sqlschema.Schema, error) {
	ic := &introspectCtx{db: db, ctx: ctx}
	schema := &sqlschema.Schema{}

	if err := introspectEnums(ic, schema); err != nil {
		return nil, fmt.Errorf("postgresql: %w", err)
	}
	if err := introspectSequences(ic, schema); err != nil {
		return nil, fmt.Errorf("postgresql: %w", err)
	}
	if err := introspectTables(ic, schema); err != nil {
		return nil, fmt.Errorf("postgresql: %w", err)
	}

	return schema, nil
}

func introspectEnums(ic *introspectCtx, schema *sqlschema.Schema) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON t.typnamespace = n.oid
		WHERE n.nspname = $1
		ORDER BY t.typname, e.enumsortorder
	`, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	byName := map[string]int{}
	for rows.Next() {
		var typName, label string
		if err := rows.Scan(&typName, &label); err != nil {
			return err
		}
		idx, ok := byName[typName]
		if !ok {
			idx = len(schema.Enums)
			byName[typName] = idx
			schema.Enums = append(schema.Enums, sqlschema.Enum{Name: typName})
		}
		schema.Enums[idx].Values = append(schema.Enums[idx].Values, label)
	}

	return rows.Err()
}

func introspectSequences(ic *introspectCtx, schema *sqlschema.Schema) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT sequence_name
		FROM information_schema.sequences
		WHERE sequence_schema = $1
		ORDER BY sequence_name
	`, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		schema.Sequences = append(schema.Sequences, sqlschema.Sequence{Name: name})
	}

	return rows.Err()
}

func introspectTables(ic *introspectCtx, schema *sqlschema.Schema) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	enums := map[string]bool{}
	for _, e := range schema.Enums {
		enums[e.Name] = true
	}

	for _, name := range names {
		t := sqlschema.Table{Name: name}

		if err := introspectColumns(ic, &t, enums); err != nil {
			return err
		}
		if err := introspectPrimaryKey(ic, &t); err != nil {
			return err
		}
		if err := introspectIndexes(ic, &t); err != nil {
			return err
		}
		if err := introspectForeignKeys(ic, &t); err != nil {
			return err
		}

		schema.Tables = append(schema.Tables, t)
	}

	return introspectViews(ic, schema)
}

func introspectViews(ic *introspectCtx, schema *sqlschema.Schema) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT table_name, COALESCE(view_definition, '')
		FROM information_schema.views
		WHERE table_schema = $1
		ORDER BY table_name
	`, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v sqlschema.View
		if err := rows.Scan(&v.Name, &v.Definition); err != nil {
			return err
		}
		schema.Views = append(schema.Views, v)
	}

	return rows.Err()
}
