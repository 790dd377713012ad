// Package mysql contains the introspect implementation for MySQL and
// compatible servers (MariaDB, TiDB). It reads information_schema over
// a sql pool connection and assembles the sqlschema description of the
// connected database.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"morph/internal/flavour"
	"morph/internal/introspect"
	"morph/internal/sqlschema"
)

func init() {
	introspect.Register(flavour.MySQL, New)
}

type introspecter struct{}

type introspectCtx struct {
	db  *sql.DB
	ctx context.Context
}

// New creates a MySQL introspecter.
func New() introspect.Introspecter {
	return &introspecter{}
}

func (i *introspecter) Introspect(ctx context.Context, db *sql.DB) (*sqlschema.Schema, error) {
	var name sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name); err != nil {
		return nil, fmt.Errorf("mysql: resolve current database: %w", err)
	}
	if !name.Valid || name.String == "" {
		return nil, fmt.Errorf("mysql: no database selected on this connection")
	}

	ic := &introspectCtx{db: db, ctx: ctx}
	schema := &sqlschema.Schema{}

	if err := introspectTables(ic, schema); err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}

	return schema, nil
}
