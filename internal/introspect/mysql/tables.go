package mysql

import (
	"morph/internal/sqlschema"
)

func introspectTables(ic *introspectCtx, schema *sqlschema.Schema) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
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

	for _, name := range names {
		t := sqlschema.Table{Name: name}

		if err := introspectColumns(ic, schema, &t); err != nil {
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

	if err := introspectViews(ic, schema); err != nil {
		return err
	}
	return introspectProcedures(ic, schema)
}

func introspectViews(ic *introspectCtx, schema *sqlschema.Schema) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT table_name, view_definition
		FROM information_schema.views
		WHERE table_schema = DATABASE()
		ORDER BY table_name
	`)
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

func introspectProcedures(ic *introspectCtx, schema *sqlschema.Schema) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT routine_name, COALESCE(routine_definition, '')
		FROM information_schema.routines
		WHERE routine_schema = DATABASE() AND routine_type = 'PROCEDURE'
		ORDER BY routine_name
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p sqlschema.Procedure
		if err := rows.Scan(&p.Name, &p.Definition); err != nil {
			return err
		}
		schema.Procedures = append(schema.Procedures, p)
	}

	return rows.Err()
}
