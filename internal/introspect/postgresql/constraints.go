package postgresql

import (
	"strings"

	"morph/internal/sqlschema"
)

func introspectPrimaryKey(ic *introspectCtx, t *sqlschema.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT kcu.constraint_name, kcu.column_name
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.table_constraints tc
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE kcu.table_schema = $1
			AND kcu.table_name = $2
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`, schemaName, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var constraintName, columnName string
		if err := rows.Scan(&constraintName, &columnName); err != nil {
			return err
		}
		if t.PrimaryKey == nil {
			t.PrimaryKey = &sqlschema.PrimaryKey{ConstraintName: constraintName}
		}
		t.PrimaryKey.Columns = append(t.PrimaryKey.Columns, columnName)
	}

	return rows.Err()
}

func introspectIndexes(ic *introspectCtx, t *sqlschema.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			am.amname AS algorithm,
			array_to_string(array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)), ',') AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON am.oid = i.relam
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique, am.amname
		ORDER BY i.relname
	`, schemaName, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, algorithm, columns string
		var unique bool
		if err := rows.Scan(&name, &unique, &algorithm, &columns); err != nil {
			return err
		}

		t.Indexes = append(t.Indexes, sqlschema.Index{
			Name:      name,
			Columns:   strings.Split(columns, ","),
			Unique:    unique,
			Algorithm: indexAlgorithm(algorithm),
		})
	}

	return rows.Err()
}

func introspectForeignKeys(ic *introspectCtx, t *sqlschema.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			tc.constraint_name,
			ccu.table_name AS referenced_table,
			rc.delete_rule,
			rc.update_rule,
			array_to_string(array_agg(DISTINCT kcu.column_name), ',') AS columns,
			array_to_string(array_agg(DISTINCT ccu.column_name), ',') AS referenced_columns
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name
			AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		GROUP BY tc.constraint_name, ccu.table_name, rc.delete_rule, rc.update_rule
		ORDER BY tc.constraint_name
	`, schemaName, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, refTable, deleteRule, updateRule, columns, refColumns string
		if err := rows.Scan(&name, &refTable, &deleteRule, &updateRule, &columns, &refColumns); err != nil {
			return err
		}

		t.ForeignKeys = append(t.ForeignKeys, sqlschema.ForeignKey{
			ConstraintName:    name,
			Columns:           strings.Split(columns, ","),
			ReferencedTable:   refTable,
			ReferencedColumns: strings.Split(refColumns, ","),
			OnDelete:          referentialAction(deleteRule),
			OnUpdate:          referentialAction(updateRule),
		})
	}

	return rows.Err()
}

func indexAlgorithm(raw string) sqlschema.IndexAlgorithm {
	switch strings.ToLower(raw) {
	case "hash":
		return sqlschema.AlgoHash
	case "gin":
		return sqlschema.AlgoGin
	case "gist":
		return sqlschema.AlgoGist
	case "spgist":
		return sqlschema.AlgoSpGist
	case "brin":
		return sqlschema.AlgoBrin
	default:
		return sqlschema.AlgoBTree
	}
}

func referentialAction(raw string) sqlschema.ForeignKeyAction {
	switch strings.ToUpper(raw) {
	case "CASCADE":
		return sqlschema.Cascade
	case "RESTRICT":
		return sqlschema.Restrict
	case "SET NULL":
		return sqlschema.SetNull
	case "SET DEFAULT":
		return sqlschema.SetDefault
	default:
		return sqlschema.NoAction
	}
}
