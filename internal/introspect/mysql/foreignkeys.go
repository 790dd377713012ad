package mysql

import (
	"database/sql"
	"strings"

	"morph/internal/sqlschema"
)

func introspectForeignKeys(ic *introspectCtx, t *sqlschema.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			kcu.constraint_name,
			kcu.referenced_table_name,
			rc.delete_rule,
			rc.update_rule,
			GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position SEPARATOR ','),
			GROUP_CONCAT(kcu.referenced_column_name ORDER BY kcu.ordinal_position SEPARATOR ',')
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON kcu.constraint_schema = rc.constraint_schema
			AND kcu.constraint_name = rc.constraint_name
		WHERE kcu.table_schema = DATABASE()
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		GROUP BY kcu.constraint_name, kcu.referenced_table_name, rc.delete_rule, rc.update_rule
		ORDER BY kcu.constraint_name
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, refTable, deleteRule, updateRule, columns, refColumns sql.NullString
		if err := rows.Scan(&name, &refTable, &deleteRule, &updateRule, &columns, &refColumns); err != nil {
			return err
		}

		t.ForeignKeys = append(t.ForeignKeys, sqlschema.ForeignKey{
			ConstraintName:    name.String,
			Columns:           strings.Split(columns.String, ","),
			ReferencedTable:   refTable.String,
			ReferencedColumns: strings.Split(refColumns.String, ","),
			OnDelete:          referentialAction(deleteRule.String),
			OnUpdate:          referentialAction(updateRule.String),
		})
	}

	return rows.Err()
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
