package mysql

import (
	"database/sql"
	"strings"

	"morph/internal/sqlschema"
)

func introspectIndexes(ic *introspectCtx, t *sqlschema.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			index_name,
			non_unique,
			index_type,
			GROUP_CONCAT(column_name ORDER BY seq_in_index SEPARATOR ',')
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ?
		GROUP BY index_name, non_unique, index_type
		ORDER BY index_name
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, nonUnique, indexType, columns sql.NullString
		if err := rows.Scan(&name, &nonUnique, &indexType, &columns); err != nil {
			return err
		}

		cols := strings.Split(columns.String, ",")

		// The PRIMARY index is the primary key, not a secondary index.
		if name.String == "PRIMARY" {
			t.PrimaryKey = &sqlschema.PrimaryKey{
				Columns:        cols,
				ConstraintName: "PRIMARY",
			}
			continue
		}

		t.Indexes = append(t.Indexes, sqlschema.Index{
			Name:      name.String,
			Columns:   cols,
			Unique:    nonUnique.String == "0",
			Algorithm: indexAlgorithm(indexType.String),
		})
	}

	return rows.Err()
}

func indexAlgorithm(raw string) sqlschema.IndexAlgorithm {
	switch strings.ToUpper(raw) {
	case "HASH":
		return sqlschema.AlgoHash
	default:
		return sqlschema.AlgoBTree
	}
}
