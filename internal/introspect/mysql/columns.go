package mysql

import (
	"database/sql"
	"strings"

	"morph/internal/sqlschema"
)

func introspectColumns(ic *introspectCtx, schema *sqlschema.Schema, t *sqlschema.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_default,
			c.extra
		FROM information_schema.columns c
		WHERE c.table_schema = DATABASE() AND c.table_name = ?
		ORDER BY c.ordinal_position
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, colType, nullable, defaultVal, extra sql.NullString
		if err := rows.Scan(&name, &colType, &nullable, &defaultVal, &extra); err != nil {
			return err
		}

		arity := sqlschema.Nullable
		if nullable.String == "NO" {
			arity = sqlschema.Required
		}

		col := sqlschema.Column{
			Name: name.String,
			Type: sqlschema.ColumnType{
				Family:       columnFamily(colType.String),
				Arity:        arity,
				FullDataType: colType.String,
			},
			AutoIncrement: strings.Contains(extra.String, "auto_increment"),
		}

		if col.Type.Family == sqlschema.FamilyEnum {
			enum := sqlschema.Enum{
				Name:   t.Name + "_" + col.Name,
				Values: enumValues(colType.String),
			}
			schema.Enums = append(schema.Enums, enum)
			col.Type.EnumName = enum.Name
		}

		if defaultVal.Valid {
			col.Default = columnDefault(defaultVal.String, extra.String)
		}

		t.Columns = append(t.Columns, col)
	}

	return rows.Err()
}

// columnDefault interprets information_schema's textual default. MySQL
// reports expression defaults through extra as DEFAULT_GENERATED.
func columnDefault(raw, extra string) *sqlschema.DefaultValue {
	upper := strings.ToUpper(raw)
	switch upper {
	case "NULL":
		return nil
	case "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP()", "NOW()":
		return &sqlschema.DefaultValue{Kind: sqlschema.DefaultNow}
	}
	if strings.HasPrefix(upper, "CURRENT_TIMESTAMP(") {
		return &sqlschema.DefaultValue{Kind: sqlschema.DefaultNow}
	}
	if strings.Contains(strings.ToUpper(extra), "DEFAULT_GENERATED") {
		return &sqlschema.DefaultValue{Kind: sqlschema.DefaultDBGenerated, Value: raw}
	}
	return &sqlschema.DefaultValue{Kind: sqlschema.DefaultLiteral, Value: strings.Trim(raw, "'")}
}

// enumValues extracts the labels out of a raw enum('a','b') column
// type.
func enumValues(colType string) []string {
	open := strings.Index(colType, "(")
	end := strings.LastIndex(colType, ")")
	if open == -1 || end == -1 || open >= end {
		return nil
	}

	var values []string
	for _, part := range strings.Split(colType[open+1:end], ",") {
		values = append(values, strings.Trim(strings.TrimSpace(part), "'"))
	}
	return values
}

// columnFamily buckets a raw MySQL column type into a portable family.
func columnFamily(rawType string) sqlschema.ColumnFamily {
	rawType = strings.ToLower(strings.TrimSpace(rawType))

	switch {
	case strings.HasPrefix(rawType, "tinyint(1)"), strings.Contains(rawType, "bool"):
		return sqlschema.FamilyBoolean
	case strings.Contains(rawType, "bigint"):
		return sqlschema.FamilyBigInt
	case strings.Contains(rawType, "int"):
		return sqlschema.FamilyInt
	case strings.Contains(rawType, "decimal"), strings.Contains(rawType, "numeric"):
		return sqlschema.FamilyDecimal
	case strings.Contains(rawType, "float"), strings.Contains(rawType, "double"):
		return sqlschema.FamilyFloat
	case strings.HasPrefix(rawType, "enum"):
		return sqlschema.FamilyEnum
	case strings.Contains(rawType, "json"):
		return sqlschema.FamilyJSON
	case strings.Contains(rawType, "date"), strings.Contains(rawType, "time"):
		return sqlschema.FamilyDateTime
	case strings.Contains(rawType, "blob"), strings.Contains(rawType, "binary"):
		return sqlschema.FamilyBinary
	case strings.Contains(rawType, "char"), strings.Contains(rawType, "text"), strings.Contains(rawType, "set"):
		return sqlschema.FamilyString
	default:
		return sqlschema.FamilyUnknown
	}
}
