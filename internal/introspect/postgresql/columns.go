package postgresql

import (
	"database/sql"
	"strings"

	"morph/internal/sqlschema"
)

func introspectColumns(ic *introspectCtx, t *sqlschema.Table, enums map[string]bool) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`, schemaName, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, dataType, udtName, nullable string
		var defaultVal sql.NullString
		if err := rows.Scan(&name, &dataType, &udtName, &nullable, &defaultVal); err != nil {
			return err
		}

		col := sqlschema.Column{
			Name: name,
			Type: columnType(dataType, udtName, nullable, enums),
		}

		if defaultVal.Valid {
			def, autoInc := columnDefault(defaultVal.String)
			col.Default = def
			col.AutoIncrement = autoInc
		}

		t.Columns = append(t.Columns, col)
	}

	return rows.Err()
}

func columnType(dataType, udtName, nullable string, enums map[string]bool) sqlschema.ColumnType {
	arity := sqlschema.Nullable
	if nullable == "NO" {
		arity = sqlschema.Required
	}

	ct := sqlschema.ColumnType{
		Arity:        arity,
		FullDataType: dataType,
	}

	switch dataType {
	case "ARRAY":
		// udt_name carries an underscore prefix for array element types.
		ct.Arity = sqlschema.ListArity
		ct.Family = columnFamily(strings.TrimPrefix(udtName, "_"))
		ct.FullDataType = strings.TrimPrefix(udtName, "_") + "[]"
	case "USER-DEFINED":
		ct.FullDataType = udtName
		if enums[udtName] {
			ct.Family = sqlschema.FamilyEnum
			ct.EnumName = udtName
		} else {
			ct.Family = sqlschema.FamilyUnknown
		}
	default:
		ct.Family = columnFamily(udtName)
	}

	return ct
}

// columnDefault interprets a pg_get_expr default. nextval('...') means
// the column is sequence-backed; other function calls are database
// generated expressions.
func columnDefault(raw string) (*sqlschema.DefaultValue, bool) {
	lower := strings.ToLower(raw)

	if strings.HasPrefix(lower, "nextval(") {
		return &sqlschema.DefaultValue{
			Kind:  sqlschema.DefaultSequence,
			Value: sequenceName(raw),
		}, true
	}

	switch {
	case strings.HasPrefix(lower, "now()"), strings.HasPrefix(lower, "current_timestamp"):
		return &sqlschema.DefaultValue{Kind: sqlschema.DefaultNow}, false
	case strings.Contains(lower, "("):
		return &sqlschema.DefaultValue{Kind: sqlschema.DefaultDBGenerated, Value: raw}, false
	}

	// Literals come back with a cast suffix, e.g. 'Member'::"Role".
	value := raw
	if idx := strings.Index(value, "::"); idx != -1 {
		value = value[:idx]
	}
	value = strings.Trim(value, "'")
	return &sqlschema.DefaultValue{Kind: sqlschema.DefaultLiteral, Value: value}, false
}

// sequenceName pulls the sequence out of nextval('"User_id_seq"'::regclass).
func sequenceName(raw string) string {
	start := strings.Index(raw, "'")
	end := strings.LastIndex(raw, "'")
	if start == -1 || end <= start {
		return ""
	}
	name := raw[start+1 : end]
	name = strings.TrimSuffix(name, "::regclass")
	return strings.Trim(name, `"`)
}

func columnFamily(udtName string) sqlschema.ColumnFamily {
	switch strings.ToLower(udtName) {
	case "int2", "int4", "smallint", "integer":
		return sqlschema.FamilyInt
	case "int8", "bigint":
		return sqlschema.FamilyBigInt
	case "float4", "float8", "real", "double precision":
		return sqlschema.FamilyFloat
	case "numeric", "decimal":
		return sqlschema.FamilyDecimal
	case "bool", "boolean":
		return sqlschema.FamilyBoolean
	case "text", "varchar", "bpchar", "char", "name":
		return sqlschema.FamilyString
	case "timestamp", "timestamptz", "date", "time", "timetz":
		return sqlschema.FamilyDateTime
	case "bytea":
		return sqlschema.FamilyBinary
	case "json", "jsonb":
		return sqlschema.FamilyJSON
	case "uuid":
		return sqlschema.FamilyUUID
	default:
		return sqlschema.FamilyUnknown
	}
}
