// Package mysql ingests a MySQL DDL dump into the sqlschema
// representation. It understands the CREATE TABLE and CREATE INDEX
// statements found in mysqldump output and schema migration files; all
// other statements are skipped.
package mysql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"morph/internal/sqlschema"
)

// Ingester parses MySQL DDL text into a schema.
type Ingester struct {
	p *parser.Parser
}

// NewIngester creates a new DDL ingester.
func NewIngester() *Ingester {
	return &Ingester{
		p: parser.New(),
	}
}

// Ingest parses the given SQL text and returns the schema it declares.
func (in *Ingester) Ingest(sql string) (*sqlschema.Schema, error) {
	stmtNodes, _, err := in.p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("ingest: parse DDL: %w", err)
	}

	schema := &sqlschema.Schema{}

	for _, stmtNode := range stmtNodes {
		switch stmt := stmtNode.(type) {
		case *ast.CreateTableStmt:
			table, err := in.convertCreateTable(schema, stmt)
			if err != nil {
				return nil, err
			}
			schema.Tables = append(schema.Tables, table)

		case *ast.CreateIndexStmt:
			if err := in.convertCreateIndex(schema, stmt); err != nil {
				return nil, err
			}
		}
	}

	return schema, nil
}

func (in *Ingester) convertCreateIndex(schema *sqlschema.Schema, stmt *ast.CreateIndexStmt) error {
	tableName := stmt.Table.Name.O
	table := schema.FindTable(tableName)
	if table == nil {
		return fmt.Errorf("ingest: CREATE INDEX %q: unknown table %q", stmt.IndexName, tableName)
	}

	columns := make([]string, 0, len(stmt.IndexPartSpecifications))
	for _, spec := range stmt.IndexPartSpecifications {
		if spec.Column != nil {
			columns = append(columns, spec.Column.Name.O)
		}
	}

	index := sqlschema.Index{
		Name:      indexName(stmt.IndexName, tableName, columns),
		Columns:   columns,
		Unique:    stmt.KeyType == ast.IndexKeyTypeUnique,
		Algorithm: sqlschema.AlgoBTree,
	}
	if stmt.IndexOption != nil && strings.EqualFold(stmt.IndexOption.Tp.String(), "HASH") {
		index.Algorithm = sqlschema.AlgoHash
	}
	table.Indexes = append(table.Indexes, index)
	return nil
}

func (in *Ingester) convertCreateTable(schema *sqlschema.Schema, stmt *ast.CreateTableStmt) (sqlschema.Table, error) {
	table := sqlschema.Table{
		Name: stmt.Table.Name.O,
	}

	for _, colDef := range stmt.Cols {
		col, err := in.convertColumn(schema, &table, colDef)
		if err != nil {
			return table, fmt.Errorf("ingest: table %q: %w", table.Name, err)
		}
		table.Columns = append(table.Columns, col)
	}

	for _, constraint := range stmt.Constraints {
		columns := make([]string, 0, len(constraint.Keys))
		for _, key := range constraint.Keys {
			columns = append(columns, key.Column.Name.O)
		}

		switch constraint.Tp {
		case ast.ConstraintPrimaryKey:
			table.PrimaryKey = &sqlschema.PrimaryKey{
				Columns:        columns,
				ConstraintName: "PRIMARY",
			}

		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			table.Indexes = append(table.Indexes, sqlschema.Index{
				Name:      indexName(constraint.Name, table.Name, columns),
				Columns:   columns,
				Unique:    true,
				Algorithm: sqlschema.AlgoBTree,
			})

		case ast.ConstraintIndex, ast.ConstraintKey:
			table.Indexes = append(table.Indexes, sqlschema.Index{
				Name:      indexName(constraint.Name, table.Name, columns),
				Columns:   columns,
				Algorithm: sqlschema.AlgoBTree,
			})

		case ast.ConstraintForeignKey:
			fk := sqlschema.ForeignKey{
				ConstraintName:  constraint.Name,
				Columns:         columns,
				ReferencedTable: constraint.Refer.Table.Name.O,
				OnDelete:        sqlschema.NoAction,
				OnUpdate:        sqlschema.NoAction,
			}
			for _, spec := range constraint.Refer.IndexPartSpecifications {
				if spec.Column != nil {
					fk.ReferencedColumns = append(fk.ReferencedColumns, spec.Column.Name.O)
				}
			}
			if constraint.Refer.OnDelete != nil {
				fk.OnDelete = referentialAction(constraint.Refer.OnDelete.ReferOpt.String())
			}
			if constraint.Refer.OnUpdate != nil {
				fk.OnUpdate = referentialAction(constraint.Refer.OnUpdate.ReferOpt.String())
			}
			table.ForeignKeys = append(table.ForeignKeys, fk)
		}
	}

	return table, nil
}

func (in *Ingester) convertColumn(schema *sqlschema.Schema, table *sqlschema.Table, colDef *ast.ColumnDef) (sqlschema.Column, error) {
	rawType := colDef.Tp.String()

	col := sqlschema.Column{
		Name: colDef.Name.Name.O,
		Type: sqlschema.ColumnType{
			Family:       columnFamily(rawType),
			Arity:        sqlschema.Nullable,
			FullDataType: rawType,
		},
	}

	// MySQL enums are inline; surface each usage site as its own enum,
	// named {table}_{column}, matching how calculated schemas declare
	// them.
	if col.Type.Family == sqlschema.FamilyEnum {
		enum := sqlschema.Enum{
			Name:   table.Name + "_" + col.Name,
			Values: colDef.Tp.GetElems(),
		}
		schema.Enums = append(schema.Enums, enum)
		col.Type.EnumName = enum.Name
	}

	for _, opt := range colDef.Options {
		switch opt.Tp {
		case ast.ColumnOptionNotNull:
			col.Type.Arity = sqlschema.Required
		case ast.ColumnOptionNull:
			col.Type.Arity = sqlschema.Nullable
		case ast.ColumnOptionAutoIncrement:
			col.AutoIncrement = true
		case ast.ColumnOptionPrimaryKey:
			table.PrimaryKey = &sqlschema.PrimaryKey{
				Columns:        []string{col.Name},
				ConstraintName: "PRIMARY",
			}
		case ast.ColumnOptionUniqKey:
			table.Indexes = append(table.Indexes, sqlschema.Index{
				Name:      table.Name + "_" + col.Name + "_key",
				Columns:   []string{col.Name},
				Unique:    true,
				Algorithm: sqlschema.AlgoBTree,
			})
		case ast.ColumnOptionDefaultValue:
			def, err := in.convertDefault(opt.Expr)
			if err != nil {
				return col, fmt.Errorf("column %q: %w", col.Name, err)
			}
			col.Default = def
		case ast.ColumnOptionReference:
			fk := sqlschema.ForeignKey{
				Columns:         []string{col.Name},
				ReferencedTable: opt.Refer.Table.Name.O,
				OnDelete:        sqlschema.NoAction,
				OnUpdate:        sqlschema.NoAction,
			}
			for _, spec := range opt.Refer.IndexPartSpecifications {
				if spec.Column != nil {
					fk.ReferencedColumns = append(fk.ReferencedColumns, spec.Column.Name.O)
				}
			}
			if opt.Refer.OnDelete != nil {
				fk.OnDelete = referentialAction(opt.Refer.OnDelete.ReferOpt.String())
			}
			if opt.Refer.OnUpdate != nil {
				fk.OnUpdate = referentialAction(opt.Refer.OnUpdate.ReferOpt.String())
			}
			table.ForeignKeys = append(table.ForeignKeys, fk)
		}
	}

	return col, nil
}

func (in *Ingester) convertDefault(expr ast.ExprNode) (*sqlschema.DefaultValue, error) {
	s := in.exprToString(expr)
	if s == nil {
		return nil, nil
	}

	switch strings.ToUpper(*s) {
	case "NULL":
		return nil, nil
	case "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP()", "NOW()":
		return &sqlschema.DefaultValue{Kind: sqlschema.DefaultNow}, nil
	}

	return &sqlschema.DefaultValue{Kind: sqlschema.DefaultLiteral, Value: *s}, nil
}

func (in *Ingester) exprToString(expr ast.ExprNode) *string {
	if expr == nil {
		return nil
	}
	var sb strings.Builder
	restoreCtx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := expr.Restore(restoreCtx); err != nil {
		return nil
	}
	s := sb.String()

	if strings.Contains(s, "'") {
		start := strings.Index(s, "'")
		end := strings.LastIndex(s, "'")
		if start != -1 && end != -1 && start < end {
			s = s[start+1 : end]
		}
	}

	return &s
}

func indexName(declared, table string, columns []string) string {
	if declared != "" {
		return declared
	}
	return table + "_" + strings.Join(columns, "_") + "_idx"
}

// referentialAction maps the parser's referential option text. The
// parser renders multi-word options with spaces.
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

// columnFamily buckets a raw MySQL type into a portable column family.
func columnFamily(rawType string) sqlschema.ColumnFamily {
	rawType = strings.ToLower(strings.TrimSpace(rawType))

	switch {
	case rawType == "tinyint(1)", strings.Contains(rawType, "bool"):
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
