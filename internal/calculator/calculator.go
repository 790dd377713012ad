// Package calculator projects a validated data model into the SQL
// schema a target database should have: one table per model, inline
// foreign keys for to-one relations, join tables for implicit
// many-to-many relations, and family-specific enum and type
// projection.
//
// Calculate is a pure function of its inputs. It trusts the upstream
// validation contract: a field name referenced by an index or relation
// that cannot be resolved is an internal invariant violation and aborts
// the whole calculation, never a partially emitted schema.
package calculator

import (
	"fmt"
	"strings"

	"morph/internal/datamodel"
	"morph/internal/flavour"
	"morph/internal/relation"
	"morph/internal/sqlschema"
)

// Calculate projects the data model onto the target described by fl,
// resolving relation shapes through the store.
func Calculate(dm *datamodel.Datamodel, store *relation.Store, fl flavour.Flavour) (*sqlschema.Schema, error) {
	c := &calculator{dm: dm, store: store, fl: fl}
	return c.calculate()
}

type calculator struct {
	dm    *datamodel.Datamodel
	store *relation.Store
	fl    flavour.Flavour

	sequences []sqlschema.Sequence
}

func (c *calculator) calculate() (*sqlschema.Schema, error) {
	schema := &sqlschema.Schema{
		Enums: c.calculateEnums(),
	}

	tables := make([]sqlschema.Table, len(c.dm.Models))
	for i, m := range c.dm.Models {
		t, err := c.modelTable(m)
		if err != nil {
			return nil, err
		}
		tables[i] = t
	}

	for i := range c.dm.Models {
		if err := c.addInlineRelations(datamodel.ModelID(i), &tables[i]); err != nil {
			return nil, err
		}
	}

	joinTables, err := c.relationTables()
	if err != nil {
		return nil, err
	}

	schema.Tables = append(tables, joinTables...)
	schema.Sequences = c.sequences
	return schema, nil
}

// calculateEnums applies the family's enum strategy. Native families
// get one SQL enum per declared enum; per-usage families get one per
// model field using the enum, named {table}_{column}, so each inline
// enum stays independently alterable. Families with no enum support get
// none; those fields become string columns.
func (c *calculator) calculateEnums() []sqlschema.Enum {
	switch c.fl.EnumStrategy() {
	case flavour.EnumNative:
		enums := make([]sqlschema.Enum, 0, len(c.dm.Enums))
		for _, e := range c.dm.Enums {
			enums = append(enums, sqlschema.Enum{
				Name:   e.DatabaseName(),
				Values: enumVariantNames(e),
			})
		}
		return enums

	case flavour.EnumPerUsage:
		var enums []sqlschema.Enum
		for _, m := range c.dm.Models {
			m.ScalarFields(func(_ datamodel.FieldID, f *datamodel.Field) {
				if f.Kind != datamodel.KindEnum {
					return
				}
				e := c.dm.FindEnum(f.EnumName)
				enums = append(enums, sqlschema.Enum{
					Name:   m.DatabaseName() + "_" + f.DatabaseName(),
					Values: enumVariantNames(e),
				})
			})
		}
		return enums

	default:
		return nil
	}
}

func enumVariantNames(e *datamodel.Enum) []string {
	values := make([]string, len(e.Values))
	for i := range e.Values {
		values[i] = e.Values[i].DatabaseName()
	}
	return values
}

// modelTable emits the table for one model: scalar and enum columns in
// declared field order, the primary key, single-field unique indexes,
// and declared index blocks. Relation columns are appended later.
func (c *calculator) modelTable(m *datamodel.Model) (sqlschema.Table, error) {
	t := sqlschema.Table{Name: m.DatabaseName()}

	var fieldErr error
	m.ScalarFields(func(_ datamodel.FieldID, f *datamodel.Field) {
		if fieldErr != nil {
			return
		}
		if f.Arity.IsList() && !c.fl.SupportsListColumns() {
			// No native list columns on this family; list scalars have
			// no projection at this layer.
			return
		}
		col, err := c.scalarColumn(m, f)
		if err != nil {
			fieldErr = err
			return
		}
		t.Columns = append(t.Columns, col)
	})
	if fieldErr != nil {
		return t, fieldErr
	}

	if len(m.IDFields) > 0 {
		pk := &sqlschema.PrimaryKey{}
		for _, name := range m.IDFields {
			_, f := m.FindField(name)
			if f == nil {
				return t, fmt.Errorf("primary key of model %s references unknown field %q", m.Name, name)
			}
			pk.Columns = append(pk.Columns, f.DatabaseName())
		}
		t.PrimaryKey = pk
	}

	m.ScalarFields(func(_ datamodel.FieldID, f *datamodel.Field) {
		if !f.Unique {
			return
		}
		t.Indexes = append(t.Indexes, sqlschema.Index{
			Name:      uniqueIndexName(t.Name, []string{f.DatabaseName()}),
			Columns:   []string{f.DatabaseName()},
			Unique:    true,
			Algorithm: c.fl.DefaultIndexAlgorithm(),
		})
	})

	for _, def := range m.Indexes {
		columns := make([]string, 0, len(def.Fields))
		for _, name := range def.Fields {
			_, f := m.FindField(name)
			if f == nil {
				return t, fmt.Errorf("index on model %s references unknown field %q", m.Name, name)
			}
			columns = append(columns, f.DatabaseName())
		}
		idx := sqlschema.Index{
			Name:      def.Name,
			Columns:   columns,
			Unique:    def.Unique,
			Algorithm: c.fl.DefaultIndexAlgorithm(),
		}
		if idx.Name == "" {
			if def.Unique {
				idx.Name = uniqueIndexName(t.Name, columns)
			} else {
				idx.Name = t.Name + "_" + strings.Join(columns, "_") + "_idx"
			}
		}
		t.Indexes = append(t.Indexes, idx)
	}

	return t, nil
}

func (c *calculator) scalarColumn(m *datamodel.Model, f *datamodel.Field) (sqlschema.Column, error) {
	col := sqlschema.Column{Name: f.DatabaseName()}

	switch f.Kind {
	case datamodel.KindScalar:
		col.Type = sqlschema.ColumnType{
			Family: scalarFamily(f.Scalar),
			Arity:  columnArity(f.Arity),
		}
	case datamodel.KindEnum:
		col.Type = c.enumColumnType(m, f)
	default:
		return col, fmt.Errorf("field %s.%s is not a scalar", m.Name, f.Name)
	}

	def, autoInc, err := c.columnDefault(m, f)
	if err != nil {
		return col, err
	}
	col.Default = def
	col.AutoIncrement = autoInc
	return col, nil
}

func (c *calculator) enumColumnType(m *datamodel.Model, f *datamodel.Field) sqlschema.ColumnType {
	arity := columnArity(f.Arity)
	switch c.fl.EnumStrategy() {
	case flavour.EnumNative:
		e := c.dm.FindEnum(f.EnumName)
		return sqlschema.ColumnType{Family: sqlschema.FamilyEnum, Arity: arity, EnumName: e.DatabaseName()}
	case flavour.EnumPerUsage:
		return sqlschema.ColumnType{
			Family:   sqlschema.FamilyEnum,
			Arity:    arity,
			EnumName: m.DatabaseName() + "_" + f.DatabaseName(),
		}
	default:
		// The logical enum is lost at this layer; the value range is
		// checked by the application.
		return sqlschema.ColumnType{Family: sqlschema.FamilyString, Arity: arity}
	}
}

// columnDefault translates the declared default. Enum literals resolve
// through the variant's database name so renamed variants keep working;
// now() becomes the cross-database current-timestamp marker; a bare
// dbgenerated() becomes the empty marker meaning "unknown expression,
// do not reproduce".
func (c *calculator) columnDefault(m *datamodel.Model, f *datamodel.Field) (*sqlschema.DefaultValue, bool, error) {
	if f.Default == nil {
		return nil, false, nil
	}

	switch f.Default.Kind {
	case datamodel.DefaultAutoIncrement:
		if c.fl.AutoIncrementKind() == flavour.AutoIncrementSequence {
			seq := m.DatabaseName() + "_" + f.DatabaseName() + "_seq"
			c.sequences = append(c.sequences, sqlschema.Sequence{Name: seq})
			return &sqlschema.DefaultValue{Kind: sqlschema.DefaultSequence, Value: seq}, true, nil
		}
		return nil, true, nil

	case datamodel.DefaultNow:
		return &sqlschema.DefaultValue{Kind: sqlschema.DefaultNow}, false, nil

	case datamodel.DefaultDBGenerated:
		return &sqlschema.DefaultValue{Kind: sqlschema.DefaultDBGenerated, Value: f.Default.Value}, false, nil

	case datamodel.DefaultSequence:
		c.sequences = append(c.sequences, sqlschema.Sequence{Name: f.Default.Value})
		return &sqlschema.DefaultValue{Kind: sqlschema.DefaultSequence, Value: f.Default.Value}, false, nil

	case datamodel.DefaultLiteral:
		value := f.Default.Value
		if f.Kind == datamodel.KindEnum {
			e := c.dm.FindEnum(f.EnumName)
			resolved := false
			for i := range e.Values {
				if e.Values[i].Name == value {
					value = e.Values[i].DatabaseName()
					resolved = true
					break
				}
			}
			if !resolved {
				return nil, false, fmt.Errorf("default of %s.%s is not a variant of enum %s", m.Name, f.Name, e.Name)
			}
		}
		return &sqlschema.DefaultValue{Kind: sqlschema.DefaultLiteral, Value: value}, false, nil

	default:
		return nil, false, fmt.Errorf("unknown default kind %q on %s.%s", f.Default.Kind, m.Name, f.Name)
	}
}

func scalarFamily(s datamodel.ScalarType) sqlschema.ColumnFamily {
	switch s {
	case datamodel.ScalarInt:
		return sqlschema.FamilyInt
	case datamodel.ScalarBigInt:
		return sqlschema.FamilyBigInt
	case datamodel.ScalarFloat:
		return sqlschema.FamilyFloat
	case datamodel.ScalarDecimal:
		return sqlschema.FamilyDecimal
	case datamodel.ScalarBoolean:
		return sqlschema.FamilyBoolean
	case datamodel.ScalarString:
		return sqlschema.FamilyString
	case datamodel.ScalarDateTime:
		return sqlschema.FamilyDateTime
	case datamodel.ScalarJSON:
		return sqlschema.FamilyJSON
	case datamodel.ScalarBytes:
		return sqlschema.FamilyBinary
	default:
		return sqlschema.FamilyUnknown
	}
}

func columnArity(a datamodel.FieldArity) sqlschema.ColumnArity {
	switch a {
	case datamodel.Required:
		return sqlschema.Required
	case datamodel.List:
		return sqlschema.ListArity
	default:
		return sqlschema.Nullable
	}
}

func uniqueIndexName(table string, columns []string) string {
	return table + "_" + strings.Join(columns, "_") + "_key"
}
