// Package sqlschema contains the database-agnostic structural
// representation of a relational schema: tables, columns, indexes,
// primary keys, foreign keys, enums, sequences, and views. It is the
// output of schema calculation and of live introspection, and the input
// to schema diffing.
package sqlschema

// Schema is the result of describing or calculating a database schema.
type Schema struct {
	Tables           []Table           `json:"tables"`
	Enums            []Enum            `json:"enums,omitempty"`
	Sequences        []Sequence        `json:"sequences,omitempty"`
	Views            []View            `json:"views,omitempty"`
	Procedures       []Procedure       `json:"procedures,omitempty"`
	UserDefinedTypes []UserDefinedType `json:"userDefinedTypes,omitempty"`
}

// Table is a single table.
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	Indexes     []Index      `json:"indexes,omitempty"`
	PrimaryKey  *PrimaryKey  `json:"primaryKey,omitempty"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty"`
}

// Column is a single table column.
type Column struct {
	Name          string        `json:"name"`
	Type          ColumnType    `json:"type"`
	Default       *DefaultValue `json:"default,omitempty"`
	AutoIncrement bool          `json:"autoIncrement,omitempty"`
}

// ColumnType pairs a portable type family with the column's arity. For
// enum columns EnumName carries the referenced SQL enum; FullDataType
// preserves the raw database type when the schema comes from
// introspection or DDL ingestion.
type ColumnType struct {
	Family       ColumnFamily `json:"family"`
	Arity        ColumnArity  `json:"arity"`
	EnumName     string       `json:"enumName,omitempty"`
	FullDataType string       `json:"fullDataType,omitempty"`
}

// ColumnFamily is the portable family of a column type.
type ColumnFamily string

const (
	FamilyInt      ColumnFamily = "int"
	FamilyBigInt   ColumnFamily = "bigint"
	FamilyFloat    ColumnFamily = "float"
	FamilyDecimal  ColumnFamily = "decimal"
	FamilyBoolean  ColumnFamily = "boolean"
	FamilyString   ColumnFamily = "string"
	FamilyDateTime ColumnFamily = "datetime"
	FamilyBinary   ColumnFamily = "binary"
	FamilyJSON     ColumnFamily = "json"
	FamilyUUID     ColumnFamily = "uuid"
	FamilyEnum     ColumnFamily = "enum"
	FamilyUnknown  ColumnFamily = "unknown"
)

// ColumnArity is the nullability/cardinality of a column.
type ColumnArity string

const (
	Required ColumnArity = "required"
	Nullable ColumnArity = "nullable"
	// ListArity marks native list columns on databases that support
	// them.
	ListArity ColumnArity = "list"
)

// IsRequired reports whether the arity is Required.
func (a ColumnArity) IsRequired() bool { return a == Required }

// IsNullable reports whether the arity is Nullable.
func (a ColumnArity) IsNullable() bool { return a == Nullable }

// IsList reports whether the arity is ListArity.
func (a ColumnArity) IsList() bool { return a == ListArity }

// DefaultKind tags column default descriptors.
type DefaultKind string

const (
	// DefaultLiteral is a plain value.
	DefaultLiteral DefaultKind = "literal"
	// DefaultNow is the cross-database current-timestamp marker.
	DefaultNow DefaultKind = "now"
	// DefaultSequence references a sequence by name.
	DefaultSequence DefaultKind = "sequence"
	// DefaultDBGenerated is a database-generated expression. An empty
	// Value means the expression is unknown and must not be reproduced.
	DefaultDBGenerated DefaultKind = "dbgenerated"
)

// DefaultValue is a column default descriptor.
type DefaultValue struct {
	Kind  DefaultKind `json:"kind"`
	Value string      `json:"value,omitempty"`
}

// IndexAlgorithm is the access method backing an index.
type IndexAlgorithm string

const (
	AlgoBTree  IndexAlgorithm = "BTREE"
	AlgoHash   IndexAlgorithm = "HASH"
	AlgoGin    IndexAlgorithm = "GIN"
	AlgoGist   IndexAlgorithm = "GIST"
	AlgoSpGist IndexAlgorithm = "SPGIST"
	AlgoBrin   IndexAlgorithm = "BRIN"
)

// Index is a table index.
type Index struct {
	Name      string         `json:"name"`
	Columns   []string       `json:"columns"`
	Unique    bool           `json:"unique,omitempty"`
	Algorithm IndexAlgorithm `json:"algorithm,omitempty"`
}

// PrimaryKey is a table's primary key.
type PrimaryKey struct {
	Columns        []string `json:"columns"`
	ConstraintName string   `json:"constraintName,omitempty"`
}

// ForeignKeyAction describes ON DELETE / ON UPDATE behavior.
type ForeignKeyAction string

const (
	NoAction   ForeignKeyAction = "NoAction"
	Restrict   ForeignKeyAction = "Restrict"
	Cascade    ForeignKeyAction = "Cascade"
	SetNull    ForeignKeyAction = "SetNull"
	SetDefault ForeignKeyAction = "SetDefault"
)

// ForeignKey is a foreign key constraint.
type ForeignKey struct {
	ConstraintName    string           `json:"constraintName,omitempty"`
	Columns           []string         `json:"columns"`
	ReferencedTable   string           `json:"referencedTable"`
	ReferencedColumns []string         `json:"referencedColumns"`
	OnDelete          ForeignKeyAction `json:"onDelete"`
	OnUpdate          ForeignKeyAction `json:"onUpdate"`
}

// Enum is a SQL enum type.
type Enum struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Sequence is a SQL sequence.
type Sequence struct {
	Name string `json:"name"`
}

// View is a SQL view.
type View struct {
	Name       string `json:"name"`
	Definition string `json:"definition,omitempty"`
}

// Procedure is a stored procedure.
type Procedure struct {
	Name       string `json:"name"`
	Definition string `json:"definition,omitempty"`
}

// UserDefinedType is a user-defined database type.
type UserDefinedType struct {
	Name       string `json:"name"`
	Definition string `json:"definition,omitempty"`
}

// IsEmpty reports whether the schema contains nothing at all.
func (s *Schema) IsEmpty() bool {
	return len(s.Tables) == 0 &&
		len(s.Enums) == 0 &&
		len(s.Sequences) == 0 &&
		len(s.Views) == 0 &&
		len(s.Procedures) == 0 &&
		len(s.UserDefinedTypes) == 0
}

// FindTable looks up a table by name. Models are small; a linear scan
// is fine.
func (s *Schema) FindTable(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// HasTable reports whether a table with the given name exists.
func (s *Schema) HasTable(name string) bool { return s.FindTable(name) != nil }

// FindEnum looks up an enum by name.
func (s *Schema) FindEnum(name string) *Enum {
	for i := range s.Enums {
		if s.Enums[i].Name == name {
			return &s.Enums[i]
		}
	}
	return nil
}

// FindSequence looks up a sequence by name.
func (s *Schema) FindSequence(name string) *Sequence {
	for i := range s.Sequences {
		if s.Sequences[i].Name == name {
			return &s.Sequences[i]
		}
	}
	return nil
}

// FindView looks up a view by name.
func (s *Schema) FindView(name string) *View {
	for i := range s.Views {
		if s.Views[i].Name == name {
			return &s.Views[i]
		}
	}
	return nil
}

// FindProcedure looks up a stored procedure by name.
func (s *Schema) FindProcedure(name string) *Procedure {
	for i := range s.Procedures {
		if s.Procedures[i].Name == name {
			return &s.Procedures[i]
		}
	}
	return nil
}

// FindColumn looks up a column by name.
func (t *Table) FindColumn(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool { return t.FindColumn(name) != nil }

// FindIndex looks up an index by name.
func (t *Table) FindIndex(name string) *Index {
	for i := range t.Indexes {
		if t.Indexes[i].Name == name {
			return &t.Indexes[i]
		}
	}
	return nil
}

// ForeignKeyForColumn returns the first foreign key covering the given
// column.
func (t *Table) ForeignKeyForColumn(name string) *ForeignKey {
	for i := range t.ForeignKeys {
		for _, c := range t.ForeignKeys[i].Columns {
			if c == name {
				return &t.ForeignKeys[i]
			}
		}
	}
	return nil
}

// IsColumnUnique reports whether a single-column unique index covers
// the column.
func (t *Table) IsColumnUnique(name string) bool {
	for _, idx := range t.Indexes {
		if idx.Unique && len(idx.Columns) == 1 && idx.Columns[0] == name {
			return true
		}
	}
	return false
}

// IsPartOfPrimaryKey reports whether the column is part of the table's
// primary key.
func (t *Table) IsPartOfPrimaryKey(name string) bool {
	if t.PrimaryKey == nil {
		return false
	}
	for _, c := range t.PrimaryKey.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// IsRequired reports whether the column is non-nullable.
func (c *Column) IsRequired() bool { return c.Type.Arity == Required }

// IsEnum reports whether the column's family is enum.
func (ct ColumnType) IsEnum() bool { return ct.Family == FamilyEnum }
