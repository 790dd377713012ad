// Package datamodel contains the validated declaration table: the flat,
// fully resolved collection of models, fields, enums, and index blocks
// that the rest of the morph pipeline operates on. Name resolution and
// semantic validation happen upstream; consumers of this package may
// assume every reference (target models, linking fields, enum names)
// resolves.
package datamodel

import "strings"

// FieldArity is the cardinality of a single field.
type FieldArity string

const (
	Required FieldArity = "required"
	Optional FieldArity = "optional"
	List     FieldArity = "list"
)

// IsList reports whether the arity is List.
func (a FieldArity) IsList() bool { return a == List }

// IsOptional reports whether the arity is Optional.
func (a FieldArity) IsOptional() bool { return a == Optional }

// IsRequired reports whether the arity is Required.
func (a FieldArity) IsRequired() bool { return a == Required }

// ScalarType is the portable type of a scalar field.
type ScalarType string

const (
	ScalarInt      ScalarType = "int"
	ScalarBigInt   ScalarType = "bigint"
	ScalarFloat    ScalarType = "float"
	ScalarDecimal  ScalarType = "decimal"
	ScalarBoolean  ScalarType = "boolean"
	ScalarString   ScalarType = "string"
	ScalarDateTime ScalarType = "datetime"
	ScalarJSON     ScalarType = "json"
	ScalarBytes    ScalarType = "bytes"
)

// FieldKind discriminates scalar, enum, and relation fields.
type FieldKind string

const (
	KindScalar   FieldKind = "scalar"
	KindEnum     FieldKind = "enum"
	KindRelation FieldKind = "relation"
)

// ReferentialAction describes what happens to the referencing side when
// the referenced record is deleted or updated.
type ReferentialAction string

const (
	ActionNone       ReferentialAction = ""
	ActionCascade    ReferentialAction = "Cascade"
	ActionRestrict   ReferentialAction = "Restrict"
	ActionNoAction   ReferentialAction = "NoAction"
	ActionSetNull    ReferentialAction = "SetNull"
	ActionSetDefault ReferentialAction = "SetDefault"
)

// DefaultKind tags the different flavours of field defaults.
type DefaultKind string

const (
	// DefaultLiteral is a plain literal value.
	DefaultLiteral DefaultKind = "literal"
	// DefaultNow is the current-timestamp function.
	DefaultNow DefaultKind = "now"
	// DefaultAutoIncrement is a database-assigned incrementing integer.
	DefaultAutoIncrement DefaultKind = "autoincrement"
	// DefaultDBGenerated is an opaque database-generated expression. An
	// empty Value means the expression is unknown and must not be
	// reproduced.
	DefaultDBGenerated DefaultKind = "dbgenerated"
	// DefaultSequence draws values from a named sequence.
	DefaultSequence DefaultKind = "sequence"
)

// DefaultValue is a field default declaration.
type DefaultValue struct {
	Kind DefaultKind
	// Value holds the literal text, sequence name, or generated
	// expression, depending on Kind.
	Value string
}

// ModelID identifies a model by its position in the declaration table.
type ModelID int

// FieldID identifies a field by its position within its model.
type FieldID int

// Datamodel is the declaration table.
type Datamodel struct {
	Models []*Model
	Enums  []*Enum
}

// Model is a single declared model.
type Model struct {
	Name string
	// MappedName is the database name of the model's table; empty means
	// the model name is used verbatim.
	MappedName string
	Fields     []*Field
	// IDFields lists the field names making up the primary key, in
	// declaration order. Empty when the model declares no id.
	IDFields []string
	Indexes  []*IndexDefinition
}

// IndexDefinition is a declared multi-field index block.
type IndexDefinition struct {
	Name   string
	Fields []string
	Unique bool
}

// Field is a single declared field on a model. Scalar and enum fields
// use Scalar/EnumName; relation fields use TargetModel plus the
// relation attributes.
type Field struct {
	Name       string
	MappedName string
	Kind       FieldKind
	Arity      FieldArity

	Scalar   ScalarType
	EnumName string

	Unique  bool
	Default *DefaultValue

	// TargetModel is the referenced model name for relation fields.
	TargetModel string
	// RelationName is the explicit relation name, disambiguating
	// multiple relations between the same pair of models.
	RelationName string
	// RelationFields names the local scalar fields holding the foreign
	// key values.
	RelationFields []string
	// RelationReferences names the referenced fields on the target
	// model.
	RelationReferences []string
	OnDelete           ReferentialAction
	OnUpdate           ReferentialAction
}

// Enum is a declared enum type.
type Enum struct {
	Name       string
	MappedName string
	Values     []EnumValue
}

// EnumValue is a single enum variant, possibly renamed at the database
// level.
type EnumValue struct {
	Name       string
	MappedName string
}

// DatabaseName returns the mapped table name of the model, falling back
// to the declared name.
func (m *Model) DatabaseName() string {
	if m.MappedName != "" {
		return m.MappedName
	}
	return m.Name
}

// DatabaseName returns the mapped column name of the field, falling
// back to the declared name.
func (f *Field) DatabaseName() string {
	if f.MappedName != "" {
		return f.MappedName
	}
	return f.Name
}

// DatabaseName returns the mapped database name of the enum.
func (e *Enum) DatabaseName() string {
	if e.MappedName != "" {
		return e.MappedName
	}
	return e.Name
}

// DatabaseName returns the mapped database name of the variant.
func (v *EnumValue) DatabaseName() string {
	if v.MappedName != "" {
		return v.MappedName
	}
	return v.Name
}

// IsRelation reports whether the field is a relation field.
func (f *Field) IsRelation() bool { return f.Kind == KindRelation }

// IsID reports whether the named field is part of the model's primary
// key.
func (m *Model) IsID(fieldName string) bool {
	for _, n := range m.IDFields {
		if n == fieldName {
			return true
		}
	}
	return false
}

// Model returns the model with the given id. The id must be valid.
func (dm *Datamodel) Model(id ModelID) *Model {
	return dm.Models[id]
}

// FindModel looks up a model by name. The second return value reports
// whether it was found.
func (dm *Datamodel) FindModel(name string) (ModelID, *Model) {
	for i, m := range dm.Models {
		if m.Name == name {
			return ModelID(i), m
		}
	}
	return -1, nil
}

// FindEnum looks up an enum by name.
func (dm *Datamodel) FindEnum(name string) *Enum {
	for _, e := range dm.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Field returns the field with the given id. The id must be valid.
func (m *Model) Field(id FieldID) *Field {
	return m.Fields[id]
}

// FindField looks up a field by declared name.
func (m *Model) FindField(name string) (FieldID, *Field) {
	for i, f := range m.Fields {
		if f.Name == name {
			return FieldID(i), f
		}
	}
	return -1, nil
}

// RelationFields iterates the model's relation fields in declaration
// order, invoking fn with each field id and field.
func (m *Model) RelationFields(fn func(FieldID, *Field)) {
	for i, f := range m.Fields {
		if f.Kind == KindRelation {
			fn(FieldID(i), f)
		}
	}
}

// ScalarFields iterates the model's non-relation fields in declaration
// order.
func (m *Model) ScalarFields(fn func(FieldID, *Field)) {
	for i, f := range m.Fields {
		if f.Kind != KindRelation {
			fn(FieldID(i), f)
		}
	}
}

// FieldsAreUnique reports whether the given set of field names is
// covered by a unique criterion on the model: the primary key, a single
// field marked unique, or a declared unique index over exactly these
// fields.
func (m *Model) FieldsAreUnique(names []string) bool {
	if len(names) == 0 {
		return false
	}
	if sameFieldSet(names, m.IDFields) {
		return true
	}
	if len(names) == 1 {
		if _, f := m.FindField(names[0]); f != nil && f.Unique {
			return true
		}
	}
	for _, idx := range m.Indexes {
		if idx.Unique && sameFieldSet(names, idx.Fields) {
			return true
		}
	}
	return false
}

func sameFieldSet(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for _, n := range a {
		found := false
		for _, o := range b {
			if n == o {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// String renders a compact human-readable summary of the model.
func (m *Model) String() string {
	var sb strings.Builder
	sb.WriteString("model ")
	sb.WriteString(m.Name)
	sb.WriteString(" (")
	for i, f := range m.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
	}
	sb.WriteString(")")
	return sb.String()
}
