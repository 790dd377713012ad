// Package toml provides a parser for the morph TOML data model format.
// It reads a database-agnostic model definition from a .toml file and
// converts it into the validated datamodel.Datamodel declaration table
// that the rest of the morph toolchain operates on.
package toml

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"morph/internal/datamodel"
)

// modelFile is the top-level TOML document: [[models]] and [[enums]]
// are top-level keys.
type modelFile struct {
	Models []tomlModel `toml:"models"`
	Enums  []tomlEnum  `toml:"enums"`
}

// tomlModel maps one [[models]] block.
type tomlModel struct {
	Name    string      `toml:"name"`
	Map     string      `toml:"map"`
	ID      []string    `toml:"id"`
	Fields  []tomlField `toml:"fields"`
	Indexes []tomlIndex `toml:"indexes"`
}

// tomlField maps one [[models.fields]] block. Scalar and enum fields
// use type/enum; relation fields use target plus the relation keys.
type tomlField struct {
	Name   string `toml:"name"`
	Map    string `toml:"map"`
	Type   string `toml:"type"`
	Arity  string `toml:"arity"`
	Unique bool   `toml:"unique"`

	Default *tomlDefault `toml:"default"`

	Enum string `toml:"enum"`

	Target     string   `toml:"target"`
	Relation   string   `toml:"relation"`
	Fields     []string `toml:"fields"`
	References []string `toml:"references"`
	OnDelete   string   `toml:"on_delete"`
	OnUpdate   string   `toml:"on_update"`
}

// tomlDefault maps [models.fields.default].
type tomlDefault struct {
	Kind  string `toml:"kind"`
	Value string `toml:"value"`
}

// tomlIndex maps one [[models.indexes]] block.
type tomlIndex struct {
	Name   string   `toml:"name"`
	Fields []string `toml:"fields"`
	Unique bool     `toml:"unique"`
}

// tomlEnum maps one [[enums]] block.
type tomlEnum struct {
	Name   string          `toml:"name"`
	Map    string          `toml:"map"`
	Values []tomlEnumValue `toml:"values"`
}

// tomlEnumValue maps one [[enums.values]] block.
type tomlEnumValue struct {
	Name string `toml:"name"`
	Map  string `toml:"map"`
}

// Parser reads morph TOML data model files.
type Parser struct{}

// NewParser creates a new TOML data model parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at the given path and parses it as a TOML
// data model.
func (p *Parser) ParseFile(path string) (*datamodel.Datamodel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads TOML content from reader and returns the corresponding
// declaration table.
func (p *Parser) Parse(r io.Reader) (*datamodel.Datamodel, error) {
	var mf modelFile
	if _, err := toml.NewDecoder(r).Decode(&mf); err != nil {
		return nil, fmt.Errorf("toml: decode error: %w", err)
	}

	return newConverter(&mf).convert()
}

type converter struct {
	mf         *modelFile
	seenModels map[string]bool
	seenEnums  map[string]bool
}

func newConverter(mf *modelFile) *converter {
	return &converter{
		mf:         mf,
		seenModels: make(map[string]bool, len(mf.Models)),
		seenEnums:  make(map[string]bool, len(mf.Enums)),
	}
}

func (c *converter) convert() (*datamodel.Datamodel, error) {
	dm := &datamodel.Datamodel{
		Models: make([]*datamodel.Model, 0, len(c.mf.Models)),
		Enums:  make([]*datamodel.Enum, 0, len(c.mf.Enums)),
	}

	for i := range c.mf.Enums {
		e, err := c.convertEnum(&c.mf.Enums[i])
		if err != nil {
			return nil, fmt.Errorf("toml: enum %q: %w", c.mf.Enums[i].Name, err)
		}
		dm.Enums = append(dm.Enums, e)
	}

	for i := range c.mf.Models {
		m, err := c.convertModel(&c.mf.Models[i])
		if err != nil {
			return nil, fmt.Errorf("toml: model %q: %w", c.mf.Models[i].Name, err)
		}
		dm.Models = append(dm.Models, m)
	}

	if err := c.resolveReferences(dm); err != nil {
		return nil, err
	}

	return dm, nil
}

func (c *converter) convertEnum(te *tomlEnum) (*datamodel.Enum, error) {
	if te.Name == "" {
		return nil, fmt.Errorf("enum name is required")
	}
	if c.seenEnums[te.Name] {
		return nil, fmt.Errorf("duplicate enum name")
	}
	c.seenEnums[te.Name] = true

	if len(te.Values) == 0 {
		return nil, fmt.Errorf("enum has no values")
	}

	e := &datamodel.Enum{
		Name:       te.Name,
		MappedName: te.Map,
		Values:     make([]datamodel.EnumValue, 0, len(te.Values)),
	}

	seen := make(map[string]bool, len(te.Values))
	for _, v := range te.Values {
		if v.Name == "" {
			return nil, fmt.Errorf("enum value name is required")
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("duplicate enum value %q", v.Name)
		}
		seen[v.Name] = true
		e.Values = append(e.Values, datamodel.EnumValue{Name: v.Name, MappedName: v.Map})
	}

	return e, nil
}

func (c *converter) convertModel(tm *tomlModel) (*datamodel.Model, error) {
	if tm.Name == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if c.seenModels[tm.Name] {
		return nil, fmt.Errorf("duplicate model name")
	}
	c.seenModels[tm.Name] = true

	m := &datamodel.Model{
		Name:       tm.Name,
		MappedName: tm.Map,
		IDFields:   tm.ID,
		Fields:     make([]*datamodel.Field, 0, len(tm.Fields)),
	}

	seen := make(map[string]bool, len(tm.Fields))
	for i := range tm.Fields {
		tf := &tm.Fields[i]
		if tf.Name == "" {
			return nil, fmt.Errorf("field name is required")
		}
		if seen[tf.Name] {
			return nil, fmt.Errorf("duplicate field %q", tf.Name)
		}
		seen[tf.Name] = true

		f, err := c.convertField(tf)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", tf.Name, err)
		}
		m.Fields = append(m.Fields, f)
	}

	for _, name := range tm.ID {
		if !seen[name] {
			return nil, fmt.Errorf("id references unknown field %q", name)
		}
	}

	for i := range tm.Indexes {
		ti := &tm.Indexes[i]
		if len(ti.Fields) == 0 {
			return nil, fmt.Errorf("index declares no fields")
		}
		for _, name := range ti.Fields {
			if !seen[name] {
				return nil, fmt.Errorf("index references unknown field %q", name)
			}
		}
		m.Indexes = append(m.Indexes, &datamodel.IndexDefinition{
			Name:   ti.Name,
			Fields: ti.Fields,
			Unique: ti.Unique,
		})
	}

	return m, nil
}

func (c *converter) convertField(tf *tomlField) (*datamodel.Field, error) {
	arity, err := parseArity(tf.Arity)
	if err != nil {
		return nil, err
	}

	f := &datamodel.Field{
		Name:       tf.Name,
		MappedName: tf.Map,
		Arity:      arity,
		Unique:     tf.Unique,
	}

	switch {
	case tf.Target != "":
		if tf.Type != "" || tf.Enum != "" {
			return nil, fmt.Errorf("relation field must not declare a type")
		}
		f.Kind = datamodel.KindRelation
		f.TargetModel = tf.Target
		f.RelationName = tf.Relation
		f.RelationFields = tf.Fields
		f.RelationReferences = tf.References
		if f.OnDelete, err = parseAction(tf.OnDelete); err != nil {
			return nil, err
		}
		if f.OnUpdate, err = parseAction(tf.OnUpdate); err != nil {
			return nil, err
		}

	case tf.Enum != "":
		if tf.Type != "" {
			return nil, fmt.Errorf("enum field must not declare a scalar type")
		}
		f.Kind = datamodel.KindEnum
		f.EnumName = tf.Enum

	default:
		scalar, err := parseScalarType(tf.Type)
		if err != nil {
			return nil, err
		}
		f.Kind = datamodel.KindScalar
		f.Scalar = scalar
	}

	if tf.Default != nil {
		def, err := parseDefault(tf.Default)
		if err != nil {
			return nil, err
		}
		f.Default = def
	}

	return f, nil
}

// resolveReferences checks cross-model references after all models are
// known: relation targets, linking fields, referenced fields, and enum
// names.
func (c *converter) resolveReferences(dm *datamodel.Datamodel) error {
	for _, m := range dm.Models {
		for _, f := range m.Fields {
			switch f.Kind {
			case datamodel.KindEnum:
				if dm.FindEnum(f.EnumName) == nil {
					return fmt.Errorf("toml: model %q: field %q uses unknown enum %q", m.Name, f.Name, f.EnumName)
				}

			case datamodel.KindRelation:
				_, target := dm.FindModel(f.TargetModel)
				if target == nil {
					return fmt.Errorf("toml: model %q: field %q targets unknown model %q", m.Name, f.Name, f.TargetModel)
				}
				for _, name := range f.RelationFields {
					if _, lf := m.FindField(name); lf == nil {
						return fmt.Errorf("toml: model %q: field %q links unknown field %q", m.Name, f.Name, name)
					}
				}
				for _, name := range f.RelationReferences {
					if _, rf := target.FindField(name); rf == nil {
						return fmt.Errorf("toml: model %q: field %q references unknown field %q on %q", m.Name, f.Name, name, target.Name)
					}
				}
				if len(f.RelationFields) != len(f.RelationReferences) {
					return fmt.Errorf("toml: model %q: field %q declares %d linking fields but %d references",
						m.Name, f.Name, len(f.RelationFields), len(f.RelationReferences))
				}
			}
		}
	}
	return nil
}

func parseArity(raw string) (datamodel.FieldArity, error) {
	switch raw {
	case "", "required":
		return datamodel.Required, nil
	case "optional":
		return datamodel.Optional, nil
	case "list":
		return datamodel.List, nil
	default:
		return "", fmt.Errorf("unsupported arity %q; supported: required, optional, list", raw)
	}
}

func parseScalarType(raw string) (datamodel.ScalarType, error) {
	switch datamodel.ScalarType(strings.ToLower(raw)) {
	case datamodel.ScalarInt:
		return datamodel.ScalarInt, nil
	case datamodel.ScalarBigInt:
		return datamodel.ScalarBigInt, nil
	case datamodel.ScalarFloat:
		return datamodel.ScalarFloat, nil
	case datamodel.ScalarDecimal:
		return datamodel.ScalarDecimal, nil
	case datamodel.ScalarBoolean:
		return datamodel.ScalarBoolean, nil
	case datamodel.ScalarString:
		return datamodel.ScalarString, nil
	case datamodel.ScalarDateTime:
		return datamodel.ScalarDateTime, nil
	case datamodel.ScalarJSON:
		return datamodel.ScalarJSON, nil
	case datamodel.ScalarBytes:
		return datamodel.ScalarBytes, nil
	default:
		return "", fmt.Errorf("unsupported type %q", raw)
	}
}

func parseAction(raw string) (datamodel.ReferentialAction, error) {
	switch raw {
	case "":
		return datamodel.ActionNone, nil
	case "cascade":
		return datamodel.ActionCascade, nil
	case "restrict":
		return datamodel.ActionRestrict, nil
	case "no_action":
		return datamodel.ActionNoAction, nil
	case "set_null":
		return datamodel.ActionSetNull, nil
	case "set_default":
		return datamodel.ActionSetDefault, nil
	default:
		return "", fmt.Errorf("unsupported referential action %q", raw)
	}
}

func parseDefault(td *tomlDefault) (*datamodel.DefaultValue, error) {
	switch td.Kind {
	case "literal":
		return &datamodel.DefaultValue{Kind: datamodel.DefaultLiteral, Value: td.Value}, nil
	case "now":
		return &datamodel.DefaultValue{Kind: datamodel.DefaultNow}, nil
	case "autoincrement":
		return &datamodel.DefaultValue{Kind: datamodel.DefaultAutoIncrement}, nil
	case "dbgenerated":
		return &datamodel.DefaultValue{Kind: datamodel.DefaultDBGenerated, Value: td.Value}, nil
	case "sequence":
		if td.Value == "" {
			return nil, fmt.Errorf("sequence default needs a sequence name")
		}
		return &datamodel.DefaultValue{Kind: datamodel.DefaultSequence, Value: td.Value}, nil
	default:
		return nil, fmt.Errorf("unsupported default kind %q", td.Kind)
	}
}
