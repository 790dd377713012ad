package calculator

import (
	"fmt"

	"morph/internal/datamodel"
	"morph/internal/relation"
	"morph/internal/sqlschema"
)

// addInlineRelations appends foreign-key columns and constraints to the
// table of every relation where the model carries the link (plays the
// model A role). Implicit many-to-many relations manifest as separate
// tables instead, and back-only one-to-many relations declare no
// linking field, so neither contributes columns here.
func (c *calculator) addInlineRelations(modelID datamodel.ModelID, t *sqlschema.Table) error {
	m := c.dm.Model(modelID)

	for _, id := range c.store.FromModel(modelID) {
		rel := c.store.Get(id)
		if rel.IsManyToMany() || rel.FieldA == relation.NoField {
			continue
		}

		f := m.Field(rel.FieldA)
		target := c.dm.Model(rel.ModelB)

		referenced, err := c.referencedFields(f, target)
		if err != nil {
			return err
		}

		columns, names, err := c.linkingColumns(m, f, referenced)
		if err != nil {
			return err
		}

		for _, col := range columns {
			if t.HasColumn(col.Name) {
				// The linking field was declared as a regular scalar;
				// its column already exists.
				continue
			}
			t.Columns = append(t.Columns, col)
		}

		referencedColumns := make([]string, len(referenced))
		for i, rf := range referenced {
			referencedColumns[i] = rf.DatabaseName()
		}

		t.ForeignKeys = append(t.ForeignKeys, sqlschema.ForeignKey{
			Columns:           names,
			ReferencedTable:   target.DatabaseName(),
			ReferencedColumns: referencedColumns,
			OnDelete:          onDeleteAction(f),
			OnUpdate:          onUpdateAction(f),
		})

		if rel.IsOneToOne() {
			// The database enforces to-one cardinality through a
			// unique index over the foreign-key columns.
			c.ensureUniqueIndex(t, names)
		}
	}

	return nil
}

// referencedFields resolves the fields the foreign key points at on the
// target model: the explicitly referenced fields when declared,
// otherwise the target's first unique criterion.
func (c *calculator) referencedFields(f *datamodel.Field, target *datamodel.Model) ([]*datamodel.Field, error) {
	if len(f.RelationReferences) == 0 {
		return c.firstUniqueCriterion(target)
	}

	fields := make([]*datamodel.Field, 0, len(f.RelationReferences))
	for _, name := range f.RelationReferences {
		_, rf := target.FindField(name)
		if rf == nil {
			return nil, fmt.Errorf("relation %s references unknown field %q on model %s", f.Name, name, target.Name)
		}
		fields = append(fields, rf)
	}
	return fields, nil
}

// linkingColumns builds the foreign-key columns for a to-one relation
// field. Declared linking fields keep their own names and types;
// without declared linking fields, columns are synthesized from the
// relation field name and the referenced columns. Columns of an
// optional relation are nullable even when the key spans several
// columns.
func (c *calculator) linkingColumns(m *datamodel.Model, f *datamodel.Field, referenced []*datamodel.Field) ([]sqlschema.Column, []string, error) {
	arity := sqlschema.Required
	if f.Arity.IsOptional() {
		arity = sqlschema.Nullable
	}

	if len(f.RelationFields) > 0 {
		if len(f.RelationFields) != len(referenced) {
			return nil, nil, fmt.Errorf(
				"relation %s.%s declares %d linking fields but references %d fields",
				m.Name, f.Name, len(f.RelationFields), len(referenced))
		}
		columns := make([]sqlschema.Column, 0, len(f.RelationFields))
		names := make([]string, 0, len(f.RelationFields))
		for i, name := range f.RelationFields {
			_, lf := m.FindField(name)
			if lf == nil {
				return nil, nil, fmt.Errorf("relation %s.%s links unknown field %q", m.Name, f.Name, name)
			}
			columns = append(columns, sqlschema.Column{
				Name: lf.DatabaseName(),
				Type: sqlschema.ColumnType{
					Family: scalarFamily(referenced[i].Scalar),
					Arity:  arity,
				},
			})
			names = append(names, lf.DatabaseName())
		}
		return columns, names, nil
	}

	columns := make([]sqlschema.Column, 0, len(referenced))
	names := make([]string, 0, len(referenced))
	for _, rf := range referenced {
		name := f.DatabaseName()
		if len(referenced) > 1 {
			name = f.DatabaseName() + "_" + rf.DatabaseName()
		}
		columns = append(columns, sqlschema.Column{
			Name: name,
			Type: sqlschema.ColumnType{
				Family: scalarFamily(rf.Scalar),
				Arity:  arity,
			},
		})
		names = append(names, name)
	}
	return columns, names, nil
}

// relationTables synthesizes one join table per implicit many-to-many
// relation: columns A and B typed after each endpoint's first unique
// criterion, cascading foreign keys to both endpoints, a composite
// unique index on (A, B), a plain index on B for reverse traversal, and
// no primary key.
func (c *calculator) relationTables() ([]sqlschema.Table, error) {
	var tables []sqlschema.Table

	var err error
	c.store.All(func(_ relation.ID, rel *relation.Relation) {
		if err != nil || !rel.IsManyToMany() {
			return
		}

		modelA := c.dm.Model(rel.ModelA)
		modelB := c.dm.Model(rel.ModelB)

		colA, fkA, buildErr := c.joinColumn("A", modelA)
		if buildErr != nil {
			err = buildErr
			return
		}
		colB, fkB, buildErr := c.joinColumn("B", modelB)
		if buildErr != nil {
			err = buildErr
			return
		}

		name := rel.ManifestationTableName(c.dm)
		tables = append(tables, sqlschema.Table{
			Name:    name,
			Columns: []sqlschema.Column{colA, colB},
			Indexes: []sqlschema.Index{
				{
					Name:      name + "_AB_unique",
					Columns:   []string{"A", "B"},
					Unique:    true,
					Algorithm: c.fl.DefaultIndexAlgorithm(),
				},
				{
					Name:      name + "_B_index",
					Columns:   []string{"B"},
					Algorithm: c.fl.DefaultIndexAlgorithm(),
				},
			},
			ForeignKeys: []sqlschema.ForeignKey{fkA, fkB},
		})
	})
	if err != nil {
		return nil, err
	}

	return tables, nil
}

func (c *calculator) joinColumn(name string, endpoint *datamodel.Model) (sqlschema.Column, sqlschema.ForeignKey, error) {
	criterion, err := c.firstUniqueCriterion(endpoint)
	if err != nil {
		return sqlschema.Column{}, sqlschema.ForeignKey{}, err
	}
	if len(criterion) != 1 {
		return sqlschema.Column{}, sqlschema.ForeignKey{}, fmt.Errorf(
			"many-to-many relation endpoint %s needs a single-column unique criterion, found %d columns",
			endpoint.Name, len(criterion))
	}

	col := sqlschema.Column{
		Name: name,
		Type: sqlschema.ColumnType{
			Family: scalarFamily(criterion[0].Scalar),
			Arity:  sqlschema.Required,
		},
	}
	fk := sqlschema.ForeignKey{
		Columns:           []string{name},
		ReferencedTable:   endpoint.DatabaseName(),
		ReferencedColumns: []string{criterion[0].DatabaseName()},
		OnDelete:          sqlschema.Cascade,
		OnUpdate:          sqlschema.Cascade,
	}
	return col, fk, nil
}

// firstUniqueCriterion resolves the field set foreign keys point at:
// the primary key when present, else the first required scalar carrying
// a single-column unique index, else the fields of the first declared
// unique index block. The precedence is load-bearing; reordering it
// changes which columns downstream foreign keys reference.
func (c *calculator) firstUniqueCriterion(m *datamodel.Model) ([]*datamodel.Field, error) {
	if len(m.IDFields) > 0 {
		fields := make([]*datamodel.Field, 0, len(m.IDFields))
		for _, name := range m.IDFields {
			_, f := m.FindField(name)
			if f == nil {
				return nil, fmt.Errorf("primary key of model %s references unknown field %q", m.Name, name)
			}
			fields = append(fields, f)
		}
		return fields, nil
	}

	var unique *datamodel.Field
	m.ScalarFields(func(_ datamodel.FieldID, f *datamodel.Field) {
		if unique == nil && f.Unique && f.Arity.IsRequired() {
			unique = f
		}
	})
	if unique != nil {
		return []*datamodel.Field{unique}, nil
	}

	for _, def := range m.Indexes {
		if !def.Unique {
			continue
		}
		fields := make([]*datamodel.Field, 0, len(def.Fields))
		for _, name := range def.Fields {
			_, f := m.FindField(name)
			if f == nil {
				return nil, fmt.Errorf("unique index on model %s references unknown field %q", m.Name, name)
			}
			fields = append(fields, f)
		}
		return fields, nil
	}

	return nil, fmt.Errorf("no unique criterion on model %s: a relation cannot reference it", m.Name)
}

// ensureUniqueIndex adds a unique index over the given columns unless
// an equivalent one already exists.
func (c *calculator) ensureUniqueIndex(t *sqlschema.Table, columns []string) {
	for _, idx := range t.Indexes {
		if idx.Unique && sameColumns(idx.Columns, columns) {
			return
		}
	}
	t.Indexes = append(t.Indexes, sqlschema.Index{
		Name:      uniqueIndexName(t.Name, columns),
		Columns:   columns,
		Unique:    true,
		Algorithm: c.fl.DefaultIndexAlgorithm(),
	})
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func onDeleteAction(f *datamodel.Field) sqlschema.ForeignKeyAction {
	if f.OnDelete != datamodel.ActionNone {
		return mapAction(f.OnDelete)
	}
	if f.Arity.IsRequired() {
		return sqlschema.Cascade
	}
	return sqlschema.SetNull
}

func onUpdateAction(f *datamodel.Field) sqlschema.ForeignKeyAction {
	if f.OnUpdate != datamodel.ActionNone {
		return mapAction(f.OnUpdate)
	}
	return sqlschema.Cascade
}

func mapAction(a datamodel.ReferentialAction) sqlschema.ForeignKeyAction {
	switch a {
	case datamodel.ActionCascade:
		return sqlschema.Cascade
	case datamodel.ActionRestrict:
		return sqlschema.Restrict
	case datamodel.ActionNoAction:
		return sqlschema.NoAction
	case datamodel.ActionSetNull:
		return sqlschema.SetNull
	case datamodel.ActionSetDefault:
		return sqlschema.SetDefault
	default:
		return sqlschema.NoAction
	}
}
