package differ

import "morph/internal/sqlschema"

// OpKind tags one migration step.
type OpKind string

const (
	OpCreateEnum OpKind = "create_enum"
	OpAlterEnum  OpKind = "alter_enum"
	OpDropEnum   OpKind = "drop_enum"

	OpCreateTable OpKind = "create_table"
	OpDropTable   OpKind = "drop_table"
	OpAlterTable  OpKind = "alter_table"
)

// StepKind tags one alteration inside an AlterTable operation.
type StepKind string

const (
	StepAddColumn   StepKind = "add_column"
	StepDropColumn  StepKind = "drop_column"
	StepAlterColumn StepKind = "alter_column"

	StepCreateIndex StepKind = "create_index"
	StepDropIndex   StepKind = "drop_index"

	StepAddForeignKey  StepKind = "add_foreign_key"
	StepDropForeignKey StepKind = "drop_foreign_key"

	StepSetPrimaryKey  StepKind = "set_primary_key"
	StepDropPrimaryKey StepKind = "drop_primary_key"
)

// Operation is one typed DDL operation. Rendering operations as SQL
// text is deliberately out of scope; consumers switch on Kind and read
// the payload field matching it.
type Operation struct {
	Kind OpKind

	Enum     *sqlschema.Enum
	EnumDiff *EnumDiff

	Table     *sqlschema.Table
	TableDiff *TableDiff
}

// Step is one alteration of an AlterTable operation.
type Step struct {
	Kind StepKind

	Column     *sqlschema.Column
	ColumnDiff *ColumnDiff
	Index      *sqlschema.Index
	ForeignKey *sqlschema.ForeignKey
	PrimaryKey *sqlschema.PrimaryKey
}

// Operations flattens the diff into an ordered operation list: enums
// first so new tables can reference them, then table creations, then
// alterations, then drops.
func (d *SchemaDiff) Operations() []Operation {
	var ops []Operation

	for _, e := range d.AddedEnums {
		ops = append(ops, Operation{Kind: OpCreateEnum, Enum: e})
	}
	for _, ed := range d.ModifiedEnums {
		ops = append(ops, Operation{Kind: OpAlterEnum, EnumDiff: ed})
	}
	for _, t := range d.AddedTables {
		ops = append(ops, Operation{Kind: OpCreateTable, Table: t})
	}
	for _, td := range d.ModifiedTables {
		ops = append(ops, Operation{Kind: OpAlterTable, TableDiff: td})
	}
	for _, t := range d.RemovedTables {
		ops = append(ops, Operation{Kind: OpDropTable, Table: t})
	}
	for _, e := range d.RemovedEnums {
		ops = append(ops, Operation{Kind: OpDropEnum, Enum: e})
	}

	return ops
}

// Steps flattens one table's changes: drops first to free names, then
// additions, then in-place alterations.
func (td *TableDiff) Steps() []Step {
	var steps []Step

	for _, fk := range td.RemovedForeignKeys {
		steps = append(steps, Step{Kind: StepDropForeignKey, ForeignKey: fk})
	}
	for _, idx := range td.RemovedIndexes {
		steps = append(steps, Step{Kind: StepDropIndex, Index: idx})
	}
	if td.PrimaryKeyChange != nil && td.PrimaryKeyChange.Current != nil {
		steps = append(steps, Step{Kind: StepDropPrimaryKey, PrimaryKey: td.PrimaryKeyChange.Current})
	}
	for _, c := range td.RemovedColumns {
		steps = append(steps, Step{Kind: StepDropColumn, Column: c})
	}

	for _, c := range td.AddedColumns {
		steps = append(steps, Step{Kind: StepAddColumn, Column: c})
	}
	for _, cd := range td.ModifiedColumns {
		steps = append(steps, Step{Kind: StepAlterColumn, ColumnDiff: cd})
	}
	if td.PrimaryKeyChange != nil && td.PrimaryKeyChange.Desired != nil {
		steps = append(steps, Step{Kind: StepSetPrimaryKey, PrimaryKey: td.PrimaryKeyChange.Desired})
	}
	for _, idx := range td.AddedIndexes {
		steps = append(steps, Step{Kind: StepCreateIndex, Index: idx})
	}
	for _, fk := range td.AddedForeignKeys {
		steps = append(steps, Step{Kind: StepAddForeignKey, ForeignKey: fk})
	}

	return steps
}
