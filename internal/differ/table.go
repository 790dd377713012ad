package differ

import (
	"fmt"
	"strings"

	"morph/internal/sqlschema"
)

// TableDiff is the set of changes to bring one table from its current
// shape to the desired one.
type TableDiff struct {
	Name string

	AddedColumns    []*sqlschema.Column
	RemovedColumns  []*sqlschema.Column
	ModifiedColumns []*ColumnDiff

	AddedIndexes   []*sqlschema.Index
	RemovedIndexes []*sqlschema.Index

	AddedForeignKeys   []*sqlschema.ForeignKey
	RemovedForeignKeys []*sqlschema.ForeignKey

	PrimaryKeyChange *PrimaryKeyDiff
}

// ColumnDiff is a change to one column in place.
type ColumnDiff struct {
	Name    string
	Current *sqlschema.Column
	Desired *sqlschema.Column
	Changes []string
}

// PrimaryKeyDiff records a dropped, added or redefined primary key.
type PrimaryKeyDiff struct {
	Current *sqlschema.PrimaryKey
	Desired *sqlschema.PrimaryKey
}

func (td *TableDiff) isEmpty() bool {
	return len(td.AddedColumns) == 0 && len(td.RemovedColumns) == 0 && len(td.ModifiedColumns) == 0 &&
		len(td.AddedIndexes) == 0 && len(td.RemovedIndexes) == 0 &&
		len(td.AddedForeignKeys) == 0 && len(td.RemovedForeignKeys) == 0 &&
		td.PrimaryKeyChange == nil
}

func compareTables(current, desired *sqlschema.Table) *TableDiff {
	td := &TableDiff{Name: desired.Name}

	currentColumns := make(map[string]*sqlschema.Column, len(current.Columns))
	for i := range current.Columns {
		currentColumns[current.Columns[i].Name] = &current.Columns[i]
	}

	for i := range desired.Columns {
		dc := &desired.Columns[i]
		cc, ok := currentColumns[dc.Name]
		if !ok {
			td.AddedColumns = append(td.AddedColumns, dc)
			continue
		}
		if cd := compareColumns(cc, dc); cd != nil {
			td.ModifiedColumns = append(td.ModifiedColumns, cd)
		}
	}
	for i := range current.Columns {
		cc := &current.Columns[i]
		if desired.FindColumn(cc.Name) == nil {
			td.RemovedColumns = append(td.RemovedColumns, cc)
		}
	}

	compareIndexes(td, current, desired)
	compareForeignKeys(td, current, desired)

	if !samePrimaryKey(current.PrimaryKey, desired.PrimaryKey) {
		td.PrimaryKeyChange = &PrimaryKeyDiff{Current: current.PrimaryKey, Desired: desired.PrimaryKey}
	}

	if td.isEmpty() {
		return nil
	}
	return td
}

func compareColumns(current, desired *sqlschema.Column) *ColumnDiff {
	cd := &ColumnDiff{Name: desired.Name, Current: current, Desired: desired}

	if current.Type.Family != desired.Type.Family {
		cd.Changes = append(cd.Changes,
			fmt.Sprintf("type %s -> %s", current.Type.Family, desired.Type.Family))
	}
	if current.Type.Arity != desired.Type.Arity {
		cd.Changes = append(cd.Changes,
			fmt.Sprintf("arity %s -> %s", current.Type.Arity, desired.Type.Arity))
	}
	if current.Type.EnumName != desired.Type.EnumName {
		cd.Changes = append(cd.Changes,
			fmt.Sprintf("enum %s -> %s", orNone(current.Type.EnumName), orNone(desired.Type.EnumName)))
	}
	if current.AutoIncrement != desired.AutoIncrement {
		cd.Changes = append(cd.Changes,
			fmt.Sprintf("auto-increment %t -> %t", current.AutoIncrement, desired.AutoIncrement))
	}
	if !sameDefault(current.Default, desired.Default) {
		cd.Changes = append(cd.Changes,
			fmt.Sprintf("default %s -> %s", formatDefault(current.Default), formatDefault(desired.Default)))
	}

	if len(cd.Changes) == 0 {
		return nil
	}
	return cd
}

func compareIndexes(td *TableDiff, current, desired *sqlschema.Table) {
	currentIndexes := make(map[string]*sqlschema.Index, len(current.Indexes))
	for i := range current.Indexes {
		currentIndexes[current.Indexes[i].Name] = &current.Indexes[i]
	}

	for i := range desired.Indexes {
		di := &desired.Indexes[i]
		ci, ok := currentIndexes[di.Name]
		if !ok {
			td.AddedIndexes = append(td.AddedIndexes, di)
			continue
		}
		if !sameIndex(ci, di) {
			// Redefinition is a drop and recreate.
			td.RemovedIndexes = append(td.RemovedIndexes, ci)
			td.AddedIndexes = append(td.AddedIndexes, di)
		}
	}
	for i := range current.Indexes {
		ci := &current.Indexes[i]
		if desired.FindIndex(ci.Name) == nil {
			td.RemovedIndexes = append(td.RemovedIndexes, ci)
		}
	}
}

func compareForeignKeys(td *TableDiff, current, desired *sqlschema.Table) {
	matched := make([]bool, len(current.ForeignKeys))

	for i := range desired.ForeignKeys {
		dfk := &desired.ForeignKeys[i]
		found := false
		for j := range current.ForeignKeys {
			if !matched[j] && sameForeignKey(&current.ForeignKeys[j], dfk) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			td.AddedForeignKeys = append(td.AddedForeignKeys, dfk)
		}
	}
	for j := range current.ForeignKeys {
		if !matched[j] {
			td.RemovedForeignKeys = append(td.RemovedForeignKeys, &current.ForeignKeys[j])
		}
	}
}

// sameForeignKey ignores the constraint name: two keys over the same
// columns pointing at the same target with the same actions are the
// same constraint regardless of how the database named it.
func sameForeignKey(a, b *sqlschema.ForeignKey) bool {
	return sameColumnList(a.Columns, b.Columns) &&
		a.ReferencedTable == b.ReferencedTable &&
		sameColumnList(a.ReferencedColumns, b.ReferencedColumns) &&
		a.OnDelete == b.OnDelete &&
		a.OnUpdate == b.OnUpdate
}

func sameIndex(a, b *sqlschema.Index) bool {
	return a.Unique == b.Unique && a.Algorithm == b.Algorithm && sameColumnList(a.Columns, b.Columns)
}

func samePrimaryKey(a, b *sqlschema.PrimaryKey) bool {
	if a == nil || b == nil {
		return a == b
	}
	return sameColumnList(a.Columns, b.Columns)
}

func sameDefault(a, b *sqlschema.DefaultValue) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind == b.Kind && a.Value == b.Value
}

func sameColumnList(a, b []string) bool {
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

func formatDefault(d *sqlschema.DefaultValue) string {
	if d == nil {
		return "none"
	}
	if d.Value == "" {
		return string(d.Kind)
	}
	return fmt.Sprintf("%s(%s)", d.Kind, d.Value)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func (td *TableDiff) write(sb *strings.Builder) {
	fmt.Fprintf(sb, "\nModified table %s:\n", td.Name)

	for _, c := range td.AddedColumns {
		fmt.Fprintf(sb, "  + column %s %s %s\n", c.Name, c.Type.Family, c.Type.Arity)
	}
	for _, c := range td.RemovedColumns {
		fmt.Fprintf(sb, "  - column %s\n", c.Name)
	}
	for _, cd := range td.ModifiedColumns {
		fmt.Fprintf(sb, "  ~ column %s: %s\n", cd.Name, strings.Join(cd.Changes, ", "))
	}
	for _, idx := range td.AddedIndexes {
		kind := "index"
		if idx.Unique {
			kind = "unique index"
		}
		fmt.Fprintf(sb, "  + %s %s %s\n", kind, idx.Name, formatColumns(idx.Columns))
	}
	for _, idx := range td.RemovedIndexes {
		fmt.Fprintf(sb, "  - index %s\n", idx.Name)
	}
	for _, fk := range td.AddedForeignKeys {
		fmt.Fprintf(sb, "  + foreign key %s -> %s %s\n",
			formatColumns(fk.Columns), fk.ReferencedTable, formatColumns(fk.ReferencedColumns))
	}
	for _, fk := range td.RemovedForeignKeys {
		fmt.Fprintf(sb, "  - foreign key %s -> %s %s\n",
			formatColumns(fk.Columns), fk.ReferencedTable, formatColumns(fk.ReferencedColumns))
	}
	if pd := td.PrimaryKeyChange; pd != nil {
		switch {
		case pd.Desired == nil:
			sb.WriteString("  - primary key\n")
		case pd.Current == nil:
			fmt.Fprintf(sb, "  + primary key %s\n", formatColumns(pd.Desired.Columns))
		default:
			fmt.Fprintf(sb, "  ~ primary key %s -> %s\n",
				formatColumns(pd.Current.Columns), formatColumns(pd.Desired.Columns))
		}
	}
}
