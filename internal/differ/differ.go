// Package differ computes the structural differences between two SQL
// schemas, typically the schema calculated from the data model and the
// schema introspected from a live database. The result is a set of
// typed DDL operations; rendering them as SQL text belongs to a later
// stage.
package differ

import (
	"fmt"
	"sort"
	"strings"

	"morph/internal/sqlschema"
)

// SchemaDiff is the full difference between two schemas.
type SchemaDiff struct {
	AddedTables    []*sqlschema.Table
	RemovedTables  []*sqlschema.Table
	ModifiedTables []*TableDiff

	AddedEnums    []*sqlschema.Enum
	RemovedEnums  []*sqlschema.Enum
	ModifiedEnums []*EnumDiff
}

// EnumDiff is a change to one enum's variant list.
type EnumDiff struct {
	Name          string
	AddedValues   []string
	RemovedValues []string
}

// Diff compares the current schema against the desired one. Everything
// present only in desired is an addition; everything present only in
// current is a removal.
func Diff(current, desired *sqlschema.Schema) *SchemaDiff {
	d := &SchemaDiff{}

	currentTables := tablesByName(current)
	desiredTables := tablesByName(desired)

	for name, dt := range desiredTables {
		ct, ok := currentTables[name]
		if !ok {
			d.AddedTables = append(d.AddedTables, dt)
			continue
		}
		if td := compareTables(ct, dt); td != nil {
			d.ModifiedTables = append(d.ModifiedTables, td)
		}
	}
	for name, ct := range currentTables {
		if _, ok := desiredTables[name]; !ok {
			d.RemovedTables = append(d.RemovedTables, ct)
		}
	}

	currentEnums := enumsByName(current)
	desiredEnums := enumsByName(desired)

	for name, de := range desiredEnums {
		ce, ok := currentEnums[name]
		if !ok {
			d.AddedEnums = append(d.AddedEnums, de)
			continue
		}
		if ed := compareEnums(ce, de); ed != nil {
			d.ModifiedEnums = append(d.ModifiedEnums, ed)
		}
	}
	for name, ce := range currentEnums {
		if _, ok := desiredEnums[name]; !ok {
			d.RemovedEnums = append(d.RemovedEnums, ce)
		}
	}

	sortByName(d.AddedTables, func(t *sqlschema.Table) string { return t.Name })
	sortByName(d.RemovedTables, func(t *sqlschema.Table) string { return t.Name })
	sortByName(d.ModifiedTables, func(td *TableDiff) string { return td.Name })
	sortByName(d.AddedEnums, func(e *sqlschema.Enum) string { return e.Name })
	sortByName(d.RemovedEnums, func(e *sqlschema.Enum) string { return e.Name })
	sortByName(d.ModifiedEnums, func(ed *EnumDiff) string { return ed.Name })

	return d
}

// IsEmpty reports whether the two schemas are structurally identical.
func (d *SchemaDiff) IsEmpty() bool {
	return len(d.AddedTables) == 0 && len(d.RemovedTables) == 0 && len(d.ModifiedTables) == 0 &&
		len(d.AddedEnums) == 0 && len(d.RemovedEnums) == 0 && len(d.ModifiedEnums) == 0
}

func compareEnums(current, desired *sqlschema.Enum) *EnumDiff {
	ed := &EnumDiff{Name: desired.Name}

	currentValues := make(map[string]bool, len(current.Values))
	for _, v := range current.Values {
		currentValues[v] = true
	}
	desiredValues := make(map[string]bool, len(desired.Values))
	for _, v := range desired.Values {
		desiredValues[v] = true
	}

	for _, v := range desired.Values {
		if !currentValues[v] {
			ed.AddedValues = append(ed.AddedValues, v)
		}
	}
	for _, v := range current.Values {
		if !desiredValues[v] {
			ed.RemovedValues = append(ed.RemovedValues, v)
		}
	}

	if len(ed.AddedValues) == 0 && len(ed.RemovedValues) == 0 {
		return nil
	}
	return ed
}

// String renders a human-readable summary of the diff.
func (d *SchemaDiff) String() string {
	if d.IsEmpty() {
		return "No differences detected."
	}

	var sb strings.Builder
	sb.WriteString("Schema differences:\n")

	writeNames(&sb, "Added enums", d.AddedEnums, func(e *sqlschema.Enum) string { return e.Name })
	writeNames(&sb, "Removed enums", d.RemovedEnums, func(e *sqlschema.Enum) string { return e.Name })
	for _, ed := range d.ModifiedEnums {
		fmt.Fprintf(&sb, "\nModified enum %s:\n", ed.Name)
		for _, v := range ed.AddedValues {
			fmt.Fprintf(&sb, "  + value %s\n", v)
		}
		for _, v := range ed.RemovedValues {
			fmt.Fprintf(&sb, "  - value %s\n", v)
		}
	}

	writeNames(&sb, "Added tables", d.AddedTables, func(t *sqlschema.Table) string { return t.Name })
	writeNames(&sb, "Removed tables", d.RemovedTables, func(t *sqlschema.Table) string { return t.Name })

	if len(d.ModifiedTables) > 0 {
		for _, td := range d.ModifiedTables {
			td.write(&sb)
		}
	}

	return sb.String()
}

func writeNames[T any](sb *strings.Builder, header string, items []T, name func(T) string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n" + header + ":\n")
	for _, item := range items {
		fmt.Fprintf(sb, "  - %s\n", name(item))
	}
}

func tablesByName(s *sqlschema.Schema) map[string]*sqlschema.Table {
	m := make(map[string]*sqlschema.Table, len(s.Tables))
	for i := range s.Tables {
		m[s.Tables[i].Name] = &s.Tables[i]
	}
	return m
}

func enumsByName(s *sqlschema.Schema) map[string]*sqlschema.Enum {
	m := make(map[string]*sqlschema.Enum, len(s.Enums))
	for i := range s.Enums {
		m[s.Enums[i].Name] = &s.Enums[i]
	}
	return m
}

func sortByName[T any](items []T, name func(T) string) {
	sort.Slice(items, func(i, j int) bool { return name(items[i]) < name(items[j]) })
}

func formatColumns(columns []string) string {
	return "(" + strings.Join(columns, ", ") + ")"
}
