package sqlschema

// Walkers are transient read handles pairing a schema pointer with a
// positional index. They let calculation and diffing traverse a schema
// without copying tables or columns; the schema stays the single owner
// of the data.

// TableWalker is a read handle on one table of a schema.
type TableWalker struct {
	schema *Schema
	index  int
}

// TableWalkers returns a walker for each table, in schema order.
func (s *Schema) TableWalkers() []TableWalker {
	walkers := make([]TableWalker, len(s.Tables))
	for i := range s.Tables {
		walkers[i] = TableWalker{schema: s, index: i}
	}
	return walkers
}

// Walk returns a walker for the named table.
func (s *Schema) Walk(name string) (TableWalker, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return TableWalker{schema: s, index: i}, true
		}
	}
	return TableWalker{}, false
}

// Table returns the underlying table.
func (w TableWalker) Table() *Table { return &w.schema.Tables[w.index] }

// Name returns the table name.
func (w TableWalker) Name() string { return w.Table().Name }

// ColumnWalkers returns a walker for each column of the table.
func (w TableWalker) ColumnWalkers() []ColumnWalker {
	t := w.Table()
	walkers := make([]ColumnWalker, len(t.Columns))
	for i := range t.Columns {
		walkers[i] = ColumnWalker{schema: w.schema, table: w.index, column: i}
	}
	return walkers
}

// ColumnWalker is a read handle on one column of a table.
type ColumnWalker struct {
	schema *Schema
	table  int
	column int
}

// Column returns the underlying column.
func (w ColumnWalker) Column() *Column { return &w.schema.Tables[w.table].Columns[w.column] }

// Name returns the column name.
func (w ColumnWalker) Name() string { return w.Column().Name }

// TableName returns the name of the owning table.
func (w ColumnWalker) TableName() string { return w.schema.Tables[w.table].Name }

// EnumWalker is a read handle on one enum of a schema.
type EnumWalker struct {
	schema *Schema
	index  int
}

// EnumWalkers returns a walker for each enum.
func (s *Schema) EnumWalkers() []EnumWalker {
	walkers := make([]EnumWalker, len(s.Enums))
	for i := range s.Enums {
		walkers[i] = EnumWalker{schema: s, index: i}
	}
	return walkers
}

// Enum returns the underlying enum.
func (w EnumWalker) Enum() *Enum { return &w.schema.Enums[w.index] }

// Name returns the enum name.
func (w EnumWalker) Name() string { return w.Enum().Name }
