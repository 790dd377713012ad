package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morph/internal/sqlschema"
)

func baseSchema() *sqlschema.Schema {
	return &sqlschema.Schema{
		Tables: []sqlschema.Table{
			{
				Name: "User",
				Columns: []sqlschema.Column{
					{Name: "id", Type: sqlschema.ColumnType{Family: sqlschema.FamilyInt, Arity: sqlschema.Required}, AutoIncrement: true},
					{Name: "email", Type: sqlschema.ColumnType{Family: sqlschema.FamilyString, Arity: sqlschema.Required}},
				},
				Indexes: []sqlschema.Index{
					{Name: "User_email_key", Columns: []string{"email"}, Unique: true, Algorithm: sqlschema.AlgoBTree},
				},
				PrimaryKey: &sqlschema.PrimaryKey{Columns: []string{"id"}},
			},
		},
		Enums: []sqlschema.Enum{
			{Name: "Role", Values: []string{"ADMIN", "Member"}},
		},
	}
}

func TestDiffIdenticalSchemas(t *testing.T) {
	d := Diff(baseSchema(), baseSchema())
	assert.True(t, d.IsEmpty())
	assert.Equal(t, "No differences detected.", d.String())
}

func TestDiffAddedAndRemovedTables(t *testing.T) {
	current := baseSchema()
	desired := baseSchema()
	desired.Tables = append(desired.Tables, sqlschema.Table{
		Name: "Post",
		Columns: []sqlschema.Column{
			{Name: "id", Type: sqlschema.ColumnType{Family: sqlschema.FamilyInt, Arity: sqlschema.Required}},
		},
	})
	current.Tables = append(current.Tables, sqlschema.Table{Name: "Legacy"})

	d := Diff(current, desired)
	require.False(t, d.IsEmpty())
	require.Len(t, d.AddedTables, 1)
	assert.Equal(t, "Post", d.AddedTables[0].Name)
	require.Len(t, d.RemovedTables, 1)
	assert.Equal(t, "Legacy", d.RemovedTables[0].Name)
	assert.Empty(t, d.ModifiedTables)

	out := d.String()
	assert.Contains(t, out, "Added tables")
	assert.Contains(t, out, "Post")
	assert.Contains(t, out, "Removed tables")
	assert.Contains(t, out, "Legacy")
}

func TestDiffColumnChanges(t *testing.T) {
	current := baseSchema()
	desired := baseSchema()

	// Add a column, drop one, and change one in place.
	desired.Tables[0].Columns = append(desired.Tables[0].Columns, sqlschema.Column{
		Name: "createdAt",
		Type: sqlschema.ColumnType{Family: sqlschema.FamilyDateTime, Arity: sqlschema.Required},
	})
	desired.Tables[0].Columns[1].Type.Arity = sqlschema.Nullable
	current.Tables[0].Columns = append(current.Tables[0].Columns, sqlschema.Column{
		Name: "legacyFlag",
		Type: sqlschema.ColumnType{Family: sqlschema.FamilyBoolean, Arity: sqlschema.Required},
	})

	d := Diff(current, desired)
	require.Len(t, d.ModifiedTables, 1)

	td := d.ModifiedTables[0]
	assert.Equal(t, "User", td.Name)
	require.Len(t, td.AddedColumns, 1)
	assert.Equal(t, "createdAt", td.AddedColumns[0].Name)
	require.Len(t, td.RemovedColumns, 1)
	assert.Equal(t, "legacyFlag", td.RemovedColumns[0].Name)
	require.Len(t, td.ModifiedColumns, 1)
	assert.Equal(t, "email", td.ModifiedColumns[0].Name)
	require.Len(t, td.ModifiedColumns[0].Changes, 1)
	assert.Contains(t, td.ModifiedColumns[0].Changes[0], "arity")
}

func TestDiffDefaultChanges(t *testing.T) {
	current := baseSchema()
	desired := baseSchema()
	desired.Tables[0].Columns[1].Default = &sqlschema.DefaultValue{
		Kind: sqlschema.DefaultLiteral, Value: "nobody@example.com",
	}

	d := Diff(current, desired)
	require.Len(t, d.ModifiedTables, 1)
	require.Len(t, d.ModifiedTables[0].ModifiedColumns, 1)
	assert.Contains(t, d.ModifiedTables[0].ModifiedColumns[0].Changes[0], "default")
}

func TestDiffIndexRedefinition(t *testing.T) {
	current := baseSchema()
	desired := baseSchema()
	// Same name, different column list: drop and recreate.
	desired.Tables[0].Indexes[0].Columns = []string{"email", "id"}

	d := Diff(current, desired)
	require.Len(t, d.ModifiedTables, 1)
	td := d.ModifiedTables[0]
	require.Len(t, td.RemovedIndexes, 1)
	require.Len(t, td.AddedIndexes, 1)
	assert.Equal(t, "User_email_key", td.AddedIndexes[0].Name)
	assert.Equal(t, []string{"email", "id"}, td.AddedIndexes[0].Columns)
}

func TestDiffForeignKeysIgnoreConstraintNames(t *testing.T) {
	fk := sqlschema.ForeignKey{
		Columns:           []string{"authorId"},
		ReferencedTable:   "User",
		ReferencedColumns: []string{"id"},
		OnDelete:          sqlschema.Cascade,
		OnUpdate:          sqlschema.Cascade,
	}

	current := baseSchema()
	desired := baseSchema()

	namedFK := fk
	namedFK.ConstraintName = "Post_authorId_fkey"
	current.Tables = append(current.Tables, sqlschema.Table{Name: "Post", ForeignKeys: []sqlschema.ForeignKey{namedFK}})
	desired.Tables = append(desired.Tables, sqlschema.Table{Name: "Post", ForeignKeys: []sqlschema.ForeignKey{fk}})

	d := Diff(current, desired)
	assert.True(t, d.IsEmpty())

	// Changing the delete action makes the keys different constraints.
	desired.Tables[1].ForeignKeys[0].OnDelete = sqlschema.Restrict
	d = Diff(current, desired)
	require.Len(t, d.ModifiedTables, 1)
	assert.Len(t, d.ModifiedTables[0].AddedForeignKeys, 1)
	assert.Len(t, d.ModifiedTables[0].RemovedForeignKeys, 1)
}

func TestDiffPrimaryKeyChange(t *testing.T) {
	current := baseSchema()
	desired := baseSchema()
	desired.Tables[0].PrimaryKey = &sqlschema.PrimaryKey{Columns: []string{"id", "email"}}

	d := Diff(current, desired)
	require.Len(t, d.ModifiedTables, 1)
	pd := d.ModifiedTables[0].PrimaryKeyChange
	require.NotNil(t, pd)
	assert.Equal(t, []string{"id"}, pd.Current.Columns)
	assert.Equal(t, []string{"id", "email"}, pd.Desired.Columns)

	// Dropping the primary key entirely is also a change.
	desired.Tables[0].PrimaryKey = nil
	d = Diff(current, desired)
	require.Len(t, d.ModifiedTables, 1)
	require.NotNil(t, d.ModifiedTables[0].PrimaryKeyChange)
	assert.Nil(t, d.ModifiedTables[0].PrimaryKeyChange.Desired)
}

func TestDiffEnums(t *testing.T) {
	current := baseSchema()
	desired := baseSchema()
	desired.Enums[0].Values = append(desired.Enums[0].Values, "Moderator")
	desired.Enums = append(desired.Enums, sqlschema.Enum{Name: "Status", Values: []string{"Active"}})
	current.Enums = append(current.Enums, sqlschema.Enum{Name: "Obsolete", Values: []string{"X"}})

	d := Diff(current, desired)
	require.Len(t, d.AddedEnums, 1)
	assert.Equal(t, "Status", d.AddedEnums[0].Name)
	require.Len(t, d.RemovedEnums, 1)
	assert.Equal(t, "Obsolete", d.RemovedEnums[0].Name)
	require.Len(t, d.ModifiedEnums, 1)
	assert.Equal(t, "Role", d.ModifiedEnums[0].Name)
	assert.Equal(t, []string{"Moderator"}, d.ModifiedEnums[0].AddedValues)
	assert.Empty(t, d.ModifiedEnums[0].RemovedValues)
}

func TestDiffOutputIsSorted(t *testing.T) {
	current := &sqlschema.Schema{}
	desired := &sqlschema.Schema{
		Tables: []sqlschema.Table{{Name: "Zebra"}, {Name: "Apple"}, {Name: "Mango"}},
	}

	d := Diff(current, desired)
	require.Len(t, d.AddedTables, 3)
	assert.Equal(t, "Apple", d.AddedTables[0].Name)
	assert.Equal(t, "Mango", d.AddedTables[1].Name)
	assert.Equal(t, "Zebra", d.AddedTables[2].Name)
}
