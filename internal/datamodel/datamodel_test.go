package datamodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *Model {
	return &Model{
		Name:       "User",
		MappedName: "users",
		Fields: []*Field{
			{Name: "id", Kind: KindScalar, Arity: Required, Scalar: ScalarInt},
			{Name: "email", MappedName: "email_address", Kind: KindScalar, Arity: Required, Scalar: ScalarString, Unique: true},
			{Name: "role", Kind: KindEnum, Arity: Optional, EnumName: "Role"},
			{Name: "posts", Kind: KindRelation, Arity: List, TargetModel: "Post"},
		},
		IDFields: []string{"id"},
		Indexes: []*IndexDefinition{
			{Name: "name_idx", Fields: []string{"firstName", "lastName"}, Unique: true},
		},
	}
}

func TestDatabaseNameFallbacks(t *testing.T) {
	m := sampleModel()
	assert.Equal(t, "users", m.DatabaseName())

	m.MappedName = ""
	assert.Equal(t, "User", m.DatabaseName())

	_, email := m.FindField("email")
	require.NotNil(t, email)
	assert.Equal(t, "email_address", email.DatabaseName())

	_, id := m.FindField("id")
	require.NotNil(t, id)
	assert.Equal(t, "id", id.DatabaseName())

	e := &Enum{Name: "Role", Values: []EnumValue{{Name: "Admin", MappedName: "ADMIN"}, {Name: "Member"}}}
	assert.Equal(t, "Role", e.DatabaseName())
	assert.Equal(t, "ADMIN", e.Values[0].DatabaseName())
	assert.Equal(t, "Member", e.Values[1].DatabaseName())
}

func TestFieldLookups(t *testing.T) {
	m := sampleModel()

	id, f := m.FindField("role")
	require.NotNil(t, f)
	assert.Equal(t, FieldID(2), id)
	assert.Same(t, f, m.Field(id))

	missing, nilField := m.FindField("nope")
	assert.Equal(t, FieldID(-1), missing)
	assert.Nil(t, nilField)
}

func TestFieldIterators(t *testing.T) {
	m := sampleModel()

	var scalars, relations []string
	m.ScalarFields(func(_ FieldID, f *Field) { scalars = append(scalars, f.Name) })
	m.RelationFields(func(_ FieldID, f *Field) { relations = append(relations, f.Name) })

	assert.Equal(t, []string{"id", "email", "role"}, scalars)
	assert.Equal(t, []string{"posts"}, relations)
}

func TestArityPredicates(t *testing.T) {
	assert.True(t, Required.IsRequired())
	assert.False(t, Required.IsOptional())
	assert.True(t, Optional.IsOptional())
	assert.True(t, List.IsList())
	assert.False(t, List.IsRequired())
}

func TestIsID(t *testing.T) {
	m := sampleModel()
	assert.True(t, m.IsID("id"))
	assert.False(t, m.IsID("email"))
}

func TestFieldsAreUnique(t *testing.T) {
	m := sampleModel()

	// The primary key set.
	assert.True(t, m.FieldsAreUnique([]string{"id"}))

	// A single field marked unique.
	assert.True(t, m.FieldsAreUnique([]string{"email"}))

	// A declared unique index block, regardless of order.
	assert.True(t, m.FieldsAreUnique([]string{"firstName", "lastName"}))
	assert.True(t, m.FieldsAreUnique([]string{"lastName", "firstName"}))

	// Subsets and supersets of a unique set are not unique.
	assert.False(t, m.FieldsAreUnique([]string{"firstName"}))
	assert.False(t, m.FieldsAreUnique([]string{"firstName", "lastName", "id"}))

	assert.False(t, m.FieldsAreUnique([]string{"role"}))
	assert.False(t, m.FieldsAreUnique(nil))
}

func TestDatamodelLookups(t *testing.T) {
	dm := &Datamodel{
		Models: []*Model{sampleModel(), {Name: "Post"}},
		Enums:  []*Enum{{Name: "Role", Values: []EnumValue{{Name: "Admin"}}}},
	}

	id, m := dm.FindModel("Post")
	require.NotNil(t, m)
	assert.Equal(t, ModelID(1), id)
	assert.Same(t, m, dm.Model(id))

	missing, nilModel := dm.FindModel("Comment")
	assert.Equal(t, ModelID(-1), missing)
	assert.Nil(t, nilModel)

	require.NotNil(t, dm.FindEnum("Role"))
	assert.Nil(t, dm.FindEnum("Status"))
}

func TestModelString(t *testing.T) {
	m := sampleModel()
	assert.Equal(t, "model User (id, email, role, posts)", m.String())
}
