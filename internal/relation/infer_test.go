package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morph/internal/datamodel"
)

func userPostManyToMany() *datamodel.Datamodel {
	return &datamodel.Datamodel{
		Models: []*datamodel.Model{
			{
				Name: "User",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "posts", Kind: datamodel.KindRelation, Arity: datamodel.List, TargetModel: "Post"},
				},
				IDFields: []string{"id"},
			},
			{
				Name: "Post",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "authors", Kind: datamodel.KindRelation, Arity: datamodel.List, TargetModel: "User"},
				},
				IDFields: []string{"id"},
			},
		},
	}
}

func TestInferImplicitManyToMany(t *testing.T) {
	dm := userPostManyToMany()

	store := Infer(dm)
	require.Equal(t, 1, store.Len())

	rel := store.Get(0)
	assert.Equal(t, ImplicitManyToMany, rel.Shape)
	assert.True(t, rel.IsManyToMany())

	// Post sorts before User, so Post is model A no matter which model
	// was declared first.
	assert.Equal(t, "Post", dm.Model(rel.ModelA).Name)
	assert.Equal(t, "User", dm.Model(rel.ModelB).Name)
	assert.Equal(t, "authors", dm.Model(rel.ModelA).Field(rel.FieldA).Name)
	assert.Equal(t, "posts", dm.Model(rel.ModelB).Field(rel.FieldB).Name)

	assert.Equal(t, "PostToUser", rel.DisplayName(dm))
	assert.Equal(t, "_PostToUser", rel.ManifestationTableName(dm))
}

func TestInferIsDeterministic(t *testing.T) {
	dm := userPostManyToMany()

	reversed := &datamodel.Datamodel{
		Models: []*datamodel.Model{dm.Models[1], dm.Models[0]},
	}

	a := Infer(dm)
	b := Infer(reversed)

	require.Equal(t, a.Len(), b.Len())
	for i := 0; i < a.Len(); i++ {
		ra, rb := a.Get(ID(i)), b.Get(ID(i))
		assert.Equal(t, ra.Shape, rb.Shape)
		assert.Equal(t, dm.Model(ra.ModelA).Name, reversed.Model(rb.ModelA).Name)
		assert.Equal(t, dm.Model(ra.ModelB).Name, reversed.Model(rb.ModelB).Name)
	}
}

func TestInferOneToOneBoth(t *testing.T) {
	dm := &datamodel.Datamodel{
		Models: []*datamodel.Model{
			{
				Name: "User",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "profile", Kind: datamodel.KindRelation, Arity: datamodel.Optional, TargetModel: "Profile"},
				},
				IDFields: []string{"id"},
			},
			{
				Name: "Profile",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "userId", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt, Unique: true},
					{
						Name: "user", Kind: datamodel.KindRelation, Arity: datamodel.Required,
						TargetModel: "User", RelationFields: []string{"userId"}, RelationReferences: []string{"id"},
					},
				},
				IDFields: []string{"id"},
			},
		},
	}

	store := Infer(dm)
	require.Equal(t, 1, store.Len())

	rel := store.Get(0)
	assert.Equal(t, OneToOneBoth, rel.Shape)
	assert.True(t, rel.IsOneToOne())

	// The required side carries the link and is model A.
	assert.Equal(t, "Profile", dm.Model(rel.ModelA).Name)
	assert.Equal(t, "user", dm.Model(rel.ModelA).Field(rel.FieldA).Name)
	assert.Equal(t, "User", dm.Model(rel.ModelB).Name)
	assert.Equal(t, "profile", dm.Model(rel.ModelB).Field(rel.FieldB).Name)

	a, b, ok := rel.CompleteFields()
	assert.True(t, ok)
	assert.Equal(t, rel.FieldA, a)
	assert.Equal(t, rel.FieldB, b)
}

func TestInferOneToOneOptionalBothSides(t *testing.T) {
	// Neither side is required; the side declaring linking fields wins
	// the model A role.
	dm := &datamodel.Datamodel{
		Models: []*datamodel.Model{
			{
				Name: "Cat",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "box", Kind: datamodel.KindRelation, Arity: datamodel.Optional, TargetModel: "Box"},
				},
				IDFields: []string{"id"},
			},
			{
				Name: "Box",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "catId", Kind: datamodel.KindScalar, Arity: datamodel.Optional, Scalar: datamodel.ScalarInt, Unique: true},
					{
						Name: "cat", Kind: datamodel.KindRelation, Arity: datamodel.Optional,
						TargetModel: "Cat", RelationFields: []string{"catId"}, RelationReferences: []string{"id"},
					},
				},
				IDFields: []string{"id"},
			},
		},
	}

	store := Infer(dm)
	require.Equal(t, 1, store.Len())

	rel := store.Get(0)
	assert.Equal(t, OneToOneBoth, rel.Shape)
	assert.Equal(t, "Box", dm.Model(rel.ModelA).Name)
	assert.Equal(t, "cat", dm.Model(rel.ModelA).Field(rel.FieldA).Name)
}

func TestInferOneToManyBoth(t *testing.T) {
	dm := &datamodel.Datamodel{
		Models: []*datamodel.Model{
			{
				Name: "User",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "posts", Kind: datamodel.KindRelation, Arity: datamodel.List, TargetModel: "Post"},
				},
				IDFields: []string{"id"},
			},
			{
				Name: "Post",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "authorId", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{
						Name: "author", Kind: datamodel.KindRelation, Arity: datamodel.Required,
						TargetModel: "User", RelationFields: []string{"authorId"}, RelationReferences: []string{"id"},
					},
				},
				IDFields: []string{"id"},
			},
		},
	}

	store := Infer(dm)
	require.Equal(t, 1, store.Len())

	rel := store.Get(0)
	assert.Equal(t, OneToManyBoth, rel.Shape)
	assert.Equal(t, "Post", dm.Model(rel.ModelA).Name)
	assert.Equal(t, "author", dm.Model(rel.ModelA).Field(rel.FieldA).Name)
	assert.Equal(t, "User", dm.Model(rel.ModelB).Name)
	assert.Equal(t, "posts", dm.Model(rel.ModelB).Field(rel.FieldB).Name)
}

func TestInferOneToManyBack(t *testing.T) {
	// Only the list side declares a field. The referenced model plays
	// the model A role with no field of its own; since no side declares
	// linking information, schema calculation emits nothing for it.
	dm := &datamodel.Datamodel{
		Models: []*datamodel.Model{
			{
				Name: "User",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "posts", Kind: datamodel.KindRelation, Arity: datamodel.List, TargetModel: "Post"},
				},
				IDFields: []string{"id"},
			},
			{
				Name: "Post",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
				},
				IDFields: []string{"id"},
			},
		},
	}

	store := Infer(dm)
	require.Equal(t, 1, store.Len())

	rel := store.Get(0)
	assert.Equal(t, OneToManyBack, rel.Shape)
	assert.Equal(t, "Post", dm.Model(rel.ModelA).Name)
	assert.Equal(t, NoField, rel.FieldA)
	assert.Equal(t, "User", dm.Model(rel.ModelB).Name)
	assert.Equal(t, "posts", dm.Model(rel.ModelB).Field(rel.FieldB).Name)

	_, _, ok := rel.CompleteFields()
	assert.False(t, ok)
}

func TestInferOneSidedForward(t *testing.T) {
	tests := []struct {
		name   string
		unique bool
		shape  Shape
	}{
		{name: "unique linking field makes it one-to-one", unique: true, shape: OneToOneForward},
		{name: "non-unique linking field makes it one-to-many", unique: false, shape: OneToManyForward},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dm := &datamodel.Datamodel{
				Models: []*datamodel.Model{
					{
						Name: "User",
						Fields: []*datamodel.Field{
							{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
						},
						IDFields: []string{"id"},
					},
					{
						Name: "Post",
						Fields: []*datamodel.Field{
							{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
							{Name: "authorId", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt, Unique: tt.unique},
							{
								Name: "author", Kind: datamodel.KindRelation, Arity: datamodel.Required,
								TargetModel: "User", RelationFields: []string{"authorId"}, RelationReferences: []string{"id"},
							},
						},
						IDFields: []string{"id"},
					},
				},
			}

			store := Infer(dm)
			require.Equal(t, 1, store.Len())

			rel := store.Get(0)
			assert.Equal(t, tt.shape, rel.Shape)
			assert.Equal(t, "Post", dm.Model(rel.ModelA).Name)
			assert.Equal(t, NoField, rel.FieldB)
		})
	}
}

func TestInferSelfRelation(t *testing.T) {
	dm := &datamodel.Datamodel{
		Models: []*datamodel.Model{
			{
				Name: "Person",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "husband", Kind: datamodel.KindRelation, Arity: datamodel.Optional, TargetModel: "Person", RelationName: "Marriage"},
					{Name: "wife", Kind: datamodel.KindRelation, Arity: datamodel.Optional, TargetModel: "Person", RelationName: "Marriage"},
				},
				IDFields: []string{"id"},
			},
		},
	}

	store := Infer(dm)
	require.Equal(t, 1, store.Len())

	rel := store.Get(0)
	assert.Equal(t, OneToOneBoth, rel.Shape)
	assert.Equal(t, "Marriage", rel.Name)
	assert.Equal(t, rel.ModelA, rel.ModelB)

	// Neither side declares linking fields; the field name breaks the
	// tie, so husband is field A.
	assert.Equal(t, "husband", dm.Model(rel.ModelA).Field(rel.FieldA).Name)
	assert.Equal(t, "wife", dm.Model(rel.ModelB).Field(rel.FieldB).Name)
}

func TestInferSelfManyToMany(t *testing.T) {
	dm := &datamodel.Datamodel{
		Models: []*datamodel.Model{
			{
				Name: "User",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "followers", Kind: datamodel.KindRelation, Arity: datamodel.List, TargetModel: "User", RelationName: "Follows"},
					{Name: "following", Kind: datamodel.KindRelation, Arity: datamodel.List, TargetModel: "User", RelationName: "Follows"},
				},
				IDFields: []string{"id"},
			},
		},
	}

	store := Infer(dm)
	require.Equal(t, 1, store.Len())

	rel := store.Get(0)
	assert.Equal(t, ImplicitManyToMany, rel.Shape)
	assert.Equal(t, "followers", dm.Model(rel.ModelA).Field(rel.FieldA).Name)
	assert.Equal(t, "following", dm.Model(rel.ModelB).Field(rel.FieldB).Name)
}

func TestInferNamedRelationsBetweenSamePair(t *testing.T) {
	// Two distinct relations between the same pair of models, told apart
	// by their names.
	dm := &datamodel.Datamodel{
		Models: []*datamodel.Model{
			{
				Name: "User",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "written", Kind: datamodel.KindRelation, Arity: datamodel.List, TargetModel: "Post", RelationName: "Author"},
					{Name: "pinned", Kind: datamodel.KindRelation, Arity: datamodel.Optional, TargetModel: "Post", RelationName: "Pinned"},
				},
				IDFields: []string{"id"},
			},
			{
				Name: "Post",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "authorId", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{
						Name: "author", Kind: datamodel.KindRelation, Arity: datamodel.Required,
						TargetModel: "User", RelationName: "Author",
						RelationFields: []string{"authorId"}, RelationReferences: []string{"id"},
					},
					{
						Name: "pinnedBy", Kind: datamodel.KindRelation, Arity: datamodel.List,
						TargetModel: "User", RelationName: "Pinned",
					},
				},
				IDFields: []string{"id"},
			},
		},
	}

	store := Infer(dm)
	require.Equal(t, 2, store.Len())

	byName := map[string]*Relation{}
	store.All(func(_ ID, r *Relation) { byName[r.Name] = r })

	require.Contains(t, byName, "Author")
	require.Contains(t, byName, "Pinned")
	assert.Equal(t, OneToManyBoth, byName["Author"].Shape)
	assert.Equal(t, OneToManyBoth, byName["Pinned"].Shape)
	assert.Equal(t, "Post", dm.Model(byName["Author"].ModelA).Name)
	// For Pinned the to-one side is the user, so User plays model A.
	assert.Equal(t, "User", dm.Model(byName["Pinned"].ModelA).Name)
}

func TestStoreIndexes(t *testing.T) {
	dm := &datamodel.Datamodel{
		Models: []*datamodel.Model{
			{
				Name: "User",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "posts", Kind: datamodel.KindRelation, Arity: datamodel.List, TargetModel: "Post"},
					{Name: "comments", Kind: datamodel.KindRelation, Arity: datamodel.List, TargetModel: "Comment"},
				},
				IDFields: []string{"id"},
			},
			{
				Name: "Post",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "authorId", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{
						Name: "author", Kind: datamodel.KindRelation, Arity: datamodel.Required,
						TargetModel: "User", RelationFields: []string{"authorId"}, RelationReferences: []string{"id"},
					},
				},
				IDFields: []string{"id"},
			},
			{
				Name: "Comment",
				Fields: []*datamodel.Field{
					{Name: "id", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{Name: "authorId", Kind: datamodel.KindScalar, Arity: datamodel.Required, Scalar: datamodel.ScalarInt},
					{
						Name: "author", Kind: datamodel.KindRelation, Arity: datamodel.Required,
						TargetModel: "User", RelationFields: []string{"authorId"}, RelationReferences: []string{"id"},
					},
				},
				IDFields: []string{"id"},
			},
		},
	}

	store := Infer(dm)
	require.Equal(t, 2, store.Len())

	userID, _ := dm.FindModel("User")
	postID, _ := dm.FindModel("Post")
	commentID, _ := dm.FindModel("Comment")

	// Post and Comment each hold one foreign key pointing at User.
	assert.Len(t, store.FromModel(postID), 1)
	assert.Len(t, store.FromModel(commentID), 1)
	assert.Empty(t, store.FromModel(userID))

	assert.Len(t, store.ToModel(userID), 2)
	assert.Empty(t, store.ToModel(postID))
	assert.Empty(t, store.ToModel(commentID))

	for _, id := range store.ToModel(userID) {
		rel := store.Get(id)
		assert.Equal(t, userID, rel.ModelB)
		assert.True(t, rel.HasField(rel.ModelA, rel.FieldA))
	}
}
