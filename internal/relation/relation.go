// Package relation infers the relations declared between models and
// stores them in an indexed, read-only collection.
//
// A relation is always between two models. One model is assigned the
// role of "model A", the other "model B". In implicit many-to-many
// relations the roles are ordered lexicographically by model name (by
// field name for self-relations), and that order must stay stable for
// the columns of the join table to keep their meaning. In one-to-one
// and one-to-many relations, model A is the side carrying the
// referencing information: on a SQL database, model A's table holds the
// foreign key constraint.
package relation

import (
	"fmt"

	"morph/internal/datamodel"
)

// ID is the stable numeric identity of a relation within a store.
type ID int

// Shape classifies the cardinality of a relation and which sides
// declared a relation field.
type Shape string

const (
	// ImplicitManyToMany is a pair of list fields with no linking
	// fields; it manifests as a separate join table.
	ImplicitManyToMany Shape = "implicit_m2m"
	// OneToOneForward is a 1:1 declared only on the linking side.
	OneToOneForward Shape = "1:1_forward"
	// OneToOneBoth is a 1:1 declared on both sides.
	OneToOneBoth Shape = "1:1_both"
	// OneToManyForward is a 1:m declared only on the linking side.
	OneToManyForward Shape = "1:m_forward"
	// OneToManyBack is a 1:m declared only on the list side. Model A is
	// the referenced model and model B the declaring one, inverted from
	// every other shape, because the declaring side has no linking
	// field to call model A.
	OneToManyBack Shape = "1:m_back"
	// OneToManyBoth is a 1:m declared on both sides.
	OneToManyBoth Shape = "1:m_both"
)

// NoField marks an endpoint with no declared relation field.
const NoField datamodel.FieldID = -1

// Relation is one inferred relation. Immutable after inference.
type Relation struct {
	// Name is the explicit relation name, or empty.
	Name string

	Shape Shape

	ModelA datamodel.ModelID
	ModelB datamodel.ModelID

	// FieldA is the relation field declared on model A, or NoField.
	FieldA datamodel.FieldID
	// FieldB is the relation field declared on model B, or NoField.
	FieldB datamodel.FieldID
}

// IsManyToMany reports whether the relation manifests as a join table.
func (r *Relation) IsManyToMany() bool { return r.Shape == ImplicitManyToMany }

// IsOneToOne reports whether the relation is one-to-one.
func (r *Relation) IsOneToOne() bool {
	return r.Shape == OneToOneForward || r.Shape == OneToOneBoth
}

// HasField reports whether the given model field is one of the
// relation's declared endpoints.
func (r *Relation) HasField(model datamodel.ModelID, field datamodel.FieldID) bool {
	if r.FieldA != NoField && r.ModelA == model && r.FieldA == field {
		return true
	}
	return r.FieldB != NoField && r.ModelB == model && r.FieldB == field
}

// CompleteFields returns both endpoint fields when the relation was
// declared on both sides.
func (r *Relation) CompleteFields() (a, b datamodel.FieldID, ok bool) {
	if r.FieldA == NoField || r.FieldB == NoField {
		return NoField, NoField, false
	}
	return r.FieldA, r.FieldB, true
}

// DisplayName returns the explicit relation name, or the default name
// computed from the two model names.
func (r *Relation) DisplayName(dm *datamodel.Datamodel) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("%sTo%s", dm.Model(r.ModelA).Name, dm.Model(r.ModelB).Name)
}

// ManifestationTableName is the database name of the join table for an
// implicit many-to-many relation.
func (r *Relation) ManifestationTableName(dm *datamodel.Datamodel) string {
	return "_" + r.DisplayName(dm)
}
