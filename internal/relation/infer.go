package relation

import "morph/internal/datamodel"

// Infer runs a single pass over every relation field in the declaration
// table and returns the populated store.
//
// Inference never fails: ambiguous or invalid configurations (for
// example a one-to-one required on both sides) are encoded in the
// relation's shape and left for a later validation stage to reject.
// For every pair of opposite relation fields exactly one relation is
// created, regardless of declaration order.
func Infer(dm *datamodel.Datamodel) *Store {
	store := &Store{}
	for i, m := range dm.Models {
		modelID := datamodel.ModelID(i)
		m.RelationFields(func(fieldID datamodel.FieldID, f *datamodel.Field) {
			ingest(gatherEvidence(dm, modelID, fieldID, f), store)
		})
	}
	store.seal()
	return store
}

// evidence is everything classification needs to know about one
// relation field: the declaring side, and the opposite field when one
// exists.
type evidence struct {
	dm *datamodel.Datamodel

	model   *datamodel.Model
	modelID datamodel.ModelID
	field   *datamodel.Field
	fieldID datamodel.FieldID

	isSelfRelation bool

	oppositeModel   *datamodel.Model
	oppositeModelID datamodel.ModelID
	oppositeField   *datamodel.Field
	oppositeFieldID datamodel.FieldID
	hasOpposite     bool
}

// gatherEvidence finds the opposite relation field of f, if any: a
// relation field on the target model referencing back the declaring
// model, with the same relation name (or both unnamed), excluding the
// field itself for self-relations. At most one such field exists in a
// validated declaration table.
func gatherEvidence(dm *datamodel.Datamodel, modelID datamodel.ModelID, fieldID datamodel.FieldID, f *datamodel.Field) evidence {
	model := dm.Model(modelID)
	targetID, target := dm.FindModel(f.TargetModel)

	ev := evidence{
		dm:              dm,
		model:           model,
		modelID:         modelID,
		field:           f,
		fieldID:         fieldID,
		isSelfRelation:  targetID == modelID,
		oppositeModel:   target,
		oppositeModelID: targetID,
		oppositeFieldID: NoField,
	}

	target.RelationFields(func(oppID datamodel.FieldID, opp *datamodel.Field) {
		if ev.hasOpposite {
			return
		}
		if opp.TargetModel != model.Name {
			return
		}
		if ev.isSelfRelation && oppID == fieldID {
			return
		}
		if opp.RelationName != f.RelationName {
			return
		}
		ev.oppositeField = opp
		ev.oppositeFieldID = oppID
		ev.hasOpposite = true
	})

	return ev
}

// ingest classifies one relation field and, when this traversal
// direction is the canonical one, creates the relation. Each pair of
// opposite fields is visited twice; exactly one visit instantiates.
func ingest(ev evidence, store *Store) {
	var shape Shape
	fieldA, fieldB := ev.fieldID, ev.oppositeFieldID

	switch {
	// m:n
	case ev.field.Arity.IsList() && ev.hasOpposite && ev.oppositeField.Arity.IsList():
		// Implicit many-to-many. We will meet the pair twice, so only
		// instantiate from the lexicographically smaller model name
		// (field name for self-relations).
		if ev.model.Name > ev.oppositeModel.Name {
			return
		}
		if ev.isSelfRelation && ev.field.Name > ev.oppositeField.Name {
			return
		}
		shape = ImplicitManyToMany

	// 1:1
	case ev.field.Arity.IsRequired() && ev.hasOpposite && ev.oppositeField.Arity.IsOptional():
		// Required 1:1 seen from the required side, which carries the
		// link.
		shape = OneToOneBoth

	case ev.field.Arity.IsRequired() && ev.hasOpposite && ev.oppositeField.Arity.IsRequired():
		// A 1:1 required on both sides. Validation rejects this later;
		// here we only need one canonical instantiation.
		if !orderedBefore(ev) {
			return
		}
		shape = OneToOneBoth

	case ev.field.Arity.IsOptional() && ev.hasOpposite && ev.oppositeField.Arity.IsRequired():
		// Required 1:1 seen from the virtual side. Skip.
		return

	case ev.field.Arity.IsOptional() && ev.hasOpposite && ev.oppositeField.Arity.IsOptional():
		// A 1:1 optional on both sides. The side declaring linking
		// fields is model A; with no linking fields anywhere, break the
		// tie lexicographically.
		switch {
		case len(ev.field.RelationFields) > 0:
			shape = OneToOneBoth
		case len(ev.oppositeField.RelationFields) == 0:
			if !orderedBefore(ev) {
				return
			}
			shape = OneToOneBoth
		default:
			// The opposite side declares the link and instantiates.
			return
		}

	// 1:m
	case ev.field.Arity.IsList() && ev.hasOpposite:
		// 1:m declared on both sides, seen from the virtual side. Skip.
		return

	case ev.field.Arity.IsList():
		// 1:m declared on the list side only.
		shape = OneToManyBack

	case ev.hasOpposite:
		// 1:m declared on both sides, seen from the linking side.
		shape = OneToManyBoth

	// 1:m or 1:1, one-sided
	default:
		// Declared on the linking side only. The relation is 1:1 when
		// the linking fields form a unique criterion on the declaring
		// model.
		if len(ev.field.RelationFields) > 0 && ev.model.FieldsAreUnique(ev.field.RelationFields) {
			shape = OneToOneForward
		} else {
			shape = OneToManyForward
		}
		fieldB = NoField
	}

	var r Relation
	if shape == OneToManyBack {
		// Back-only relations have no forward field. Model A is the
		// referenced model, model B the declaring one.
		r = Relation{
			Name:   ev.field.RelationName,
			Shape:  shape,
			ModelA: ev.oppositeModelID,
			ModelB: ev.modelID,
			FieldA: NoField,
			FieldB: ev.fieldID,
		}
	} else {
		r = Relation{
			Name:   ev.field.RelationName,
			Shape:  shape,
			ModelA: ev.modelID,
			ModelB: ev.oppositeModelID,
			FieldA: fieldA,
			FieldB: fieldB,
		}
	}

	store.insert(r)
}

// orderedBefore reports whether the declaring side sorts at or before
// the opposite side in the (model name, field name) lexicographic
// order. Used to pick a single canonical instantiation when both sides
// look identical to classification.
func orderedBefore(ev evidence) bool {
	if ev.model.Name != ev.oppositeModel.Name {
		return ev.model.Name < ev.oppositeModel.Name
	}
	return ev.field.Name <= ev.oppositeField.Name
}
