package flavour

import "morph/internal/sqlschema"

func init() {
	Register(Postgres, func() Flavour { return postgres{} })
}

type postgres struct{}

func (postgres) Family() Family { return Postgres }

func (postgres) EnumStrategy() EnumStrategy { return EnumNative }

func (postgres) SupportsListColumns() bool { return true }

func (postgres) SupportsIndexColumnLengthPrefix() bool { return false }

func (postgres) SupportsClustering() bool { return false }

func (postgres) SupportsFullTextIndexes() bool { return false }

func (postgres) SupportsIndexAlgorithm(a sqlschema.IndexAlgorithm) bool {
	switch a {
	case sqlschema.AlgoBTree, sqlschema.AlgoHash, sqlschema.AlgoGin,
		sqlschema.AlgoGist, sqlschema.AlgoSpGist, sqlschema.AlgoBrin:
		return true
	}
	return false
}

func (postgres) AutoIncrementKind() AutoIncrementKind { return AutoIncrementSequence }

func (postgres) DefaultIndexAlgorithm() sqlschema.IndexAlgorithm { return sqlschema.AlgoBTree }

// OperatorClass picks the operator class GIN/GiST indexes need for
// common column families.
func (postgres) OperatorClass(a sqlschema.IndexAlgorithm, fam sqlschema.ColumnFamily) string {
	switch a {
	case sqlschema.AlgoGin:
		if fam == sqlschema.FamilyJSON {
			return "jsonb_ops"
		}
		return "array_ops"
	case sqlschema.AlgoGist:
		if fam == sqlschema.FamilyString {
			return "gist_trgm_ops"
		}
	case sqlschema.AlgoSpGist:
		if fam == sqlschema.FamilyString {
			return "text_ops"
		}
	}
	return ""
}
