package flavour

import "morph/internal/sqlschema"

func init() {
	Register(SQLite, func() Flavour { return sqlite{} })
}

type sqlite struct{}

func (sqlite) Family() Family { return SQLite }

func (sqlite) EnumStrategy() EnumStrategy { return EnumNone }

func (sqlite) SupportsListColumns() bool { return false }

func (sqlite) SupportsIndexColumnLengthPrefix() bool { return false }

func (sqlite) SupportsClustering() bool { return false }

func (sqlite) SupportsFullTextIndexes() bool { return false }

func (sqlite) SupportsIndexAlgorithm(a sqlschema.IndexAlgorithm) bool {
	return a == sqlschema.AlgoBTree
}

func (sqlite) AutoIncrementKind() AutoIncrementKind { return AutoIncrementColumn }

func (sqlite) DefaultIndexAlgorithm() sqlschema.IndexAlgorithm { return sqlschema.AlgoBTree }

func (sqlite) OperatorClass(sqlschema.IndexAlgorithm, sqlschema.ColumnFamily) string { return "" }
