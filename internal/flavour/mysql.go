package flavour

import "morph/internal/sqlschema"

func init() {
	Register(MySQL, func() Flavour { return mysql{} })
}

type mysql struct{}

func (mysql) Family() Family { return MySQL }

func (mysql) EnumStrategy() EnumStrategy { return EnumPerUsage }

func (mysql) SupportsListColumns() bool { return false }

func (mysql) SupportsIndexColumnLengthPrefix() bool { return true }

func (mysql) SupportsClustering() bool { return false }

func (mysql) SupportsFullTextIndexes() bool { return true }

func (mysql) SupportsIndexAlgorithm(a sqlschema.IndexAlgorithm) bool {
	return a == sqlschema.AlgoBTree || a == sqlschema.AlgoHash
}

func (mysql) AutoIncrementKind() AutoIncrementKind { return AutoIncrementColumn }

func (mysql) DefaultIndexAlgorithm() sqlschema.IndexAlgorithm { return sqlschema.AlgoBTree }

func (mysql) OperatorClass(sqlschema.IndexAlgorithm, sqlschema.ColumnFamily) string { return "" }
