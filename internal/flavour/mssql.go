package flavour

import "morph/internal/sqlschema"

func init() {
	Register(MSSQL, func() Flavour { return mssql{} })
}

type mssql struct{}

func (mssql) Family() Family { return MSSQL }

func (mssql) EnumStrategy() EnumStrategy { return EnumNone }

func (mssql) SupportsListColumns() bool { return false }

func (mssql) SupportsIndexColumnLengthPrefix() bool { return false }

func (mssql) SupportsClustering() bool { return true }

func (mssql) SupportsFullTextIndexes() bool { return true }

func (mssql) SupportsIndexAlgorithm(a sqlschema.IndexAlgorithm) bool {
	return a == sqlschema.AlgoBTree
}

func (mssql) AutoIncrementKind() AutoIncrementKind { return AutoIncrementIdentity }

func (mssql) DefaultIndexAlgorithm() sqlschema.IndexAlgorithm { return sqlschema.AlgoBTree }

func (mssql) OperatorClass(sqlschema.IndexAlgorithm, sqlschema.ColumnFamily) string { return "" }
