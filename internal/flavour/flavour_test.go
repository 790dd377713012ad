package flavour

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morph/internal/sqlschema"
)

func TestRegistryCoversAllFamilies(t *testing.T) {
	for _, family := range Families() {
		fl, err := New(family)
		require.NoError(t, err, "family %s", family)
		assert.Equal(t, family, fl.Family())
	}
}

func TestUnknownFamily(t *testing.T) {
	_, err := New("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database family")
}

func TestEnumStrategies(t *testing.T) {
	tests := []struct {
		family   Family
		strategy EnumStrategy
	}{
		{Postgres, EnumNative},
		{MySQL, EnumPerUsage},
		{SQLite, EnumNone},
		{MSSQL, EnumNone},
	}

	for _, tt := range tests {
		fl, err := New(tt.family)
		require.NoError(t, err)
		assert.Equal(t, tt.strategy, fl.EnumStrategy(), "family %s", tt.family)
	}
}

func TestAutoIncrementKinds(t *testing.T) {
	tests := []struct {
		family Family
		kind   AutoIncrementKind
	}{
		{Postgres, AutoIncrementSequence},
		{MySQL, AutoIncrementColumn},
		{SQLite, AutoIncrementColumn},
		{MSSQL, AutoIncrementIdentity},
	}

	for _, tt := range tests {
		fl, err := New(tt.family)
		require.NoError(t, err)
		assert.Equal(t, tt.kind, fl.AutoIncrementKind(), "family %s", tt.family)
	}
}

func TestIndexAlgorithmSupport(t *testing.T) {
	pg, err := New(Postgres)
	require.NoError(t, err)
	for _, algo := range []sqlschema.IndexAlgorithm{
		sqlschema.AlgoBTree, sqlschema.AlgoHash, sqlschema.AlgoGin,
		sqlschema.AlgoGist, sqlschema.AlgoSpGist, sqlschema.AlgoBrin,
	} {
		assert.True(t, pg.SupportsIndexAlgorithm(algo), "postgres %s", algo)
	}

	my, err := New(MySQL)
	require.NoError(t, err)
	assert.True(t, my.SupportsIndexAlgorithm(sqlschema.AlgoBTree))
	assert.True(t, my.SupportsIndexAlgorithm(sqlschema.AlgoHash))
	assert.False(t, my.SupportsIndexAlgorithm(sqlschema.AlgoGin))

	lite, err := New(SQLite)
	require.NoError(t, err)
	assert.True(t, lite.SupportsIndexAlgorithm(sqlschema.AlgoBTree))
	assert.False(t, lite.SupportsIndexAlgorithm(sqlschema.AlgoHash))
}

func TestListColumnSupport(t *testing.T) {
	for _, tt := range []struct {
		family Family
		want   bool
	}{
		{Postgres, true},
		{MySQL, false},
		{SQLite, false},
		{MSSQL, false},
	} {
		fl, err := New(tt.family)
		require.NoError(t, err)
		assert.Equal(t, tt.want, fl.SupportsListColumns(), "family %s", tt.family)
	}
}

func TestOperatorClasses(t *testing.T) {
	pg, err := New(Postgres)
	require.NoError(t, err)

	assert.Equal(t, "jsonb_ops", pg.OperatorClass(sqlschema.AlgoGin, sqlschema.FamilyJSON))
	assert.Empty(t, pg.OperatorClass(sqlschema.AlgoBTree, sqlschema.FamilyJSON))

	my, err := New(MySQL)
	require.NoError(t, err)
	assert.Empty(t, my.OperatorClass(sqlschema.AlgoBTree, sqlschema.FamilyString))
}
