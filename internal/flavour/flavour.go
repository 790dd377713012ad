// Package flavour exposes per-database capability flags and projection
// knobs consumed by schema calculation. The calculator branches on
// capability queries, never on a database name, so supporting a new
// target means implementing Flavour here and registering it.
package flavour

import (
	"fmt"
	"sync"

	"morph/internal/sqlschema"
)

// Family identifies a supported database family.
type Family string

const (
	Postgres Family = "postgres"
	MySQL    Family = "mysql"
	SQLite   Family = "sqlite"
	MSSQL    Family = "mssql"
)

// Families returns all supported family values.
func Families() []Family {
	return []Family{Postgres, MySQL, SQLite, MSSQL}
}

// EnumStrategy is how a family materializes declared enums. This is a
// tagged choice rather than a boolean because the strategies differ
// qualitatively, not just in availability.
type EnumStrategy string

const (
	// EnumNative emits one SQL enum per declared enum (Postgres).
	EnumNative EnumStrategy = "native"
	// EnumPerUsage emits one synthetic enum per usage site, named
	// {table}_{column}, so each inline enum can be altered
	// independently (MySQL).
	EnumPerUsage EnumStrategy = "per_usage"
	// EnumNone stores enum fields as plain string columns; the value
	// range is enforced at the application layer (SQLite, MSSQL).
	EnumNone EnumStrategy = "none"
)

// AutoIncrementKind is the mechanism a family uses for
// database-assigned incrementing values.
type AutoIncrementKind string

const (
	// AutoIncrementSequence backs the column with a sequence.
	AutoIncrementSequence AutoIncrementKind = "sequence"
	// AutoIncrementIdentity uses an identity column.
	AutoIncrementIdentity AutoIncrementKind = "identity"
	// AutoIncrementColumn uses a column attribute (AUTO_INCREMENT,
	// AUTOINCREMENT).
	AutoIncrementColumn AutoIncrementKind = "column"
)

// Flavour answers the capability and projection questions schema
// calculation asks. Implementations are immutable value objects,
// constructed once per target database and shared by reference.
type Flavour interface {
	Family() Family

	EnumStrategy() EnumStrategy
	// SupportsListColumns reports whether scalar list fields project to
	// a native list column.
	SupportsListColumns() bool
	SupportsIndexColumnLengthPrefix() bool
	SupportsClustering() bool
	SupportsFullTextIndexes() bool
	SupportsIndexAlgorithm(sqlschema.IndexAlgorithm) bool

	AutoIncrementKind() AutoIncrementKind
	// DefaultIndexAlgorithm is the access method used when none is
	// requested.
	DefaultIndexAlgorithm() sqlschema.IndexAlgorithm
	// OperatorClass maps an index algorithm and column family to the
	// operator class required for the index, or empty when none is
	// needed.
	OperatorClass(sqlschema.IndexAlgorithm, sqlschema.ColumnFamily) string
}

var (
	registry = make(map[Family]func() Flavour)
	mu       sync.RWMutex
)

// Register installs a constructor for a family. Called from init
// functions of the per-family files.
func Register(f Family, fn func() Flavour) {
	mu.Lock()
	defer mu.Unlock()
	registry[f] = fn
}

// New returns the flavour for a family.
func New(f Family) (Flavour, error) {
	mu.RLock()
	fn, ok := registry[f]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported database family %q", f)
	}

	return fn(), nil
}
