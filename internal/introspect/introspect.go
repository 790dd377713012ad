// Package introspect defines the interface for reading the current
// schema out of a live database. Implementations return the
// sqlschema.Schema describing what actually exists, which the differ
// compares against a calculated schema.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"morph/internal/flavour"
	"morph/internal/sqlschema"
)

// Introspecter reads the schema of a live database.
type Introspecter interface {
	Introspect(ctx context.Context, db *sql.DB) (*sqlschema.Schema, error)
}

var (
	registry = make(map[flavour.Family]func() Introspecter)
	mu       sync.RWMutex
)

// Register installs a constructor for a family. Called from init
// functions of the per-family packages.
func Register(family flavour.Family, fn func() Introspecter) {
	mu.Lock()
	defer mu.Unlock()
	registry[family] = fn
}

// New returns the introspecter for a family. The family's package must
// be imported for its init function to have registered it.
func New(family flavour.Family) (Introspecter, error) {
	mu.RLock()
	fn, ok := registry[family]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no introspecter registered for database family %q", family)
	}

	return fn(), nil
}
