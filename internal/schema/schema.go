// Package schema makes sure the tables read by data-dependent benchmark
// queries exist and hold a small deterministic data set.
package schema

import (
	"context"
	"fmt"

	"github.com/torosent/querybench/internal/catalog"
	"github.com/torosent/querybench/internal/driver"
)

// Execer is the part of a driver handle the guard needs.
type Execer interface {
	Dialect() catalog.Dialect
	Exec(ctx context.Context, statement string) (driver.Result, error)
}

// Outcome describes what Ensure had to do.
type Outcome int

const (
	// Skipped means no selected query reads data tables.
	Skipped Outcome = iota
	// Present means the probe found existing rows.
	Present
	// Seeded means tables existed but were empty and have been seeded.
	Seeded
	// Provisioned means tables were created and seeded.
	Provisioned
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Present:
		return "present"
	case Seeded:
		return "seeded"
	case Provisioned:
		return "provisioned"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ProvisioningError reports a failed schema creation or seed step. Callers
// treat it as non-fatal.
type ProvisioningError struct {
	Stage string
	Err   error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Stage, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

const probeStatement = "SELECT id FROM users LIMIT 1"

// Guard provisions benchmark tables on demand.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// Ensure probes the users table when any of queries needs data. A failed
// probe triggers Provision and Seed; an empty table triggers Seed only.
func (g *Guard) Ensure(ctx context.Context, db Execer, queries []catalog.Query) (Outcome, error) {
	if !catalog.NeedsData(queries) {
		return Skipped, nil
	}

	res, probeErr := db.Exec(ctx, probeStatement)
	if probeErr == nil && res.Rows > 0 {
		return Present, nil
	}

	outcome := Seeded
	if probeErr != nil {
		if err := Provision(ctx, db); err != nil {
			return Provisioned, err
		}
		outcome = Provisioned
	}

	if _, err := Seed(ctx, db); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// Provision creates the benchmark tables and indexes if they do not exist.
func Provision(ctx context.Context, db Execer) error {
	for _, stmt := range ddl(db.Dialect()) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return &ProvisioningError{Stage: "provision", Err: err}
		}
	}
	return nil
}
