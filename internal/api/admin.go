package api

import (
	"context"
	"fmt"

	"github.com/torosent/querybench/internal/compare"
	"github.com/torosent/querybench/internal/driver"
	"github.com/torosent/querybench/internal/schema"
)

// DatabaseAdmin runs maintenance through a short-lived handle of one driver.
type DatabaseAdmin struct {
	opener compare.Opener
	driver driver.Type
}

func NewDatabaseAdmin(opener compare.Opener, t driver.Type) *DatabaseAdmin {
	return &DatabaseAdmin{opener: opener, driver: t}
}

func (a *DatabaseAdmin) with(ctx context.Context, fn func(driver.Handle) error) error {
	h, err := a.opener.Open(ctx, a.driver)
	if err != nil {
		return err
	}
	defer h.Close()
	return fn(h)
}

// Migrate creates the benchmark tables and indexes.
func (a *DatabaseAdmin) Migrate(ctx context.Context) error {
	return a.with(ctx, func(h driver.Handle) error {
		return schema.Provision(ctx, h)
	})
}

// Seed clears every benchmark table and reloads the fixture data.
func (a *DatabaseAdmin) Seed(ctx context.Context) (schema.Counts, error) {
	var counts schema.Counts
	err := a.with(ctx, func(h driver.Handle) error {
		var err error
		counts, err = schema.Reset(ctx, h)
		return err
	})
	return counts, err
}

// Ping runs a trivial query.
func (a *DatabaseAdmin) Ping(ctx context.Context) error {
	return a.with(ctx, func(h driver.Handle) error {
		if _, err := h.Exec(ctx, "SELECT 1"); err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		return nil
	})
}
