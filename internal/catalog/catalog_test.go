package catalog_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/torosent/querybench/internal/catalog"
)

func TestSelectPreservesOrderAndDropsUnknown(t *testing.T) {
	c := catalog.Standard()

	got := catalog.QueryNames(c.Select([]string{"simple", "doesNotExist"}))
	if !reflect.DeepEqual(got, []string{"simple"}) {
		t.Fatalf("Select = %v, want [simple]", got)
	}

	got = catalog.QueryNames(c.Select([]string{"aggregation", "simple", "countUsers"}))
	want := []string{"aggregation", "simple", "countUsers"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Select = %v, want %v", got, want)
	}
}

func TestSelectDefaultsToCatalogOrder(t *testing.T) {
	c := catalog.Standard()
	want := []string{"simple", "timestamp", "countUsers", "recentPosts", "complexJoin", "aggregation"}

	if got := catalog.QueryNames(c.Select(nil)); !reflect.DeepEqual(got, want) {
		t.Fatalf("Select(nil) = %v, want %v", got, want)
	}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestSelectKeepsDuplicates(t *testing.T) {
	c := catalog.Standard()
	got := catalog.QueryNames(c.Select([]string{"simple", "simple"}))
	if len(got) != 2 {
		t.Fatalf("expected duplicate request to be honoured, got %v", got)
	}
}

func TestEveryQueryResolvesForEveryDialect(t *testing.T) {
	c := catalog.Standard()
	for _, q := range c.Select(nil) {
		for _, d := range []catalog.Dialect{catalog.DialectPostgres, catalog.DialectMySQL} {
			if strings.TrimSpace(q.Statement(d)) == "" {
				t.Errorf("query %s has no %s statement", q.Name, d)
			}
		}
	}
}

func TestAggregationIsDialectSpecific(t *testing.T) {
	q, ok := catalog.Standard().Lookup(catalog.Aggregation)
	if !ok {
		t.Fatal("aggregation missing from catalog")
	}
	if !strings.Contains(q.Statement(catalog.DialectPostgres), "DATE_TRUNC") {
		t.Errorf("postgres aggregation should use DATE_TRUNC")
	}
	if !strings.Contains(q.Statement(catalog.DialectMySQL), "DATE_SUB") {
		t.Errorf("mysql aggregation should use DATE_SUB")
	}
}

func TestNeedsData(t *testing.T) {
	c := catalog.Standard()
	if catalog.NeedsData(c.Select([]string{"simple", "timestamp"})) {
		t.Error("constant queries should not need data")
	}
	if !catalog.NeedsData(c.Select([]string{"simple", "countUsers"})) {
		t.Error("countUsers should need data")
	}
}

func TestWithStatementDoesNotShareMaps(t *testing.T) {
	base := catalog.NewQuery("custom", "SELECT 1", false)
	pg := base.WithStatement(catalog.DialectPostgres, "SELECT 2")
	mysql := pg.WithStatement(catalog.DialectMySQL, "SELECT 3")

	if base.Statement(catalog.DialectPostgres) != "SELECT 1" {
		t.Fatalf("base mutated: %q", base.Statement(catalog.DialectPostgres))
	}
	if pg.Statement(catalog.DialectMySQL) != "SELECT 1" {
		t.Fatalf("pg copy picked up mysql override: %q", pg.Statement(catalog.DialectMySQL))
	}
	if mysql.Statement(catalog.DialectPostgres) != "SELECT 2" || mysql.Statement(catalog.DialectMySQL) != "SELECT 3" {
		t.Fatalf("unexpected statements %q / %q", mysql.Statement(catalog.DialectPostgres), mysql.Statement(catalog.DialectMySQL))
	}
}
