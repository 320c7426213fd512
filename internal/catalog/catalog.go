// Package catalog defines the fixed set of benchmark queries.
package catalog

import "strings"

// Dialect identifies the SQL flavour a driver speaks.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// Query is a named benchmark query. Statements are keyed by dialect; the
// shared statement is used for dialects without a dedicated variant.
type Query struct {
	Name string
	// UsesData reports whether the query reads tables that must be provisioned.
	UsesData   bool
	shared     string
	statements map[Dialect]string
}

// NewQuery returns a query that runs statement on every dialect.
func NewQuery(name, statement string, usesData bool) Query {
	return Query{Name: name, UsesData: usesData, shared: statement}
}

// WithStatement returns a copy of q that runs statement on d.
func (q Query) WithStatement(d Dialect, statement string) Query {
	statements := make(map[Dialect]string, len(q.statements)+1)
	for k, v := range q.statements {
		statements[k] = v
	}
	statements[d] = statement
	q.statements = statements
	return q
}

// Statement returns the query text for d.
func (q Query) Statement(d Dialect) string {
	if stmt, ok := q.statements[d]; ok {
		return stmt
	}
	return q.shared
}

// Catalog is an ordered, immutable registry of queries.
type Catalog struct {
	queries []Query
	byName  map[string]int
}

// New builds a catalog from queries in the given order. Later duplicates of a
// name are ignored.
func New(queries ...Query) *Catalog {
	c := &Catalog{byName: make(map[string]int, len(queries))}
	for _, q := range queries {
		if _, ok := c.byName[q.Name]; ok {
			continue
		}
		c.byName[q.Name] = len(c.queries)
		c.queries = append(c.queries, q)
	}
	return c
}

// Names lists query names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.queries))
	for i, q := range c.queries {
		names[i] = q.Name
	}
	return names
}

// Lookup returns the query registered under name.
func (c *Catalog) Lookup(name string) (Query, bool) {
	idx, ok := c.byName[strings.TrimSpace(name)]
	if !ok {
		return Query{}, false
	}
	return c.queries[idx], true
}

// Select returns the catalog entries for names, preserving the caller's
// order. Unknown names are dropped. An empty names list selects the whole
// catalog in catalog order.
func (c *Catalog) Select(names []string) []Query {
	if len(names) == 0 {
		return append([]Query(nil), c.queries...)
	}
	selected := make([]Query, 0, len(names))
	for _, name := range names {
		if q, ok := c.Lookup(name); ok {
			selected = append(selected, q)
		}
	}
	return selected
}

// NeedsData reports whether any of queries reads provisioned tables.
func NeedsData(queries []Query) bool {
	for _, q := range queries {
		if q.UsesData {
			return true
		}
	}
	return false
}

// QueryNames returns the names of queries in order.
func QueryNames(queries []Query) []string {
	names := make([]string, len(queries))
	for i, q := range queries {
		names[i] = q.Name
	}
	return names
}
