// Package threshold evaluates latency assertions against a comparison report.
//
// An assertion reads "aggregate[:query] operator value" with values in
// milliseconds:
//
//	p95 < 250                 every query of every driver
//	median:countUsers <= 40   one query of every driver
//	total_median < 100        a driver's unweighted mean of medians
//	failed_drivers == 0       drivers missing from the report
package threshold

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/torosent/querybench/internal/compare"
	"github.com/torosent/querybench/internal/stats"
)

// Threshold is one parsed assertion.
type Threshold struct {
	Aggregate string
	Query     string // empty applies to every query
	Operator  string
	Value     float64
	Raw       string
}

// Result is the outcome of a threshold for one driver or driver/query pair.
// Run-wide thresholds leave Driver empty.
type Result struct {
	Threshold Threshold
	Driver    string
	Query     string
	Actual    float64
	Pass      bool
	Message   string
}

type scope int

const (
	perQuery scope = iota
	perDriver
	perRun
)

type aggregate struct {
	scope scope
	query func(stats.Summary) float64
	total func(compare.DriverComparison) float64
}

var aggregates = map[string]aggregate{
	"median":         {scope: perQuery, query: func(s stats.Summary) float64 { return s.Median }},
	"mean":           {scope: perQuery, query: func(s stats.Summary) float64 { return s.Mean }},
	"p95":            {scope: perQuery, query: func(s stats.Summary) float64 { return s.P95 }},
	"p99":            {scope: perQuery, query: func(s stats.Summary) float64 { return s.P99 }},
	"min":            {scope: perQuery, query: func(s stats.Summary) float64 { return s.Min }},
	"max":            {scope: perQuery, query: func(s stats.Summary) float64 { return s.Max }},
	"total_median":   {scope: perDriver, total: func(d compare.DriverComparison) float64 { return d.TotalMedian }},
	"total_mean":     {scope: perDriver, total: func(d compare.DriverComparison) float64 { return d.TotalMean }},
	"failed_drivers": {scope: perRun},
}

var aggregateAliases = map[string]string{"avg": "mean"}

const epsilon = 1e-9

var operators = map[string]func(actual, want float64) bool{
	"<":  func(a, w float64) bool { return a < w },
	"<=": func(a, w float64) bool { return a <= w || math.Abs(a-w) < epsilon },
	">":  func(a, w float64) bool { return a > w },
	">=": func(a, w float64) bool { return a >= w || math.Abs(a-w) < epsilon },
	"==": func(a, w float64) bool { return math.Abs(a-w) < epsilon },
}

var pattern = regexp.MustCompile(`^([a-z0-9_]+)(?::([A-Za-z0-9_]+))?\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses one assertion.
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, errors.New("empty threshold string")
	}
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format %q: want aggregate[:query] operator value, e.g. 'p95 < 250'", s)
	}
	t := Threshold{Aggregate: m[1], Query: m[2], Operator: m[3], Raw: s}
	if alias, ok := aggregateAliases[t.Aggregate]; ok {
		t.Aggregate = alias
	}

	agg, ok := aggregates[t.Aggregate]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q (supported: %s)", t.Aggregate, strings.Join(keys(aggregates), ", "))
	}
	if t.Query != "" && agg.scope != perQuery {
		return Threshold{}, fmt.Errorf("aggregate %q does not take a query", t.Aggregate)
	}
	if _, ok := operators[t.Operator]; !ok {
		return Threshold{}, fmt.Errorf("unsupported operator %q (supported: %s)", t.Operator, strings.Join(keys(operators), ", "))
	}
	value, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %w", m[4], err)
	}
	t.Value = value
	return t, nil
}

// ParseMultiple parses every assertion and reports all malformed ones at once.
func ParseMultiple(raw []string) ([]Threshold, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	parsed := make([]Threshold, 0, len(raw))
	var problems []string
	for i, s := range raw {
		t, err := Parse(s)
		if err != nil {
			problems = append(problems, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		parsed = append(parsed, t)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(problems, "; "))
	}
	return parsed, nil
}

// Evaluator checks a fixed set of thresholds against reports.
type Evaluator struct {
	thresholds []Threshold
}

func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks every threshold against every successful driver of report.
// A per-query threshold naming a query a driver did not run fails for it.
func (e *Evaluator) Evaluate(report *compare.Report) []Result {
	if report == nil {
		return nil
	}
	var results []Result
	for _, t := range e.thresholds {
		agg := aggregates[t.Aggregate]
		switch agg.scope {
		case perRun:
			results = append(results, check(t, "", "", float64(len(report.Failures))))
		case perDriver:
			for _, dc := range report.Results {
				results = append(results, check(t, string(dc.Driver), "", agg.total(dc)))
			}
		default:
			for _, dc := range report.Results {
				results = append(results, checkQueries(t, agg, dc)...)
			}
		}
	}
	return results
}

func checkQueries(t Threshold, agg aggregate, dc compare.DriverComparison) []Result {
	name := string(dc.Driver)
	var out []Result
	for _, r := range dc.Results {
		if t.Query == "" || r.QueryName == t.Query {
			out = append(out, check(t, name, r.QueryName, agg.query(r.Summary)))
		}
	}
	if t.Query != "" && len(out) == 0 {
		out = append(out, Result{
			Threshold: t,
			Driver:    name,
			Query:     t.Query,
			Message:   fmt.Sprintf("✗ %s [%s]: query %q was not run", t.Raw, name, t.Query),
		})
	}
	return out
}

func check(t Threshold, driverName, query string, actual float64) Result {
	r := Result{
		Threshold: t,
		Driver:    driverName,
		Query:     query,
		Actual:    actual,
		Pass:      compareValues(actual, t.Operator, t.Value),
	}
	mark := "✓"
	if !r.Pass {
		mark = "✗"
	}
	subject := driverName
	if query != "" {
		subject += "/" + query
	}
	if subject != "" {
		subject = " [" + subject + "]"
	}
	r.Message = fmt.Sprintf("%s %s%s: %.2f %s %.2f", mark, t.Raw, subject, actual, t.Operator, t.Value)
	return r
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func compareValues(actual float64, operator string, expected float64) bool {
	cmp, ok := operators[operator]
	return ok && cmp(actual, expected)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
