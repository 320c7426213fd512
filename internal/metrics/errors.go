package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/torosent/querybench/internal/driver"
)

// ErrorLabel classifies a sample failure for failure breakdowns and metric
// labels. Server errors keep their SQLSTATE or error number so distinct
// failures stay distinct; anything else falls back to its type name.
func ErrorLabel(err error) string {
	if err == nil {
		return ""
	}
	var (
		pgErr      *pgconn.PgError
		connectErr *pgconn.ConnectError
		myErr      *mysql.MySQLError
		httpErr    *driver.HTTPQueryError
		opErr      *net.OpError
		urlErr     *url.Error
	)
	switch {
	case errors.As(err, &pgErr):
		return "Postgres server error " + pgErr.Code
	case errors.As(err, &myErr):
		return fmt.Sprintf("MySQL server error %d", myErr.Number)
	case errors.As(err, &httpErr):
		if httpErr.Code != "" {
			return "SQL over HTTP error " + httpErr.Code
		}
		return fmt.Sprintf("SQL over HTTP error (HTTP %d)", httpErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "Context deadline exceeded"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	case errors.As(err, &connectErr):
		return "Postgres connect error"
	case errors.As(err, &opErr):
		return "Network error"
	case errors.As(err, &urlErr):
		return "Request URL error"
	}
	return FriendlyErrorName(typeName(innermost(err)))
}

func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

var friendlyAliases = map[string]string{
	"pgconn.PgError":                "Postgres server error",
	"pgconn.ConnectError":           "Postgres connect error",
	"mysql.MySQLError":              "MySQL server error",
	"driver.HTTPQueryError":         "SQL over HTTP error",
	"net.OpError":                   "Network error",
	"url.Error":                     "Request URL error",
	"context.deadlineExceededError": "Context deadline exceeded",
	"errors.errorString":            "Error",
}

// packageRules label whole packages whose error types are all one kind.
var packageRules = []struct {
	pkg, contains, label string
}{
	{"context", "deadline", "Context deadline exceeded"},
	{"pgconn", "error", "Postgres error"},
	{"url", "error", "Request URL error"},
}

// FriendlyErrorName turns a %T type name such as "*runner.SampleError" into
// a readable label such as "Sample Error (runner)".
func FriendlyErrorName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "*")
	if name == "" {
		return "Unknown error"
	}
	if alias, ok := friendlyAliases[name]; ok {
		return alias
	}
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}

	pkg, typ, found := strings.Cut(name, ".")
	if !found {
		pkg, typ = "", name
	}
	pretty := strings.Join(splitWords(typ), " ")
	for _, rule := range packageRules {
		if strings.EqualFold(pkg, rule.pkg) && strings.Contains(strings.ToLower(pretty), rule.contains) {
			return rule.label
		}
	}
	if pkg == "" || pkg == "main" {
		return pretty
	}
	return fmt.Sprintf("%s (%s)", pretty, pkg)
}

// splitWords breaks a Go identifier at case and digit boundaries, keeping
// acronyms such as "TLS" whole.
func splitWords(ident string) []string {
	runes := []rune(ident)
	if len(runes) == 0 {
		return nil
	}
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, r := runes[i-1], runes[i]
		nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		camel := unicode.IsUpper(r) && (unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower))
		digit := unicode.IsDigit(r) && !unicode.IsDigit(prev)
		if camel || digit {
			words = append(words, titleWord(string(runes[start:i])))
			start = i
		}
	}
	return append(words, titleWord(string(runes[start:])))
}

func titleWord(w string) string {
	if strings.ToUpper(w) == w && strings.IndexFunc(w, unicode.IsLetter) >= 0 {
		return w
	}
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func typeName(err error) string {
	return fmt.Sprintf("%T", err)
}
