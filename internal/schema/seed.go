package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/torosent/querybench/internal/catalog"
)

type seedUser struct {
	Email string
	Name  string
}

type seedPost struct {
	Slug    string
	Title   string
	Content string
}

var seedUsers = []seedUser{
	{"alice@example.com", "Alice Johnson"},
	{"bob@example.com", "Bob Smith"},
	{"charlie@example.com", "Charlie Brown"},
	{"diana@example.com", "Diana Prince"},
	{"edward@example.com", "Edward Norton"},
}

var seedPosts = []seedPost{
	{"getting-started-with-nextjs", "Getting Started with Next.js", "Next.js is a powerful React framework..."},
	{"understanding-typescript", "Understanding TypeScript", "TypeScript adds type safety to JavaScript..."},
	{"database-performance-tips", "Database Performance Tips", "Optimizing database queries is crucial..."},
}

var seedComments = []string{
	"Great article! Very helpful.",
	"Thanks for sharing this information.",
}

// Counts reports the number of rows in the seeded tables.
type Counts struct {
	Users    int `json:"users"`
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
}

// Seed inserts the fixture rows. Rows already present (matched by email or
// slug) are left untouched, so Seed can run repeatedly.
func Seed(ctx context.Context, db Execer) (Counts, error) {
	for _, stmt := range seedStatements(db.Dialect()) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return Counts{}, &ProvisioningError{Stage: "seed", Err: err}
		}
	}
	return count(ctx, db)
}

// Reset deletes all benchmark rows, including stored results, then seeds.
func Reset(ctx context.Context, db Execer) (Counts, error) {
	for _, table := range []string{"comments", "posts", "users", "benchmark_results"} {
		if _, err := db.Exec(ctx, "DELETE FROM "+table); err != nil {
			return Counts{}, &ProvisioningError{Stage: "reset", Err: err}
		}
	}
	return Seed(ctx, db)
}

func count(ctx context.Context, db Execer) (Counts, error) {
	var counts Counts
	targets := []struct {
		table string
		dst   *int
	}{
		{"users", &counts.Users},
		{"posts", &counts.Posts},
		{"comments", &counts.Comments},
	}
	for _, target := range targets {
		res, err := db.Exec(ctx, "SELECT id FROM "+target.table)
		if err != nil {
			return Counts{}, &ProvisioningError{Stage: "count", Err: err}
		}
		*target.dst = res.Rows
	}
	return counts, nil
}

func seedStatements(d catalog.Dialect) []string {
	insert := func(table, columns, source, conflict string) string {
		if d == catalog.DialectMySQL {
			return fmt.Sprintf("INSERT IGNORE INTO %s (%s) %s", table, columns, source)
		}
		return fmt.Sprintf("INSERT INTO %s (%s) %s ON CONFLICT (%s) DO NOTHING", table, columns, source, conflict)
	}

	values := make([]string, len(seedUsers))
	for i, u := range seedUsers {
		values[i] = fmt.Sprintf("(%s, %s)", quote(u.Email), quote(u.Name))
	}
	stmts := []string{insert("users", "email, name", "VALUES "+strings.Join(values, ", "), "email")}

	for _, u := range seedUsers {
		for _, p := range seedPosts {
			source := fmt.Sprintf("SELECT id, %s, %s, %s FROM users WHERE email = %s",
				quote(postSlug(u, p)), quote(p.Title), quote(p.Content), quote(u.Email))
			stmts = append(stmts, insert("posts", "user_id, slug, title, content", source, "slug"))
		}
	}

	// Each post's comments are written by the next user in the list.
	for i, u := range seedUsers {
		author := seedUsers[(i+1)%len(seedUsers)]
		for _, p := range seedPosts {
			slug := postSlug(u, p)
			for j, content := range seedComments {
				source := fmt.Sprintf(
					"SELECT p.id, u.id, %s, %s FROM posts p, users u WHERE p.slug = %s AND u.email = %s",
					quote(fmt.Sprintf("%s-comment-%d", slug, j+1)), quote(content), quote(slug), quote(author.Email))
				stmts = append(stmts, insert("comments", "post_id, user_id, slug, content", source, "slug"))
			}
		}
	}
	return stmts
}

func postSlug(u seedUser, p seedPost) string {
	local, _, _ := strings.Cut(u.Email, "@")
	return local + "-" + p.Slug
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
