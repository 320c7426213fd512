package catalog

// Standard query names.
const (
	Simple      = "simple"
	Timestamp   = "timestamp"
	CountUsers  = "countUsers"
	RecentPosts = "recentPosts"
	ComplexJoin = "complexJoin"
	Aggregation = "aggregation"
)

// Standard returns the default benchmark catalog.
func Standard() *Catalog {
	return New(
		Query{
			Name:   Simple,
			shared: `SELECT 1 AS result`,
		},
		Query{
			Name:   Timestamp,
			shared: `SELECT NOW() AS server_time`,
		},
		Query{
			Name:     CountUsers,
			UsesData: true,
			shared:   `SELECT COUNT(*) AS count FROM users`,
		},
		Query{
			Name:     RecentPosts,
			UsesData: true,
			shared: `SELECT id, title, created_at
FROM posts
ORDER BY created_at DESC
LIMIT 10`,
		},
		Query{
			Name:     ComplexJoin,
			UsesData: true,
			shared: `SELECT u.id, u.name, u.email, COUNT(p.id) AS post_count
FROM users u
LEFT JOIN posts p ON u.id = p.user_id
GROUP BY u.id, u.name, u.email
HAVING COUNT(p.id) > 0
ORDER BY post_count DESC
LIMIT 5`,
		},
		Query{
			Name:     Aggregation,
			UsesData: true,
			statements: map[Dialect]string{
				DialectPostgres: `SELECT DATE_TRUNC('day', created_at) AS day, COUNT(*) AS post_count
FROM posts
WHERE created_at >= NOW() - INTERVAL '30 days'
GROUP BY day
ORDER BY day DESC`,
				DialectMySQL: `SELECT DATE(created_at) AS day, COUNT(*) AS post_count
FROM posts
WHERE created_at >= DATE_SUB(NOW(), INTERVAL 30 DAY)
GROUP BY day
ORDER BY day DESC`,
			},
		},
	)
}
