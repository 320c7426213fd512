package schema

import "github.com/torosent/querybench/internal/catalog"

var postgresDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  email VARCHAR(255) UNIQUE NOT NULL,
  name VARCHAR(255),
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS posts (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  user_id UUID REFERENCES users(id) ON DELETE CASCADE,
  slug VARCHAR(255) UNIQUE NOT NULL,
  title VARCHAR(255) NOT NULL,
  content TEXT,
  view_count INTEGER DEFAULT 0,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS comments (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  post_id UUID REFERENCES posts(id) ON DELETE CASCADE,
  user_id UUID REFERENCES users(id) ON DELETE CASCADE,
  slug VARCHAR(255) UNIQUE NOT NULL,
  content TEXT NOT NULL,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS benchmark_results (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  run_id VARCHAR(26),
  driver VARCHAR(50) NOT NULL,
  query_name VARCHAR(100) NOT NULL,
  execution_time_ms DECIMAL(10, 3) NOT NULL,
  sample_count INTEGER NOT NULL,
  median_ms DECIMAL(10, 3),
  p95_ms DECIMAL(10, 3),
  p99_ms DECIMAL(10, 3),
  min_ms DECIMAL(10, 3),
  max_ms DECIMAL(10, 3),
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_user_id ON comments(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_benchmark_results_driver ON benchmark_results(driver)`,
	`CREATE INDEX IF NOT EXISTS idx_benchmark_results_created_at ON benchmark_results(created_at DESC)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
// Foreign keys are omitted for Vitess-backed hosts.
var mysqlDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  email VARCHAR(255) NOT NULL UNIQUE,
  name VARCHAR(255),
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS posts (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  user_id BIGINT,
  slug VARCHAR(255) NOT NULL UNIQUE,
  title VARCHAR(255) NOT NULL,
  content TEXT,
  view_count INT DEFAULT 0,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  INDEX idx_posts_user_id (user_id),
  INDEX idx_posts_created_at (created_at)
)`,
	`CREATE TABLE IF NOT EXISTS comments (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  post_id BIGINT,
  user_id BIGINT,
  slug VARCHAR(255) NOT NULL UNIQUE,
  content TEXT NOT NULL,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  INDEX idx_comments_post_id (post_id),
  INDEX idx_comments_user_id (user_id)
)`,
	`CREATE TABLE IF NOT EXISTS benchmark_results (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  run_id VARCHAR(26),
  driver VARCHAR(50) NOT NULL,
  query_name VARCHAR(100) NOT NULL,
  execution_time_ms DECIMAL(10, 3) NOT NULL,
  sample_count INT NOT NULL,
  median_ms DECIMAL(10, 3),
  p95_ms DECIMAL(10, 3),
  p99_ms DECIMAL(10, 3),
  min_ms DECIMAL(10, 3),
  max_ms DECIMAL(10, 3),
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  INDEX idx_benchmark_results_driver (driver),
  INDEX idx_benchmark_results_created_at (created_at)
)`,
}

func ddl(d catalog.Dialect) []string {
	if d == catalog.DialectMySQL {
		return mysqlDDL
	}
	return postgresDDL
}
