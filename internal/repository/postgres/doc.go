// Package postgres implements the service repository interfaces against
// PostgreSQL using plain database/sql and lib/pq.
package postgres
