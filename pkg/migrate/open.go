package migrate

import (
	"context"
	"database/sql"
	"fmt"

	// goose runs on lib/pq, outside the gorm pgx pool
	_ "github.com/lib/pq"
)

// OpenPostgres opens the dedicated migration connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping migration connection: %w", err)
	}
	return conn, nil
}
