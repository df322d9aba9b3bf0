package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Schema returns the DDL statements for the given driver, in order
func Schema(driver Driver) ([]string, error) {
	name := "schema/postgres.sql"
	if driver == DriverSQLite {
		name = "schema/sqlite3.sql"
	}

	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
	}

	var statements []string
	for _, stmt := range strings.Split(string(data), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (c *Client) Migrate(ctx context.Context) error {
	statements, err := Schema(c.driver)
	if err != nil {
		return err
	}

	for i, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}

	c.logger.Info("Database schema applied",
		slog.String("driver", string(c.driver)),
		slog.Int("statements", len(statements)),
	)
	return nil
}
