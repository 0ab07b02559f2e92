package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"

	"sentinel-ehs/core/utils"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// ApplyMigrations brings the schema up to date using the embedded goose
// migration set. Safe to call on every start.
func ApplyMigrations(ctx context.Context, db *sql.DB, driver string, logger *utils.Logger) error {
	dialect := "sqlite3"
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "pgx":
		dialect = "postgres"
	}
	goose.SetBaseFS(embeddedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err == nil {
		logger.Printf("schema at migration version %d", version)
	}
	return nil
}
