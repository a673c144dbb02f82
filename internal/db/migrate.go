package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"llm-insurance/internal/db/migrations"
)

// gooseUp permite reemplazar goose.UpContext en tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations aplica las migraciones embebidas sobre la conexion dada.
func RunMigrations(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUp(ctx, conn, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// MigratePool abre un *sql.DB sobre el pool de pgx y aplica las migraciones.
func MigratePool(ctx context.Context, pool *pgxpool.Pool) error {
	conn := stdlib.OpenDBFromPool(pool)
	defer conn.Close()
	return RunMigrations(ctx, conn)
}
