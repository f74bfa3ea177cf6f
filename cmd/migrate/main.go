package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/invora/invora/internal/config"
	"github.com/invora/invora/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Applies the SQL files under scripts/migrations in lexical order,
// tracking applied files in a schema_migrations table.
func main() {
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	dir := flag.String("dir", "scripts/migrations", "Directory containing .sql migration files")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		logger.Fatalw("Failed to list migration files", "dir", *dir, "error", err)
	}
	if len(files) == 0 {
		logger.Fatalw("No migration files found", "dir", *dir)
	}
	sort.Strings(files)

	if *dryRun {
		for _, file := range files {
			contents, err := os.ReadFile(file)
			if err != nil {
				logger.Fatalw("Failed to read migration", "file", file, "error", err)
			}
			fmt.Printf("-- %s\n%s\n", filepath.Base(file), contents)
		}
		return
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)
	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		logger.Fatalw("Failed to prepare schema_migrations table", "error", err)
	}

	applied := 0
	for _, file := range files {
		name := filepath.Base(file)

		var exists bool
		err := db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name)
		if err != nil {
			logger.Fatalw("Failed to check migration state", "file", name, "error", err)
		}
		if exists {
			continue
		}

		contents, err := os.ReadFile(file)
		if err != nil {
			logger.Fatalw("Failed to read migration", "file", name, "error", err)
		}

		tx, err := db.Beginx()
		if err != nil {
			logger.Fatalw("Failed to begin transaction", "file", name, "error", err)
		}
		if _, err := tx.Exec(string(contents)); err != nil {
			_ = tx.Rollback()
			logger.Fatalw("Migration failed", "file", name, "error", err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback()
			logger.Fatalw("Failed to record migration", "file", name, "error", err)
		}
		if err := tx.Commit(); err != nil {
			logger.Fatalw("Failed to commit migration", "file", name, "error", err)
		}

		logger.Infow("Applied migration", "file", name)
		applied++
	}

	if applied == 0 {
		logger.Info("Database schema is up to date")
	} else {
		logger.Infow("Migration completed successfully", "applied", applied)
	}
}
