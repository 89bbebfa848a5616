// Package main is the entrypoint for the methodbus server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/methodbus/methodbus/internal/config"
	"github.com/methodbus/methodbus/internal/server"
	"github.com/methodbus/methodbus/pkg/audit"
)

const usage = `Usage: methodbus [command]
       methodbus serve             Start the bus (NATS and HTTP transports, system collection).
       methodbus migrate up        Apply the audit schema.
       methodbus migrate status    Show audit migration status.

Commands:
  serve           (default) Start the method bus server.
  migrate up      Apply audit database migrations only.
  migrate status  Show current migration status.

Environment: NATS_URL (default nats://127.0.0.1:4222), METHODBUS_SUBJECT_PREFIX,
METHODBUS_HTTP_ADDR (or HTTP_PORT, default 8080), METHODBUS_MANIFEST_FILE,
DATABASE_URL (optional; enables invocation auditing), RUN_MIGRATIONS, LOG_LEVEL.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("methodbus migrate: require subcommand (up, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("methodbus migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("methodbus migrate status: %v", err)
			}
		default:
			log.Fatalf("methodbus migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("methodbus: %v", err)
	}
}

func runMigrateUp() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := audit.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := audit.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := audit.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return audit.MigrationStatus(ctx, pool)
}
