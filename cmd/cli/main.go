package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bloomcare/bloom-waitlist/config"
	"github.com/bloomcare/bloom-waitlist/internal/hostdb"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/notify"
	sqlfiles "github.com/bloomcare/bloom-waitlist/migrations"
	"github.com/bloomcare/bloom-waitlist/pkg/migrations"
	"github.com/bloomcare/bloom-waitlist/pkg/utils"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		op := "up"
		if len(args) > 1 {
			op = args[1]
		}
		if err := runMigrate(logger, op); err != nil {
			logger.Error("Database migration failed", "op", op, "error", err.Error())
			os.Exit(1)
		}
		return

	case "provision":
		if err := runProvision(logger); err != nil {
			logger.Error("Provisioning failed", "error", err.Error())
			os.Exit(1)
		}
		return

	case "probe":
		write := len(args) > 1 && (args[1] == "--write" || args[1] == "-w")
		if !runProbe(logger, write) {
			os.Exit(1)
		}
		return

	case "generate-sink", "gensink", "gen-sink":
		if err := GenerateSink(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func runMigrate(logger *log.Logger, op string) error {
	db, err := config.NewDatabase(logger, nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close SQL DB after migration", "error", err.Error())
		}
	}()

	cfg := migrations.Config{FS: sqlfiles.FS, Logger: logger}
	if dir := utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", ""); dir != "" {
		cfg = migrations.Config{Dir: dir, Logger: logger}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch op {
	case "up":
		err = migrations.Up(ctx, sqlDB, cfg)
	case "down":
		err = migrations.Down(ctx, sqlDB, cfg)
	case "version":
		version, dirty, ok, verr := migrations.Version(ctx, sqlDB, cfg)
		if verr == nil {
			logger.Info("Schema version", "version", version, "dirty", dirty, "applied", ok)
		}
		err = verr
	default:
		return fmt.Errorf("unknown migrate operation %q", op)
	}
	if err != nil {
		return err
	}

	logger.Info("Database migrations completed", "op", op)
	return nil
}

// hostedClient builds the same hosted database client the server would use.
func hostedClient(logger *log.Logger) (hostdb.Client, []string) {
	db := config.NewDatabaseOrNil(logger, nil)
	return config.NewHostedDBClient(logger, config.HostedDBSettings(), db)
}

func runProvision(logger *log.Logger) error {
	ddl, err := sqlfiles.UpSQL()
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	client, _ := hostedClient(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := hostdb.NewProvisioner(client, logger, "", ddl).Provision(ctx)
	printJSON(result)
	if err != nil {
		return err
	}

	logger.Info("Hosted waitlist table is usable", "steps", len(result.Steps))
	return nil
}

func runProbe(logger *log.Logger, write bool) bool {
	sinkCfg, err := config.LoadSinkConfig(logger)
	if err != nil {
		logger.Error("Invalid sink configuration", "error", err.Error())
		return false
	}

	client, missing := hostedClient(logger)
	adapter := hostdb.NewAdapter(client, notify.NewLogNotifier(logger), logger, hostdb.AdapterConfig{
		Timeout: sinkCfg.ConnectionTestTimeout,
		Missing: missing,
	})

	report := adapter.TestConnection(context.Background(), write)
	printJSON(report)
	return report.OK()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate [up|down|version]  Apply, roll back or inspect the Postgres schema")
	fmt.Println("  provision                  Create the hosted waitlist table through the REST API")
	fmt.Println("  probe [--write]            Test the hosted database connection, optionally with a write")
	fmt.Println("  generate-sink              Interactively scaffold a new capture sink")
}
