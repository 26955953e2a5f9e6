package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"cardbank/internal/common/config"
	"cardbank/internal/common/logging"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const usage = `Usage: migrate [-path dir] [-yes] <command> [arg]
Commands:
  up           Apply every pending accounts migration
  down [n]     Roll back n migrations (default 1)
  force <v>    Mark version v as applied and clean after a failed run
  drop         Drop the accounts schema and every account (needs -yes)
  version      Show the applied migration version
`

func main() {
	source := flag.String("path", "migrations", "directory holding the migration files")
	confirmed := flag.Bool("yes", false, "confirm destructive commands")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	if err := run(cfg.DatabaseURL, *source, *confirmed, flag.Args()); err != nil {
		logging.Error("migrate failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(databaseURL, source string, confirmed bool, args []string) error {
	m, err := migrate.New("file://"+source, databaseURL)
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	defer m.Close()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		logging.Info("accounts schema up to date")

	case "down":
		steps, err := intArg(args, 1)
		if err != nil {
			return err
		}
		if steps == 0 {
			return errors.New("down needs at least one step")
		}
		if err := m.Steps(-steps); err != nil {
			return err
		}
		logging.Info("migrations rolled back", "steps", steps)

	case "force":
		if len(args) < 2 {
			return errors.New("force needs a version")
		}
		version, err := intArg(args, 0)
		if err != nil {
			return err
		}
		if err := m.Force(version); err != nil {
			return err
		}
		logging.Warn("migration version forced", "version", version)

	case "drop":
		if !confirmed {
			return errors.New("drop deletes every account, rerun with -yes")
		}
		if err := m.Drop(); err != nil {
			return err
		}
		logging.Warn("accounts schema dropped")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("No migrations applied")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

// intArg parses the optional numeric argument after the command.
func intArg(args []string, fallback int) (int, error) {
	if len(args) < 2 {
		return fallback, nil
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("expected a non-negative number, got %q", args[1])
	}
	return n, nil
}
