package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/repository/postgres"
)

func main() {
	var migrationsPath string
	flag.StringVar(&migrationsPath, "path", "migrations", "Path to migrations directory")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		logger.Fatal("Failed to create migration driver", zap.Error(err))
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), "postgres", driver)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if len(args) < 2 {
			printUsage()
			os.Exit(1)
		}
		version, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			logger.Fatal("Invalid version", zap.String("version", args[1]))
		}
		err = m.Force(version)
	case "version":
		version, dirty, vErr := m.Version()
		if vErr != nil && vErr != migrate.ErrNilVersion {
			logger.Fatal("Failed to read version", zap.Error(vErr))
		}
		fmt.Printf("version=%d dirty=%v\n", version, dirty)
		return
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil && err != migrate.ErrNoChange {
		logger.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
	logger.Info("Migration complete", zap.String("command", command))
}

func printUsage() {
	fmt.Println("Usage: migrate [-path migrations] <command>")
	fmt.Println("Commands:")
	fmt.Println("  up             apply all pending migrations")
	fmt.Println("  down           roll back one migration")
	fmt.Println("  force <ver>    set version without running migrations")
	fmt.Println("  version        print current version")
}
