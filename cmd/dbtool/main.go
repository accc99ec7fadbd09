package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/adapters/repositories"
	"sitetrack-service/internal/catalog"
	"sitetrack-service/internal/config"
	"sitetrack-service/internal/platform/db"
	"sitetrack-service/internal/platform/obs"
	"sitetrack-service/internal/services"
)

const usage = `usage: dbtool <command> [flags]

commands:
  init         create tables and indexes
  seed         create tables, then insert catalog routes missing from the store
  create-user  add a user (-email, -name, -role, ...)
  list-users   print users as JSON
`

func main() {
	if !config.LoadDotEnv() {
		logrus.Info("no .env file found (using environment variables)")
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := obs.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(context.Background(), cfg, log, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		log.WithError(err).Fatal("dbtool failed")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "init", "seed", "create-user", "list-users":
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DataSource())
	if err != nil {
		return err
	}
	defer conn.Close()
	store := repositories.NewSQLStore(conn, cfg.DBDriver, log)

	switch cmd {
	case "init":
		return initSchema(ctx, conn, log)
	case "seed":
		return seed(ctx, conn, store, cfg.CatalogPath, log)
	case "create-user":
		return createUser(ctx, store, args, out)
	default:
		return listUsers(ctx, store, out)
	}
}

func initSchema(ctx context.Context, conn *sql.DB, log logrus.FieldLogger) error {
	log.Info("initializing database schema")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info("schema ready")
	return nil
}

func seed(ctx context.Context, conn *sql.DB, store *repositories.SQLStore, catalogPath string, log logrus.FieldLogger) error {
	if err := initSchema(ctx, conn, log); err != nil {
		return err
	}

	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	log.WithField("routes", len(cat.Routes)).Info("seeding catalog routes")
	n, err := store.SeedRoutes(ctx, cat.Routes)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.WithField("inserted", n).Info("seeding complete")
	return nil
}

func createUser(ctx context.Context, store *repositories.SQLStore, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	var in services.NewUser
	fs.StringVar(&in.Email, "email", "", "login email (required)")
	fs.StringVar(&in.Name, "name", "", "display name (required)")
	fs.StringVar(&in.Role, "role", "driver", "driver, admin or supervisor")
	fs.StringVar(&in.Phone, "phone", "", "phone number")
	fs.StringVar(&in.Company, "company", "", "company")
	fs.StringVar(&in.VehicleType, "vehicle-type", "", "vehicle type")
	fs.StringVar(&in.LicensePlate, "license-plate", "", "licence plate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	u, err := services.NewUserService(store).Create(ctx, in)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return writeJSON(out, u)
}

func listUsers(ctx context.Context, store *repositories.SQLStore, out io.Writer) error {
	users, err := services.NewUserService(store).List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return writeJSON(out, users)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
