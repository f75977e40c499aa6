// Command vacademyctl is the operator CLI for a Vacademy database: it
// migrates and seeds it, previews lead tables, and manages the field
// registry and asset library without going through the HTTP API.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vacademy/internal/adapters/storage"
	assetStore "vacademy/internal/adapters/storage/asset"
	campaignStore "vacademy/internal/adapters/storage/campaign"
	courseStore "vacademy/internal/adapters/storage/course"
	customFieldStore "vacademy/internal/adapters/storage/customfield"
	templateStore "vacademy/internal/adapters/storage/template"
	"vacademy/internal/platform/config"
	"vacademy/internal/platform/logging"
)

var (
	// dbPath overrides VACADEMY_DB_PATH when set.
	dbPath string
	// configDir is where config/.env.<env> is looked up.
	configDir string
	verbose   bool

	// now and newID are swapped in tests.
	now   = time.Now
	newID = func() string { return uuid.New().String() }
)

var rootCmd = &cobra.Command{
	Use:           "vacademyctl",
	Short:         "Operate a Vacademy database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default from VACADEMY_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing config/.env.<env>")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(migrateCmd, seedCmd, columnsCmd, fieldsCmd, assetsCmd, leadsCmd, uploadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app bundles the stores one command invocation works with.
type app struct {
	db        *sql.DB
	log       *zap.SugaredLogger
	restore   func()
	courses   *courseStore.SQLiteStore
	fields    *customFieldStore.SQLiteStore
	campaigns *campaignStore.SQLiteStore
	leads     *campaignStore.LeadSQLiteStore
	templates *templateStore.SQLiteStore
	assets    *assetStore.SQLiteStore
}

// openApp resolves config, opens and migrates the database and builds the
// stores. Callers must Close the app.
func openApp() (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logging.New(cfg.Env, level)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := storage.InitDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return &app{
		db:        db,
		log:       log,
		restore:   logging.Install(log),
		courses:   courseStore.NewSQLiteStore(db),
		fields:    customFieldStore.NewSQLiteStore(db),
		campaigns: campaignStore.NewSQLiteStore(db),
		leads:     campaignStore.NewLeadSQLiteStore(db),
		templates: templateStore.NewSQLiteStore(db),
		assets:    assetStore.NewSQLiteStore(db),
	}, nil
}

func (a *app) Close() error {
	a.restore()
	_ = a.log.Sync()
	return a.db.Close()
}
