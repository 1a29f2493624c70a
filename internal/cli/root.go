// Package cli defines the cobra command tree for dreamdoor.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/dreamdoor/internal/db"
	"github.com/evcraddock/dreamdoor/internal/house"
	"github.com/evcraddock/dreamdoor/internal/ingest"
	"github.com/evcraddock/dreamdoor/internal/logging"
	"github.com/evcraddock/dreamdoor/internal/realty"
)

var (
	flagFormat string
	flagDB     string
	flagTZ     string
	flagDev    bool
)

// realtyBaseURL overrides the API host when set.
var realtyBaseURL string

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dreamdoor",
		Short: "Ingest and enrich house listings",
		Long: "Ingest house listings from the Realty in US API, reconcile them into a local store, " +
			"and enrich each house with its detail document and photo set.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(flagDev)
			return loadDotEnv()
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path or postgres:// DSN (default: ~/.dreamdoor/dreamdoor.db)")
	root.PersistentFlags().StringVar(&flagTZ, "tz", "", "timezone for listing timestamps without an offset (default: UTC)")
	root.PersistentFlags().BoolVar(&flagDev, "dev", false, "human-readable debug logging")

	root.AddCommand(
		newIngestCmd(),
		newPhotosCmd(),
		newHousesCmd(),
		newScheduleCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// store is everything the commands need from a reconciliation store.
type store interface {
	ingest.Store
	ListImportErrors(ctx context.Context, filter house.ImportErrorFilter) ([]*house.ImportError, error)
}

// openStore opens the store named by --db, $DREAMDOOR_DB, the config file
// or the default SQLite path. The returned func closes it.
func openStore(ctx context.Context) (store, func(), error) {
	target, err := getDBTarget()
	if err != nil {
		return nil, nil, err
	}

	if db.IsPostgresDSN(target) {
		pool, err := db.OpenPostgres(ctx, target)
		if err != nil {
			return nil, nil, err
		}
		return house.NewPostgresRepository(pool), pool.Close, nil
	}

	database, err := db.Open(target)
	if err != nil {
		return nil, nil, err
	}
	return house.NewRepository(database), func() { closeDB(database) }, nil
}

// newRealtyClient creates an API client whose calls are logged.
func newRealtyClient() (*realty.Client, error) {
	opts := []realty.Option{realty.WithHTTPClient(&http.Client{
		Timeout:   realty.DefaultTimeout,
		Transport: &logging.Transport{},
	})}
	if realtyBaseURL != "" {
		opts = append(opts, realty.WithBaseURL(realtyBaseURL))
	}
	return realty.NewClient(getAPIKey(), opts...)
}

// newService wires a store and, when needAPI is set, an API client into
// an ingestion service.
func newService(ctx context.Context, needAPI bool) (*ingest.Service, func(), error) {
	loc, err := getLocation()
	if err != nil {
		return nil, nil, err
	}

	var client ingest.Realty
	if needAPI {
		c, err := newRealtyClient()
		if err != nil {
			return nil, nil, err
		}
		client = c
	}

	s, closeStore, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	return ingest.NewService(s, client, ingest.WithLocation(loc)), closeStore, nil
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
