package commands

import (
	"cageots-konnector/internal/chrono"
	"cageots-konnector/internal/konnector"
	"cageots-konnector/internal/scrapers/cageots"
	"cageots-konnector/internal/telemetry"
	"cageots-konnector/lib/billstore"
	"cageots-konnector/lib/restyutil"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

var dumpHttp *string

func init() {
	dumpHttp = runCmd.Flags().String("dump-http", "", "A directory to write every HTTP exchange to (requires --debug).")
	rootCmd.AddCommand(runCmd)
}

func openStore(ctx context.Context, cfg Config) (billstore.Store, *sql.DB, error) {
	database, err := cfg.Database.OpenDB()
	if err != nil {
		return billstore.Store{}, nil, fmt.Errorf("open db: %w", err)
	}
	store := billstore.NewStore(database, cfg.FilesDir, chrono.NewStandardTime())
	err = store.Migrate(ctx)
	if err != nil {
		database.Close()
		return billstore.Store{}, nil, fmt.Errorf("migrate db: %w", err)
	}
	return store, database, nil
}

var runCmd = &cobra.Command{
	Use:   "run [--config config.json5] [--dump-http <dir>]",
	Short: "Logs in, fetches the order history and saves new invoices.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(*configPath, nil)
		if err != nil {
			return err
		}

		store, database, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		clientOpts := cageots.ClientOptions{
			BaseUrl:           cfg.BaseUrl,
			RequestsPerSecond: cfg.RequestsPerSecond,
			CloudflareBypass:  cfg.CloudflareBypass,
		}
		if *dumpHttp != "" {
			output, err := restyutil.NewFilesystemOutput(*dumpHttp)
			if err != nil {
				return err
			}
			clientOpts.InstrumentOutput = output
		}

		k := konnector.New(konnector.Options{
			Variant: cfg.variant(),
			Client:  clientOpts,
		}, store, telemetry.SlogAPI{})

		slog.Info("running", "login", cfg.Login, "variant", cfg.variant().Name)
		start := time.Now()
		result, err := k.Run(ctx, konnector.Fields{
			Login:      cfg.Login,
			Password:   cfg.Password,
			Parameters: cfg.Parameters,
		})
		if err != nil {
			return err
		}

		slog.Info(
			"done",
			"extracted", result.Extracted,
			"saved", result.Saved,
			"skipped", result.Skipped,
			"seconds", time.Since(start).Seconds(),
		)
		return nil
	},
}
