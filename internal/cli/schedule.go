package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/dreamdoor/internal/ingest"
)

func newScheduleCmd() *cobra.Command {
	var (
		spec string
		opts ingest.PipelineOptions
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run search and enrichment on a cron schedule",
		Long: "Run a listing search for a ZIP code on a cron schedule, optionally followed by detail " +
			"and photo enrichment. A run still going when the next is due skips that tick. " +
			"Stops on SIGINT or SIGTERM.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd, spec, opts)
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "cron expression, e.g. \"0 */6 * * *\" or \"@hourly\" (required)")
	cmd.Flags().StringVar(&opts.Search.PostalCode, "zip", "", "ZIP code to search (required)")
	cmd.Flags().IntVar(&opts.Search.Limit, "limit", ingest.DefaultSearchLimit, "search page size")
	cmd.Flags().BoolVar(&opts.Detail, "detail", false, "fetch detail documents after each search")
	cmd.Flags().BoolVar(&opts.Photos, "photos", false, "fetch photo sets after each search")
	for _, name := range []string{"cron", "zip"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	return cmd
}

func runSchedule(cmd *cobra.Command, spec string, opts ingest.PipelineOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return schedule(ctx, spec, opts)
}

func schedule(ctx context.Context, spec string, opts ingest.PipelineOptions) error {
	svc, closeStore, err := newService(ctx, true)
	if err != nil {
		return err
	}
	defer closeStore()

	return svc.Schedule(ctx, spec, opts)
}
