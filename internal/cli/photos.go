package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/dreamdoor/internal/ingest"
)

func newPhotosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Maintain stored photo sets",
	}

	cmd.AddCommand(newPhotosNormalizeCmd())
	return cmd
}

func newPhotosNormalizeCmd() *cobra.Command {
	var opts ingest.NormalizeOptions

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Rewrite stored photo URLs to the preferred size",
		Long: "Rewrite the photo URLs of stored photo sets to the preferred size, keeping the " +
			"large variant as a fallback. Use --dry-run to list the changes without saving them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhotosNormalize(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "at most this many photo sets")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print changes without saving them")

	return cmd
}

func runPhotosNormalize(cmd *cobra.Command, opts ingest.NormalizeOptions) error {
	svc, closeStore, err := newService(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := svc.NormalizeStoredPhotos(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printNormalizeResult(cmd.OutOrStdout(), res)
	return nil
}

func printNormalizeResult(w io.Writer, res *ingest.NormalizeResult) {
	if !res.DryRun {
		printer.Fprintf(w, "Updated %d photo sets.\n", res.Updated)
		return
	}

	for _, set := range res.Sets {
		fmt.Fprintf(w, "HousePhoto id=%d house_id=%d external_id=%s:\n", set.PhotoSetID, set.HouseID, set.ExternalID)
		for _, c := range set.Changes {
			fmt.Fprintf(w, "  %s -> %s\n", c.Before, c.After)
			if c.Fallback != "" {
				fmt.Fprintf(w, "    fallback: %s\n", c.Fallback)
			}
		}
	}
	printer.Fprintf(w, "Dry run complete. Would update %d records.\n", res.Updated)
}
