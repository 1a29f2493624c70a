package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/dreamdoor/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch listings and enrich stored houses",
	}

	cmd.AddCommand(
		newIngestSearchCmd(),
		newIngestDetailCmd(),
		newIngestPhotosCmd(),
	)

	return cmd
}

func newIngestSearchCmd() *cobra.Command {
	var opts ingest.SearchOptions

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Fetch one page of listings for a ZIP code",
		Long:  "Fetch one page of for-sale listings for a ZIP code and create or update a house for each.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngestSearch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.PostalCode, "zip", "", "ZIP code to search (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", ingest.DefaultSearchLimit, "page size")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "page offset")
	if err := cmd.MarkFlagRequired("zip"); err != nil {
		panic(err)
	}

	return cmd
}

func runIngestSearch(cmd *cobra.Command, opts ingest.SearchOptions) error {
	svc, closeStore, err := newService(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := svc.Search(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printSearchResult(cmd.OutOrStdout(), res)
	return nil
}

func printSearchResult(w io.Writer, res *ingest.SearchResult) {
	if res.Fetched == 0 {
		fmt.Fprintln(w, "No listings found.")
		return
	}
	printer.Fprintf(w, "Fetched %d listings from API.\n", res.Fetched)
	printer.Fprintf(w, "Ingested %d listings (created=%d, updated=%d, unchanged=%d, skipped=%d).\n",
		res.Created+res.Updated+res.Unchanged, res.Created, res.Updated, res.Unchanged, res.Skipped)
	if res.Created+res.Updated == 0 {
		fmt.Fprintln(w, "No records were created or updated.")
	}
}

func newIngestDetailCmd() *cobra.Command {
	var sel ingest.Selection

	cmd := &cobra.Command{
		Use:   "detail",
		Short: "Fetch and store the detail document of each house",
		Long: "Fetch the detail document of each stored house and save it. " +
			"A failed fetch is logged and the job moves on to the next house.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(cmd, "detail", sel)
		},
	}

	addSelectionFlags(cmd, &sel)
	return cmd
}

func newIngestPhotosCmd() *cobra.Command {
	var sel ingest.Selection

	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Fetch and store the photo set of each house",
		Long: "Fetch the photo list of each stored house, rewrite photo URLs to the preferred size and save it. " +
			"The first failed fetch is recorded as an import error for every remaining house and the job stops.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(cmd, "photos", sel)
		},
	}

	addSelectionFlags(cmd, &sel)
	return cmd
}

func addSelectionFlags(cmd *cobra.Command, sel *ingest.Selection) {
	cmd.Flags().Int64Var(&sel.HouseID, "house-id", 0, "only this house")
	cmd.Flags().IntVar(&sel.Limit, "limit", 0, "at most this many houses")
}

func runEnrich(cmd *cobra.Command, kind string, sel ingest.Selection) error {
	svc, closeStore, err := newService(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer closeStore()

	run := svc.Detail
	if kind == "photos" {
		run = svc.Photos
	}

	res, err := run(cmd.Context(), sel)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printEnrichResult(cmd.OutOrStdout(), kind, res)
	return nil
}

func printEnrichResult(w io.Writer, kind string, res *ingest.Result) {
	total := res.Created + res.Updated
	if total == 0 && res.Errors == 0 && !res.Halted {
		fmt.Fprintln(w, "No houses found.")
		return
	}
	printer.Fprintf(w, "Fetched %s for %d houses (created=%d, updated=%d, errors=%d).\n",
		kind, total, res.Created, res.Updated, res.Errors)
	if res.Halted {
		fmt.Fprintf(w, "Import halted. Remaining house IDs: %s\n", formatIDs(res.Remaining))
	}
	if res.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", res.RunID)
	}
}
