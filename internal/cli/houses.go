package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/dreamdoor/internal/house"
)

func newHousesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "houses",
		Short: "Inspect stored houses and import errors",
	}

	cmd.AddCommand(newHousesListCmd(), newHousesErrorsCmd())
	return cmd
}

func newHousesListCmd() *cobra.Command {
	var filter house.HouseFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored houses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHousesList(cmd, filter)
		},
	}

	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum houses to show")
	cmd.Flags().StringVar(&filter.PostalCode, "zip", "", "only houses in this ZIP code")
	cmd.Flags().StringVar(&filter.Geohash, "geohash", "", "only houses whose geohash starts with this prefix")

	return cmd
}

func runHousesList(cmd *cobra.Command, filter house.HouseFilter) error {
	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	houses, err := s.ListHouses(cmd.Context(), house.SourceRealtyInUS, filter)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), houses)
	}
	return printHouseTable(cmd.OutOrStdout(), houses)
}

func newHousesErrorsCmd() *cobra.Command {
	var filter house.ImportErrorFilter

	cmd := &cobra.Command{
		Use:   "errors",
		Short: "List recorded import errors, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHousesErrors(cmd, filter)
		},
	}

	cmd.Flags().StringVar(&filter.ImportType, "type", "", "only errors of this import type (e.g. photos)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum errors to show")

	return cmd
}

func runHousesErrors(cmd *cobra.Command, filter house.ImportErrorFilter) error {
	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	errs, err := s.ListImportErrors(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), errs)
	}
	return printImportErrors(cmd.OutOrStdout(), errs)
}
