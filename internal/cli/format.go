package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/evcraddock/dreamdoor/internal/house"
)

var printer = message.NewPrinter(language.English)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatPrice formats a dollar amount with thousands separators.
func formatPrice(dollars int64) string {
	return printer.Sprintf("%d", dollars)
}

// formatIDs joins house ids as "3, 4, 5".
func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

// printHouseTable prints houses as a formatted table.
func printHouseTable(w io.Writer, houses []*house.House) error {
	if len(houses) == 0 {
		_, err := fmt.Fprintln(w, "No houses found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tEXTERNAL ID\tADDRESS\tZIP\tPRICE\tBED\tBATH\tSQFT\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t-----------\t-------\t---\t-----\t---\t----\t----\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, h := range houses {
		price := "-"
		if h.Price != nil {
			price = "$" + formatPrice(*h.Price)
		}
		beds := "-"
		if h.Beds != nil {
			beds = strconv.FormatInt(*h.Beds, 10)
		}
		baths := "-"
		if h.Baths != nil {
			baths = fmt.Sprintf("%g", *h.Baths)
		}
		sqft := "-"
		if h.Sqft != nil {
			sqft = formatPrice(*h.Sqft)
		}

		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			h.ID, h.ExternalID, truncate(orDash(h.AddressLine), 40), orDash(h.PostalCode),
			price, beds, baths, sqft, orDash(h.Status)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := printer.Fprintf(w, "\nTotal: %d houses\n", len(houses))
	return err
}

// printImportErrors prints recorded import errors, newest first.
func printImportErrors(w io.Writer, errs []*house.ImportError) error {
	if len(errs) == 0 {
		_, err := fmt.Fprintln(w, "No import errors.")
		return err
	}

	for _, e := range errs {
		houseID := "-"
		if e.HouseID != nil {
			houseID = strconv.FormatInt(*e.HouseID, 10)
		}
		if _, err := fmt.Fprintf(w, "[%s] #%d %s house=%s external_id=%s run=%s\n  %s\n\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.ID, e.ImportType, houseID,
			orDash(e.ExternalID), orDash(e.RunID), e.Message); err != nil {
			return err
		}
	}
	return nil
}

// orDash returns s, or "-" when s is empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
