package commands

import (
	"cageots-konnector/internal/scrapers/cageots"
	"cageots-konnector/internal/telemetry"
	"fmt"
	"net/url"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var parseVariant *string
var parseBaseUrl *string

func init() {
	parseVariant = parseCmd.Flags().String("variant", "current", "The accepted order statuses: current or legacy.")
	parseBaseUrl = parseCmd.Flags().String("base-url", cageots.DEFAULT_BASE_URL+"/historique-des-commandes", "The url relative invoice links are resolved against.")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <order-history.html> [--variant current|legacy]",
	Short: "Extracts the invoices of a saved order history page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		variant, ok := cageots.VariantByName(*parseVariant)
		if !ok {
			return fmt.Errorf("unknown variant %q", *parseVariant)
		}
		pageUrl, err := url.Parse(*parseBaseUrl)
		if err != nil {
			return fmt.Errorf("parse base url: %w", err)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		doc, err := goquery.NewDocumentFromReader(f)
		if err != nil {
			return fmt.Errorf("parse html: %w", err)
		}

		extractor := cageots.NewExtractor(cageots.ExtractorOptions{
			Variant: variant,
			PageUrl: pageUrl,
		}, telemetry.SlogAPI{})
		records := extractor.Extract(doc)

		t := newTable()
		t.AppendHeader(table.Row{"Date", "Amount", "Ref", "Filename", "Url"})
		for _, r := range records {
			t.AppendRow(table.Row{
				r.Date.Format("2006-01-02 15:04:05"),
				cageots.FormatAmount(r.Amount) + " " + r.Currency,
				r.VendorRef,
				r.Filename,
				r.FileUrl,
			})
		}
		t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d invoices", len(records)), ""})
		t.Render()
		return nil
	},
}
