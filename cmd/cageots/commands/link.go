package commands

import (
	"cageots-konnector/lib/banklink"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/titanous/json5"
)

var linkOperations *string
var linkAccount *string
var linkWindowDays *int

func init() {
	linkOperations = linkCmd.Flags().String("operations", "operations.json5", "A json5 array of bank operations ({id, label, date, amount}).")
	linkAccount = linkCmd.Flags().String("account", "", "The account whose bills are linked, defaults to the configured login.")
	linkWindowDays = linkCmd.Flags().Int("window", 15, "How many days a payment may be apart from its invoice.")
	rootCmd.AddCommand(linkCmd)
}

var linkCmd = &cobra.Command{
	Use:   "link --operations <operations.json5> [--account <login>]",
	Short: "Matches stored invoices with the bank operations that paid them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(*configPath, nil)
		if err != nil {
			return err
		}
		account := *linkAccount
		if account == "" {
			account = cfg.Login
		}
		if account == "" {
			return fmt.Errorf("no account to link, pass --account or configure a login")
		}

		contents, err := os.ReadFile(*linkOperations)
		if err != nil {
			return err
		}
		var ops []banklink.Operation
		err = json5.Unmarshal(contents, &ops)
		if err != nil {
			return fmt.Errorf("parse operations: %w", err)
		}

		store, database, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		bills, err := store.ListBills(ctx, account)
		if err != nil {
			return err
		}

		matches := banklink.Link(bills, ops, banklink.Options{
			DateWindow: time.Hour * 24 * time.Duration(*linkWindowDays),
		})

		t := newTable()
		t.AppendHeader(table.Row{"Ref", "Bill date", "Amount", "Operation", "Operation date", "Similarity"})
		for _, m := range matches {
			t.AppendRow(table.Row{
				m.Bill.VendorRef,
				m.Bill.Date.Format("2006-01-02"),
				fmt.Sprintf("%.2f", m.Bill.Amount),
				m.Operation.Label,
				m.Operation.Date.Format("2006-01-02"),
				fmt.Sprintf("%.2f", m.Similarity),
			})
		}
		t.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d/%d linked", len(matches), len(bills))})
		t.Render()
		return nil
	},
}
