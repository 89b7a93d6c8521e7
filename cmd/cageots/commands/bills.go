package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var billsAccount *string

func init() {
	billsAccount = billsCmd.Flags().String("account", "", "The account to list, defaults to the configured login.")
	rootCmd.AddCommand(billsCmd)
}

var billsCmd = &cobra.Command{
	Use:   "bills [--account <login>]",
	Short: "Lists the invoices already stored.",
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

		accounts := []string{*billsAccount}
		if *billsAccount == "" {
			accounts, err = store.SourceAccounts(ctx)
			if err != nil {
				return err
			}
		}

		t := newTable()
		t.AppendHeader(table.Row{"Account", "Date", "Amount", "Ref", "File"})
		count := 0
		for _, account := range accounts {
			bills, err := store.ListBills(ctx, account)
			if err != nil {
				return err
			}
			for _, b := range bills {
				t.AppendRow(table.Row{
					account,
					b.Date.Format("2006-01-02"),
					fmt.Sprintf("%.2f %s", b.Amount, b.Currency),
					b.VendorRef,
					store.FilePath(b),
				})
				count++
			}
		}
		t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d bills", count)})
		t.Render()
		return nil
	},
}
