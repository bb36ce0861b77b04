package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cchai186/commodity-price-tracker/internal/quotes"
)

var quotesCmd = &cobra.Command{
	Use:   "quotes [category]",
	Short: "Show the most recently fetched quotes.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := apiClient()
		if err != nil {
			return err
		}

		var reports []quotes.CategoryQuotes
		if len(args) == 1 {
			cq, err := client.GetQuotes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reports = []quotes.CategoryQuotes{*cq}
		} else {
			list, err := client.ListQuotes(cmd.Context())
			if err != nil {
				return err
			}
			reports = list.Categories
		}

		if len(reports) == 0 {
			fmt.Println("No cached quotes. Dispatch a run first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tLABEL\tTICKER\tPRICE")
		for _, report := range reports {
			for _, q := range report.Quotes {
				price := "N/A"
				if !q.Missing {
					price = strconv.FormatFloat(q.Price, 'f', -1, 64)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", report.Category, q.Label, q.Ticker, price)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}

		for _, report := range reports {
			if report.Commentary != "" {
				fmt.Printf("\n%s: %s\n", report.Category, report.Commentary)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quotesCmd)
}
