package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/storekeep/storekeep/internal/dashboard"
	"github.com/storekeep/storekeep/internal/domain/product"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show catalog summary metrics",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	if err := env.manager.Load(cmd.Context()); err != nil {
		return err
	}

	s := dashboard.Summarize(env.manager.Items())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Products\t%d\n", s.Products)
	fmt.Fprintf(w, "Stock units\t%d\n", s.StockUnits)
	fmt.Fprintf(w, "Inventory value\t$%s\n", s.InventoryValue.StringFixed(2))
	fmt.Fprintf(w, "Low stock items\t%d\n", s.LowStock)
	fmt.Fprintf(w, "Mean price\t$%.2f\n", s.MeanPrice)
	fmt.Fprintf(w, "Median price\t$%.2f\n", s.MedianPrice)

	categories := make([]string, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Fprintf(w, "  %s\t%d\n", c, s.ByCategory[product.Category(c)])
	}
	_ = w.Flush()

	env.printNotes()
	return nil
}
