package main

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/storekeep/storekeep/internal/catalog"
	"github.com/storekeep/storekeep/internal/domain/product"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var (
	listName     string
	listCategory string
	listSort     string
	listLowStock bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a product (admin)",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a product (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a product (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var productFields = struct {
	name        string
	category    string
	price       string
	stock       int
	description string
	url         string
}{}

func productFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&productFields.name, "name", "", "product name")
	cmd.Flags().StringVar(&productFields.category, "category", "", "product category")
	cmd.Flags().StringVar(&productFields.price, "price", "", "unit price, e.g. 19.99")
	cmd.Flags().IntVar(&productFields.stock, "stock", 0, "units in stock")
	cmd.Flags().StringVar(&productFields.description, "description", "", "product description")
	cmd.Flags().StringVar(&productFields.url, "url", "", "product page URL")
}

func init() {
	listCmd.Flags().StringVar(&listName, "name", "", "case-insensitive name filter")
	listCmd.Flags().StringVar(&listCategory, "category", "", "category filter")
	listCmd.Flags().StringVar(&listSort, "sort", "",
		"sort order: price-asc, price-desc, name-asc, name-desc")
	listCmd.Flags().BoolVar(&listLowStock, "low-stock", false, "only items below the stock threshold")

	productFlags(addCmd)
	productFlags(updateCmd)

	rootCmd.AddCommand(listCmd, addCmd, updateCmd, rmCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	if err := env.manager.Load(cmd.Context()); err != nil {
		return err
	}

	var items []product.Product
	if listLowStock {
		items = env.manager.LowStockItems()
	} else {
		items = env.manager.View(catalog.Query{
			Name:     listName,
			Category: product.Category(listCategory),
			Sort:     catalog.ParseSort(listSort),
		})
	}
	printProducts(items)
	env.printNotes()
	return nil
}

func runAdd(cmd *cobra.Command, _ []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	if err := env.requireAdmin(); err != nil {
		return err
	}
	if err := env.manager.Load(cmd.Context()); err != nil {
		return err
	}

	candidate, err := productFromFlags()
	if err != nil {
		return err
	}

	created, err := env.manager.Add(cmd.Context(), candidate)
	if err != nil {
		return err
	}
	fmt.Println("Added", created.ID)
	env.printNotes()
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	if err := env.requireAdmin(); err != nil {
		return err
	}
	if err := env.manager.Load(cmd.Context()); err != nil {
		return err
	}

	existing, ok := env.manager.Get(args[0])
	if !ok {
		return errors.Wrapf(product.ErrNotFound, "product %q", args[0])
	}

	rec, err := applyFlags(cmd, existing)
	if err != nil {
		return err
	}

	updated, err := env.manager.Update(cmd.Context(), rec)
	if err != nil {
		return err
	}
	fmt.Println("Updated", updated.ID)
	env.printNotes()
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	if err := env.requireAdmin(); err != nil {
		return err
	}
	if err := env.manager.Load(cmd.Context()); err != nil {
		return err
	}

	if err := env.manager.Remove(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("Removed", args[0])
	return nil
}

// productFromFlags builds a new product from the add flags. Validation
// happens in the manager, not here.
func productFromFlags() (product.Product, error) {
	price := decimal.Zero
	if productFields.price != "" {
		var err error
		price, err = decimal.NewFromString(productFields.price)
		if err != nil {
			return product.Product{}, errors.Wrapf(err, "parse price %q", productFields.price)
		}
	}
	return product.Product{
		Name:        productFields.name,
		Category:    product.Category(productFields.category),
		Price:       price,
		Stock:       productFields.stock,
		Description: productFields.description,
		URL:         productFields.url,
	}, nil
}

// applyFlags overlays only the flags the user actually set onto an existing
// record, so `update --stock 4` does not blank the rest.
func applyFlags(cmd *cobra.Command, p product.Product) (product.Product, error) {
	if cmd.Flags().Changed("name") {
		p.Name = productFields.name
	}
	if cmd.Flags().Changed("category") {
		p.Category = product.Category(productFields.category)
	}
	if cmd.Flags().Changed("price") {
		price, err := decimal.NewFromString(productFields.price)
		if err != nil {
			return product.Product{}, errors.Wrapf(err, "parse price %q", productFields.price)
		}
		p.Price = price
	}
	if cmd.Flags().Changed("stock") {
		p.Stock = productFields.stock
	}
	if cmd.Flags().Changed("description") {
		p.Description = productFields.description
	}
	if cmd.Flags().Changed("url") {
		p.URL = productFields.url
	}
	return p, nil
}
