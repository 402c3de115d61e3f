package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"goflare.io/storefront/catalog"
	"goflare.io/storefront/models"
)

var productsCategory string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample products into an empty catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := app.shop.SeedSampleProducts(cmd.Context())
		if err != nil {
			return err
		}
		if created == 0 {
			fmt.Println("Catalog already has products; nothing seeded.")
			return nil
		}
		fmt.Printf("Seeded %d products.\n", created)
		return nil
	},
}

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show featured products and new arrivals",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := app.catalog.Home(cmd.Context())
		if err != nil {
			return err
		}
		if done, err := printJSON(home); done {
			return err
		}

		fmt.Println("Featured")
		printProducts(home.Featured)
		fmt.Println("\nNew arrivals")
		printProducts(home.NewArrivals)
		return nil
	},
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List products, optionally within one category",
	RunE: func(cmd *cobra.Command, args []string) error {
		products, err := app.catalog.ByCategory(cmd.Context(), productsCategory)
		if err != nil {
			return err
		}
		return renderProducts(products)
	},
}

var productCmd = &cobra.Command{
	Use:   "product <id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		product, err := app.catalog.Product(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if done, err := printJSON(product); done {
			return err
		}

		fmt.Printf("%s  $%.2f\n", product.Name, product.Price)
		fmt.Printf("Category: %s  In stock: %d\n", product.Category, product.Stock)
		if product.Description != "" {
			fmt.Println(product.Description)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search product names, descriptions and categories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		products, err := app.catalog.Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderProducts(products)
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := app.catalog.Categories(cmd.Context())
		if err != nil {
			return err
		}
		if done, err := printJSON(categories); done {
			return err
		}
		for _, c := range categories {
			fmt.Println(c)
		}
		return nil
	},
}

func init() {
	productsCmd.Flags().StringVar(&productsCategory, "category", catalog.AllCategories, "Only list this category")
}

func renderProducts(products []*models.Product) error {
	if done, err := printJSON(products); done {
		return err
	}
	if len(products) == 0 {
		fmt.Println("No products found.")
		return nil
	}
	printProducts(products)
	return nil
}

func printProducts(products []*models.Product) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t%d\n", p.ID, p.Name, p.Category, p.Price, p.Stock)
	}
	_ = w.Flush()
}
