package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

var productInput models.Product

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage products and orders",
}

var adminProductCmd = &cobra.Command{
	Use:   "product",
	Short: "Create, update or delete products",
}

var adminProductAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a product",
	RunE: func(cmd *cobra.Command, args []string) error {
		product := productInput
		if err := app.shop.CreateProduct(cmd.Context(), &product); err != nil {
			return err
		}
		fmt.Printf("Created product %s (%s).\n", product.Name, product.ID)
		return nil
	},
}

var adminProductUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update the flagged fields of a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := app.catalog.Product(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		product := *current
		flags := cmd.Flags()
		if flags.Changed("name") {
			product.Name = productInput.Name
		}
		if flags.Changed("description") {
			product.Description = productInput.Description
		}
		if flags.Changed("price") {
			product.Price = productInput.Price
		}
		if flags.Changed("category") {
			product.Category = productInput.Category
		}
		if flags.Changed("stock") {
			product.Stock = productInput.Stock
		}
		if flags.Changed("image") {
			product.ImageURL = productInput.ImageURL
		}
		if flags.Changed("featured") {
			product.Featured = productInput.Featured
		}

		if err = app.shop.UpdateProduct(cmd.Context(), &product); err != nil {
			return err
		}
		fmt.Printf("Updated product %s.\n", product.ID)
		return nil
	},
}

var adminProductDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.shop.DeleteProduct(cmd.Context(), args[0])
	},
}

var adminOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List every order",
	RunE: func(cmd *cobra.Command, args []string) error {
		orders, err := app.shop.AllOrders(cmd.Context())
		if err != nil {
			return err
		}
		return renderOrders(orders)
	},
}

var adminOrderStatusCmd = &cobra.Command{
	Use:   "status <order-id> <status>",
	Short: "Override an order's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := enum.OrderStatus(args[1])
		if !status.Valid() {
			return fmt.Errorf("unknown order status %q", args[1])
		}
		return app.shop.UpdateOrderStatus(cmd.Context(), args[0], status)
	},
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show revenue, top sellers and order status counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := app.shop.SalesSummary(cmd.Context())
		if err != nil {
			return err
		}
		if done, err := printJSON(summary); done {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Revenue\t%.2f\n", summary.Revenue)
		fmt.Fprintf(w, "Orders\t%d\n", summary.OrderCount)
		fmt.Fprintf(w, "Average order\t%.2f\n", summary.AverageOrderValue)
		for i, p := range summary.TopProducts {
			fmt.Fprintf(w, "Top %d\t%s\t%d sold\n", i+1, p.Name, p.Quantity)
		}
		for _, m := range summary.MonthlyRevenue {
			fmt.Fprintf(w, "%s\t%.2f\n", m.Month, m.Revenue)
		}
		for _, status := range enum.OrderStatuses() {
			if n := summary.StatusCounts[status]; n > 0 {
				fmt.Fprintf(w, "%s\t%d\n", status, n)
			}
		}
		return w.Flush()
	},
}

func init() {
	for _, c := range []*cobra.Command{adminProductAddCmd, adminProductUpdateCmd} {
		f := c.Flags()
		f.StringVar(&productInput.Name, "name", "", "Product name")
		f.StringVar(&productInput.Description, "description", "", "Description")
		f.Float64Var(&productInput.Price, "price", 0, "Unit price")
		f.StringVar(&productInput.Category, "category", "", "Category")
		f.IntVar(&productInput.Stock, "stock", 0, "Units in stock")
		f.StringVar(&productInput.ImageURL, "image", "", "Image URL")
		f.BoolVar(&productInput.Featured, "featured", false, "Show on the home page")
	}
	_ = adminProductAddCmd.MarkFlagRequired("name")

	adminProductCmd.AddCommand(adminProductAddCmd, adminProductUpdateCmd, adminProductDeleteCmd)
	adminOrdersCmd.AddCommand(adminOrderStatusCmd)
	adminCmd.AddCommand(adminProductCmd, adminOrdersCmd, adminStatsCmd)
}
