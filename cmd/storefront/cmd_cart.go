package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	shop "goflare.io/storefront"
	"goflare.io/storefront/cart"
	"goflare.io/storefront/models"
)

var (
	addQuantity int
	checkout    shop.CheckoutDetails
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show the cart and its totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		view := app.shop.Cart(cmd.Context())
		if done, err := printJSON(view); done {
			return err
		}
		if len(view.Items) == 0 {
			fmt.Println("Your cart is empty.")
			return nil
		}

		printLineItems(view.Items, true)
		fmt.Printf("\nSubtotal: $%.2f\nTax:      $%.2f\nTotal:    $%.2f\n",
			view.Totals.Subtotal, view.Totals.Tax, view.Totals.Total)
		return nil
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.shop.AddToCart(cmd.Context(), args[0], addQuantity); err != nil {
			return err
		}
		fmt.Printf("Cart now holds %d item(s).\n", app.shop.Cart(cmd.Context()).Count)
		return nil
	},
}

var cartSetCmd = &cobra.Command{
	Use:   "set <product-id> <quantity>",
	Short: "Set a cart entry's quantity; 0 removes it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		return app.shop.UpdateCartQuantity(cmd.Context(), args[0], quantity)
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a product from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.shop.RemoveFromCart(cmd.Context(), args[0])
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.carts.Clear(cmd.Context(), cart.CartKey())
	},
}

var wishlistCmd = &cobra.Command{
	Use:   "wishlist",
	Short: "Show the signed-in user's wishlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := app.shop.Wishlist(cmd.Context())
		if err != nil {
			return err
		}
		if done, err := printJSON(items); done {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Your wishlist is empty.")
			return nil
		}
		printLineItems(items, false)
		return nil
	},
}

var wishlistToggleCmd = &cobra.Command{
	Use:   "toggle <product-id>",
	Short: "Add a product to the wishlist, or remove it if present",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		present, err := app.shop.ToggleWishlist(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if present {
			fmt.Println("Added to wishlist.")
		} else {
			fmt.Println("Removed from wishlist.")
		}
		return nil
	},
}

var wishlistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the wishlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.shop.ClearWishlist(cmd.Context())
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place the cart as an order and pay for it",
	RunE: func(cmd *cobra.Command, args []string) error {
		receipt, err := app.shop.Checkout(cmd.Context(), checkout)
		if err != nil {
			return err
		}
		if done, err := printJSON(receipt); done {
			return err
		}
		fmt.Printf("Order %s placed. Total charged: $%.2f\n", receipt.OrderNumber, receipt.Total)
		return nil
	},
}

var lastOrderCmd = &cobra.Command{
	Use:   "last-order",
	Short: "Show the receipt of the last checkout on this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		receipt, ok := app.shop.LastOrder(cmd.Context())
		if !ok {
			fmt.Println("No order placed yet.")
			return nil
		}
		if done, err := printJSON(receipt); done {
			return err
		}
		fmt.Printf("Order %s (%s)  $%.2f\n", receipt.OrderNumber, receipt.OrderID, receipt.Total)
		return nil
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List the signed-in user's orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		orders, err := app.shop.MyOrders(cmd.Context())
		if err != nil {
			return err
		}
		return renderOrders(orders)
	},
}

func init() {
	cartAddCmd.Flags().IntVarP(&addQuantity, "quantity", "q", 1, "Quantity to add")
	cartCmd.AddCommand(cartAddCmd, cartSetCmd, cartRemoveCmd, cartClearCmd)
	wishlistCmd.AddCommand(wishlistToggleCmd, wishlistClearCmd)

	f := checkoutCmd.Flags()
	f.StringVar(&checkout.FirstName, "first-name", "", "Customer first name")
	f.StringVar(&checkout.LastName, "last-name", "", "Customer last name")
	f.StringVar(&checkout.Phone, "phone", "", "Contact phone")
	f.StringVar(&checkout.ShippingAddress.Address, "address", "", "Street address")
	f.StringVar(&checkout.ShippingAddress.City, "city", "", "City")
	f.StringVar(&checkout.ShippingAddress.State, "state", "", "State")
	f.StringVar(&checkout.ShippingAddress.ZipCode, "zip", "", "ZIP code")
}

func printLineItems(items []models.LineItem, withQuantity bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if withQuantity {
		fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t$%.2f\t%d\t$%.2f\n",
				item.ProductID, item.Name, item.UnitPrice, item.Quantity, models.RoundMoney(item.Subtotal()))
		}
	} else {
		fmt.Fprintln(w, "ID\tNAME\tPRICE")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t$%.2f\n", item.ProductID, item.Name, item.UnitPrice)
		}
	}
	_ = w.Flush()
}

func renderOrders(orders []*models.Order) error {
	if done, err := printJSON(orders); done {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No orders found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tPLACED\tSTATUS\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t$%.2f\n",
			o.ID, o.OrderNumber, o.CreatedAt.Format("2006-01-02 15:04"), o.Status, len(o.Items), o.Total)
	}
	return w.Flush()
}
