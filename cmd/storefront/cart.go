package main

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/kart-storefront/internal/apierr"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the shopping cart",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.showCart(cmd.Context())
		},
	}
	add := &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			quantity := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return errors.Wrapf(err, "parse quantity %q", args[1])
				}
				quantity = n
			}

			p, err := c.app.Catalog.Get(ctx, args[0])
			switch {
			case errors.Is(err, apierr.ErrAuthMissing):
				// Let the cart report the missing session.
				p = &product.Product{ID: args[0]}
			case err != nil:
				return err
			}
			if err := c.app.Cart.Add(ctx, *p, quantity); err != nil {
				return err
			}
			c.say("Produto adicionado ao carrinho!")
			return c.showCart(ctx)
		},
	}
	update := &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set the quantity of a product in the cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.app.Cart.UpdateQuantity(ctx, args[0], args[1]); err != nil {
				return err
			}
			return c.showCart(ctx)
		},
	}
	remove := &cobra.Command{
		Use:     "remove <product-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a product from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.app.Cart.Remove(ctx, args[0]); err != nil {
				return err
			}
			return renderCart(c.out, c.app.Cart.Snapshot())
		},
	}
	checkout := &cobra.Command{
		Use:   "checkout",
		Short: "Buy everything in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var customerID string
			if sess, err := c.app.Auth.Current(ctx); err == nil {
				customerID = sess.UserID
				if err := c.app.Cart.Fetch(ctx); err != nil {
					return err
				}
			}
			receipt, err := c.app.Cart.CheckoutCart(ctx, customerID)
			if err != nil {
				return err
			}
			return renderReceipt(c.out, receipt)
		},
	}

	cmd.AddCommand(show, add, update, remove, checkout)
	return cmd
}

// showCart loads the cart from the server and prints it. A load failure is
// shown as part of the cart.
func (c *cli) showCart(ctx context.Context) error {
	err := c.app.Cart.Fetch(ctx)
	if errors.Is(err, apierr.ErrAuthMissing) {
		return err
	}
	st := c.app.Cart.Snapshot()
	if st.Err != nil {
		c.alerted.Store(true)
	}
	if rerr := renderCart(c.out, st); rerr != nil && err == nil {
		return rerr
	}
	return err
}
