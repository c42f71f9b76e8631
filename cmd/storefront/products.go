package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse the catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			products, err := c.app.Catalog.List(ctx)
			if err != nil {
				return err
			}
			// Favorites are marked only when signed in.
			var isFavorite func(string) bool
			if _, err := c.app.Auth.Current(ctx); err == nil {
				if err := c.app.Favorites.Fetch(ctx); err == nil {
					isFavorite = c.app.Favorites.IsFavorite
				}
			}
			return renderProducts(c.out, products, isFavorite)
		},
	}
	show := &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.Catalog.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderProduct(c.out, p)
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
