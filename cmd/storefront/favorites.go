package main

import (
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/kart-storefront/internal/apierr"
)

func (c *cli) favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Show and change favorite products",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List favorite products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.app.Favorites.Fetch(ctx); err != nil {
				return err
			}
			products, err := c.app.Favorites.Products(ctx)
			if err != nil {
				return err
			}
			return renderProducts(c.out, products, nil)
		},
	}
	toggle := &cobra.Command{
		Use:   "toggle <product-id>",
		Short: "Add or remove a product from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			// Membership must be known before toggling; without a session
			// Toggle reports the problem itself.
			if err := c.app.Favorites.Fetch(ctx); err != nil && !errors.Is(err, apierr.ErrAuthMissing) {
				return err
			}
			if !c.app.Favorites.Toggle(ctx, id) {
				return errors.Errorf("toggle favorite %s", id)
			}
			if c.app.Favorites.IsFavorite(id) {
				c.say("Produto %s adicionado aos favoritos.", id)
			} else {
				c.say("Produto %s removido dos favoritos.", id)
			}
			return nil
		},
	}
	check := &cobra.Command{
		Use:   "check <product-id>",
		Short: "Report whether a product is a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Favorites.Fetch(cmd.Context()); err != nil {
				return err
			}
			if c.app.Favorites.IsFavorite(args[0]) {
				c.say("sim")
			} else {
				c.say("não")
			}
			return nil
		},
	}

	cmd.AddCommand(list, toggle, check)
	return cmd
}
