package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) ordersCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "orders",
		Aliases: []string{"history"},
		Short:   "Show the purchase history",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sales, err := c.app.Orders.History(cmd.Context())
			if err != nil {
				return err
			}
			return renderSales(c.out, sales)
		},
	}
}
