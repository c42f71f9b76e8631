package main

import (
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/xenking/kart-storefront/internal/domain/seller"
)

func (c *cli) sellerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seller",
		Short: "Manage your products as a seller",
	}

	inventory := &cobra.Command{
		Use:   "inventory",
		Short: "List your products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := c.app.Seller.Inventory(cmd.Context())
			if err != nil {
				return err
			}
			return renderProducts(c.out, products, nil)
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
	}
	createInput := productFlags(create)
	create.RunE = func(cmd *cobra.Command, _ []string) error {
		in, err := createInput()
		if err != nil {
			return err
		}
		if err := c.app.Seller.Create(cmd.Context(), in); err != nil {
			return err
		}
		c.say("Produto criado com sucesso!")
		return nil
	}

	update := &cobra.Command{
		Use:   "update <product-id>",
		Short: "Replace a product's fields",
		Args:  cobra.ExactArgs(1),
	}
	updateInput := productFlags(update)
	update.RunE = func(cmd *cobra.Command, args []string) error {
		in, err := updateInput()
		if err != nil {
			return err
		}
		if err := c.app.Seller.Update(cmd.Context(), args[0], in); err != nil {
			return err
		}
		c.say("Produto atualizado com sucesso!")
		return nil
	}

	del := &cobra.Command{
		Use:     "delete <product-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a product you created",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Seller.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.say("Produto excluído com sucesso!")
			return nil
		},
	}

	imp := &cobra.Command{
		Use:   "import <file.csv|file.csv.gz>",
		Short: "Upload products from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open csv")
			}
			defer func() { _ = f.Close() }()

			res, err := c.app.Seller.ImportCSV(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			c.say("%s (%d linhas)", res.Message, res.Rows)
			return nil
		},
	}

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Show sales metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := c.app.Seller.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return renderDashboard(c.out, d)
		},
	}

	cmd.AddCommand(inventory, create, update, del, imp, dashboard)
	return cmd
}

// productFlags registers the product input flags on cmd and returns a
// function building the input from them.
func productFlags(cmd *cobra.Command) func() (seller.ProductInput, error) {
	var (
		in    seller.ProductInput
		price string
	)
	cmd.Flags().StringVar(&in.Name, "name", "", "Product name")
	cmd.Flags().StringVar(&price, "price", "", "Unit price, e.g. 19.90")
	cmd.Flags().StringVar(&in.Description, "description", "", "Product description")
	cmd.Flags().StringVar(&in.Image, "image", "", "Image URL or path")
	cmd.Flags().IntVar(&in.Stock, "stock", 0, "Units in stock")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")

	return func() (seller.ProductInput, error) {
		p, err := decimal.NewFromString(price)
		if err != nil {
			return seller.ProductInput{}, errors.Wrapf(seller.ErrInvalidInput, "price %q", price)
		}
		in.Price = p
		return in, nil
	}
}
