package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/domain/seller"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5484D"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

func money(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, h := range header {
		if i > 0 {
			_, _ = io.WriteString(tw, "\t")
		}
		_, _ = io.WriteString(tw, headingStyle.Render(h))
	}
	_, _ = io.WriteString(tw, "\n")
	return tw
}

func row(tw io.Writer, cols ...string) {
	for i, col := range cols {
		if i > 0 {
			_, _ = io.WriteString(tw, "\t")
		}
		_, _ = io.WriteString(tw, col)
	}
	_, _ = io.WriteString(tw, "\n")
}

func renderProducts(w io.Writer, products []product.Product, isFavorite func(id string) bool) error {
	if len(products) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("Nenhum produto encontrado."))
		return err
	}
	tw := newTable(w, "ID", "NOME", "PREÇO", "ESTOQUE", "")
	for _, p := range products {
		mark := ""
		if isFavorite != nil && isFavorite(p.ID) {
			mark = "♥"
		}
		row(tw, p.ID, p.Name, money(p.Price), strconv.Itoa(p.Stock), mark)
	}
	return tw.Flush()
}

func renderProduct(w io.Writer, p *product.Product) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row(tw, headingStyle.Render("ID"), p.ID)
	row(tw, headingStyle.Render("Nome"), p.Name)
	row(tw, headingStyle.Render("Preço"), money(p.Price))
	row(tw, headingStyle.Render("Estoque"), strconv.Itoa(p.Stock))
	if p.Description != "" {
		row(tw, headingStyle.Render("Descrição"), p.Description)
	}
	if p.Image != "" {
		row(tw, headingStyle.Render("Imagem"), p.Image)
	}
	return tw.Flush()
}

func renderCart(w io.Writer, st cart.State) error {
	if st.Err != nil {
		_, err := fmt.Fprintln(w, alertStyle.Render(cart.LoadFailedMessage))
		return err
	}
	if len(st.Items) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("Seu carrinho está vazio."))
		return err
	}
	tw := newTable(w, "ID", "PRODUTO", "QTD", "PREÇO", "SUBTOTAL")
	for _, it := range st.Items {
		row(tw, it.ProductID, it.Name, strconv.Itoa(it.Quantity), money(it.Price), money(it.Subtotal()))
	}
	row(tw, "", "", "", headingStyle.Render("Total"), money(st.Total))
	return tw.Flush()
}

func renderReceipt(w io.Writer, r *order.Receipt) error {
	_, err := fmt.Fprintf(w, "Compra realizada com sucesso! Pedido %s, total %s, status %s\n",
		orDash(r.ID), money(r.Total), orDash(r.Status))
	return err
}

func renderSales(w io.Writer, sales []order.Sale) error {
	if len(sales) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("Nenhuma compra encontrada."))
		return err
	}
	for _, s := range sales {
		date := "-"
		if !s.Date.IsZero() {
			date = s.Date.Format("02/01/2006 15:04")
		}
		if _, err := fmt.Fprintf(w, "%s  %s  %s  %s\n",
			headingStyle.Render("Pedido "+orDash(s.ID)), date, money(s.Total), orDash(s.Status)); err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, it := range s.Items {
			row(tw, "  "+it.Name, strconv.Itoa(it.Quantity)+"x", money(it.Price))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func renderDashboard(w io.Writer, d *seller.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row(tw, headingStyle.Render("Total vendido"), strconv.FormatInt(d.TotalSold, 10))
	row(tw, headingStyle.Render("Receita total"), money(d.TotalRevenue))
	row(tw, headingStyle.Render("Produtos"), strconv.Itoa(d.TotalProducts))
	row(tw, headingStyle.Render("Mais vendido"), d.BestSeller)
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
