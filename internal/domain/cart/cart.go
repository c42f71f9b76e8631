package cart

import (
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Placeholder names for line items whose catalog lookup failed.
const (
	UnavailableName = "Produto Indisponível"
	NetworkName     = "Erro de Rede"
	UnknownName     = "Produto Desconhecido"
)

// Sentinel errors for local validation. None of them involve the network.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidProductID = errors.New("product id is required")
	ErrInvalidQuantity  = errors.New("quantity must be greater than 0")
)

// Item is the minimal product/quantity pair exchanged with the server: the
// cart endpoint returns it and checkout sends it. Prices are never included.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// LineItem is an Item enriched with display fields copied from the catalog.
// Name, Price and Image are a cache and may be stale.
type LineItem struct {
	ProductID string
	Quantity  int
	Name      string
	Price     decimal.Decimal
	Image     string
}

// Subtotal returns Price × Quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Placeholder returns a line item for it with the given name, zero price and
// no image.
func Placeholder(it Item, name string) LineItem {
	return LineItem{
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		Name:      name,
		Price:     decimal.Zero,
	}
}

// Cart is an ordered collection of line items keyed by product id.
//
// Invariants: product ids are unique and every quantity is at least 1.
// The zero value is an empty cart.
type Cart struct {
	items []LineItem
}

// New builds a cart from items, merging duplicates and dropping entries with a
// non-positive quantity.
func New(items ...LineItem) Cart {
	var c Cart
	for _, it := range items {
		c.Add(it)
	}
	return c
}

// Items returns a copy of the line items in cart order.
func (c *Cart) Items() []LineItem {
	return slices.Clone(c.items)
}

// Len returns the number of distinct products.
func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) index(productID string) int {
	return slices.IndexFunc(c.items, func(l LineItem) bool {
		return l.ProductID == productID
	})
}

// Find returns the line item for productID.
func (c *Cart) Find(productID string) (LineItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.items[i], true
	}
	return LineItem{}, false
}

// Add merges it into the cart: an existing product has its quantity
// incremented, otherwise it is appended. Items with quantity < 1 are ignored.
func (c *Cart) Add(it LineItem) {
	if it.Quantity < 1 {
		return
	}
	if i := c.index(it.ProductID); i >= 0 {
		c.items[i].Quantity += it.Quantity
		return
	}
	c.items = append(c.items, it)
}

// SetQuantity sets the quantity of an existing product. A quantity below 1
// removes it. It reports whether the product was present.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if quantity < 1 {
		c.items = slices.Delete(c.items, i, i+1)
		return true
	}
	c.items[i].Quantity = quantity
	return true
}

// Remove deletes productID from the cart and reports whether it was present.
func (c *Cart) Remove(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

// Total returns Σ price × quantity. It is computed on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.items {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Quantity returns the number of units across all products.
func (c *Cart) Quantity() int {
	var n int
	for _, l := range c.items {
		n += l.Quantity
	}
	return n
}

// OrderItems reduces the cart to product/quantity pairs for checkout.
func (c *Cart) OrderItems() []Item {
	return OrderItems(c.items)
}

// OrderItems reduces line items to product/quantity pairs, dropping display
// fields and prices.
func OrderItems(lines []LineItem) []Item {
	out := make([]Item, len(lines))
	for i, l := range lines {
		out[i] = Item{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return out
}
