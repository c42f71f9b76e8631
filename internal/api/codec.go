package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/domain/seller"
)

// The API is loose about scalar types: ids and prices arrive either as JSON
// strings or numbers depending on the endpoint. The decoders below accept
// both and treat null as the zero value.

func decodeString(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		raw, err := d.Raw()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case jx.Null:
		return "", d.Null()
	default:
		return "", d.Skip()
	}
}

func wrapField(err error, key string) error {
	if err != nil {
		return errors.Wrap(err, key)
	}
	return nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	s, err := decodeString(d)
	if err != nil {
		return decimal.Zero, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse decimal %q", s)
	}
	return v, nil
}

func decodeInt(d *jx.Decoder) (int, error) {
	s, err := decodeString(d)
	if err != nil || s == "" {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Accept integral floats such as 2.0.
		v, derr := decimal.NewFromString(s)
		if derr != nil || !v.IsInteger() {
			return 0, errors.Wrapf(err, "parse int %q", s)
		}
		return int(v.IntPart()), nil
	}
	return n, nil
}

func decodeBool(d *jx.Decoder) (bool, error) {
	switch d.Next() {
	case jx.Bool:
		return d.Bool()
	case jx.Number:
		raw, err := d.Raw()
		if err != nil {
			return false, err
		}
		return string(raw) != "0", nil
	case jx.Null:
		return false, d.Null()
	default:
		return false, d.Skip()
	}
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := decodeString(d)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("parse time %q", s)
}

// decodeList decodes either a bare array or an object holding the array under
// key.
func decodeList(data []byte, key string, elem func(d *jx.Decoder) error) error {
	d := jx.DecodeBytes(data)
	switch d.Next() {
	case jx.Array:
		return d.Arr(elem)
	case jx.Object:
		return d.Obj(func(d *jx.Decoder, k string) error {
			if k != key || d.Next() != jx.Array {
				return d.Skip()
			}
			return d.Arr(elem)
		})
	case jx.Null:
		return nil
	default:
		return errors.Errorf("unexpected %s", d.Next())
	}
}

func (c *Client) decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id", "_id":
			p.ID, err = decodeString(d)
		case "name":
			p.Name, err = decodeString(d)
		case "description":
			p.Description, err = decodeString(d)
		case "price":
			p.Price, err = decodeDecimal(d)
		case "image":
			p.Image, err = decodeString(d)
		case "stock":
			p.Stock, err = decodeInt(d)
		case "seller_id", "sellerId":
			p.SellerID, err = decodeString(d)
		default:
			return d.Skip()
		}
		return wrapField(err, key)
	})
	if err != nil {
		return product.Product{}, err
	}
	p.Image = c.imageURL(p.Image)
	return p, nil
}

func (c *Client) decodeProducts(data []byte) ([]product.Product, error) {
	var out []product.Product
	err := decodeList(data, "products", func(d *jx.Decoder) error {
		p, err := c.decodeProduct(d)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return out, nil
}

func decodeCartItem(d *jx.Decoder) (cart.Item, error) {
	var it cart.Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id", "productId":
			it.ProductID, err = decodeString(d)
		case "quantity":
			it.Quantity, err = decodeInt(d)
		default:
			return d.Skip()
		}
		return wrapField(err, key)
	})
	return it, err
}

// decodeCart decodes {"items": [{product_id, quantity}]}. A missing items key
// is an empty cart.
func decodeCart(data []byte) ([]cart.Item, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var items []cart.Item
	err := decodeList(data, "items", func(d *jx.Decoder) error {
		it, err := decodeCartItem(d)
		if err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return items, nil
}

// decodeFavorites reduces [{product_id}, ...] to ids.
func decodeFavorites(data []byte) ([]string, error) {
	var ids []string
	err := decodeList(data, "favorites", func(d *jx.Decoder) error {
		var id string
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			if key != "product_id" && key != "productId" {
				return d.Skip()
			}
			var err error
			id, err = decodeString(d)
			return err
		}); err != nil {
			return err
		}
		if id != "" {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode favorites")
	}
	return ids, nil
}

func decodeSession(data []byte) (auth.Session, error) {
	var s auth.Session
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "access_token", "accessToken", "token":
			s.Token, err = decodeString(d)
		case "user_id", "userId":
			s.UserID, err = decodeString(d)
		case "is_seller", "isSeller":
			s.Seller, err = decodeBool(d)
		default:
			return d.Skip()
		}
		return wrapField(err, key)
	})
	if err != nil {
		return auth.Session{}, errors.Wrap(err, "decode session")
	}
	return s, nil
}

// decodeMessage returns the "message" field of a JSON object, or "" when the
// body is not such an object.
func decodeMessage(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var msg string
	_ = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != "message" || d.Next() != jx.String {
			return d.Skip()
		}
		var err error
		msg, err = d.Str()
		return err
	})
	return msg
}

// decodeErrorBody extracts the server's error text from the "message" or
// "error" field. prefer names the field read first and defaults to "message".
// ok is false when neither is present or the body is not JSON.
func decodeErrorBody(data []byte, prefer string) (msg string, ok bool) {
	if len(data) == 0 {
		return "", false
	}
	var message, errText string
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if d.Next() != jx.String {
			return d.Skip()
		}
		var err error
		switch key {
		case "message":
			message, err = d.Str()
		case "error":
			errText, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return "", false
	}
	first, second := message, errText
	if prefer == "error" {
		first, second = errText, message
	}
	if first != "" {
		return first, true
	}
	if second != "" {
		return second, true
	}
	return "", false
}

func decodeReceipt(data []byte) (*order.Receipt, error) {
	r := &order.Receipt{Raw: data}
	if len(data) == 0 {
		return r, nil
	}
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return r, nil
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id", "sale_id", "saleId":
			r.ID, err = decodeString(d)
		case "totalAmount", "total_amount", "total":
			r.Total, err = decodeDecimal(d)
		case "status":
			r.Status, err = decodeString(d)
		default:
			return d.Skip()
		}
		return wrapField(err, key)
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode receipt")
	}
	return r, nil
}

func decodeSaleItem(d *jx.Decoder) (order.SaleItem, error) {
	var it order.SaleItem
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "name" {
					return d.Skip()
				}
				var err error
				it.Name, err = decodeString(d)
				return err
			})
		case "unit_price_at_sale":
			it.Price, err = decodeDecimal(d)
		case "quantity":
			it.Quantity, err = decodeInt(d)
		default:
			return d.Skip()
		}
		return wrapField(err, key)
	})
	return it, err
}

func decodeSales(data []byte) ([]order.Sale, error) {
	var sales []order.Sale
	err := decodeList(data, "sales", func(d *jx.Decoder) error {
		var s order.Sale
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				s.ID, err = decodeString(d)
			case "totalAmount", "total_amount":
				s.Total, err = decodeDecimal(d)
			case "saleDate", "sale_date":
				s.Date, err = decodeTime(d)
			case "status":
				s.Status, err = decodeString(d)
			case "sale_items", "saleItems":
				if d.Next() != jx.Array {
					return d.Skip()
				}
				return d.Arr(func(d *jx.Decoder) error {
					it, err := decodeSaleItem(d)
					if err != nil {
						return err
					}
					s.Items = append(s.Items, it)
					return nil
				})
			default:
				return d.Skip()
			}
			return wrapField(err, key)
		}); err != nil {
			return err
		}
		sales = append(sales, s)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode sales")
	}
	return sales, nil
}

func decodeMetrics(data []byte) (seller.Metrics, error) {
	var m seller.Metrics
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productsBySeller":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			return d.Arr(func(d *jx.Decoder) error {
				var sold int
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					if key != "total_sold" {
						return d.Skip()
					}
					var err error
					sold, err = decodeInt(d)
					return err
				}); err != nil {
					return err
				}
				m.SoldBySeller = append(m.SoldBySeller, int64(sold))
				return nil
			})
		case "totalRevenue":
			var err error
			m.TotalRevenue, err = decodeDecimal(d)
			return err
		case "bestSeller":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "product_name" {
					return d.Skip()
				}
				var err error
				m.BestSeller, err = decodeString(d)
				return err
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return seller.Metrics{}, errors.Wrap(err, "decode metrics")
	}
	return m, nil
}

// Encoders.

func encodeObj(fn func(e *jx.Encoder)) []byte {
	var e jx.Encoder
	e.Obj(fn)
	return e.Bytes()
}

func encodeCartItem(it cart.Item) []byte {
	return encodeObj(func(e *jx.Encoder) {
		e.Field("product_id", func(e *jx.Encoder) { e.Str(it.ProductID) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
	})
}

func encodeQuantity(quantity int) []byte {
	return encodeObj(func(e *jx.Encoder) {
		e.Field("quantity", func(e *jx.Encoder) { e.Int(quantity) })
	})
}

func encodeCheckout(items []cart.Item) []byte {
	return encodeObj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("product_id", func(e *jx.Encoder) { e.Str(it.ProductID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
					})
				}
			})
		})
	})
}

func encodeFavorite(productID string) []byte {
	return encodeObj(func(e *jx.Encoder) {
		e.Field("product_id", func(e *jx.Encoder) { e.Str(productID) })
	})
}

func encodeCredentials(c auth.Credentials) []byte {
	return encodeObj(func(e *jx.Encoder) {
		e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
		e.Field("password", func(e *jx.Encoder) { e.Str(c.Password) })
	})
}

func encodeRegistration(r auth.Registration) []byte {
	return encodeObj(func(e *jx.Encoder) {
		e.Field("email", func(e *jx.Encoder) { e.Str(r.Email) })
		e.Field("password", func(e *jx.Encoder) { e.Str(r.Password) })
		e.Field("name", func(e *jx.Encoder) { e.Str(r.Name) })
		e.Field("is_seller", func(e *jx.Encoder) { e.Bool(r.Seller) })
	})
}

func encodeDeactivate(userID string) []byte {
	return encodeObj(func(e *jx.Encoder) {
		e.Field("userId", func(e *jx.Encoder) { e.Str(userID) })
	})
}

func encodeProductInput(in seller.ProductInput) []byte {
	return encodeObj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(in.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Raw([]byte(in.Price.String())) })
		e.Field("description", func(e *jx.Encoder) { e.Str(in.Description) })
		e.Field("image", func(e *jx.Encoder) { e.Str(in.Image) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(in.Stock) })
	})
}
