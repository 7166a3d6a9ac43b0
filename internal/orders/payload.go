// internal/orders/payload.go
package orders

import (
	"fmt"
	"strings"
)

// ProxyOrder is the storefront-submitted order content. It is transient:
// nothing here is persisted locally.
type ProxyOrder struct {
	LineItems       []LineItem       `json:"lineItems"`
	Customer        *Customer        `json:"customer,omitempty"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	Note            string           `json:"note,omitempty"`
	CODFee          float64          `json:"codFee,omitempty"`
}

type LineItem struct {
	VariantID int64  `json:"variantId,omitempty"`
	Title     string `json:"title,omitempty"`
	Price     string `json:"price,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

type Customer struct {
	ID    int64  `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type ShippingAddress struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city,omitempty"`
	Province    string `json:"province,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// Validate rejects orders the downstream API would never accept anyway.
func (o ProxyOrder) Validate() error {
	if len(o.LineItems) == 0 {
		return fmt.Errorf("order has no line items")
	}
	for i, li := range o.LineItems {
		if li.VariantID == 0 && li.Title == "" {
			return fmt.Errorf("line item %d needs a variantId or a title", i)
		}
		if li.Quantity < 0 {
			return fmt.Errorf("line item %d has negative quantity", i)
		}
	}
	if o.CODFee < 0 {
		return fmt.Errorf("codFee must not be negative")
	}
	return nil
}

// BuildDraftOrder renders the downstream draft-order envelope: quantities
// default to 1, the COD fee becomes a custom line item when non-zero, and
// the classification tags are always attached.
func BuildDraftOrder(o ProxyOrder, tags []string) map[string]any {
	items := make([]map[string]any, 0, len(o.LineItems)+1)
	for _, li := range o.LineItems {
		qty := li.Quantity
		if qty == 0 {
			qty = 1
		}
		item := map[string]any{"quantity": qty}
		if li.VariantID != 0 {
			item["variant_id"] = li.VariantID
		} else {
			item["title"] = li.Title
			if li.Price != "" {
				item["price"] = li.Price
			}
		}
		items = append(items, item)
	}
	if o.CODFee > 0 {
		items = append(items, map[string]any{
			"title":    "Cash on Delivery Fee",
			"price":    fmt.Sprintf("%.2f", o.CODFee),
			"quantity": 1,
		})
	}

	draft := map[string]any{
		"line_items": items,
		"tags":       strings.Join(tags, ", "),
	}
	if o.Note != "" {
		draft["note"] = o.Note
	}
	if c := o.Customer; c != nil {
		cust := map[string]any{}
		if c.ID != 0 {
			cust["id"] = c.ID
		}
		if c.Email != "" {
			cust["email"] = c.Email
		}
		if c.Phone != "" {
			cust["phone"] = c.Phone
		}
		if len(cust) > 0 {
			draft["customer"] = cust
		}
	}
	if a := o.ShippingAddress; a != nil {
		draft["shipping_address"] = map[string]any{
			"first_name":   a.FirstName,
			"last_name":    a.LastName,
			"address1":     a.Address1,
			"address2":     a.Address2,
			"city":         a.City,
			"province":     a.Province,
			"zip":          a.Zip,
			"country":      a.Country,
			"country_code": a.CountryCode,
			"phone":        a.Phone,
		}
	}
	return map[string]any{"draft_order": draft}
}
