// Package order holds the domain model for composing a TableCRM sale:
// the resolved contragent, nomenclature candidates, reference
// dimensions, and the submission payload.
package order

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Danokray/Tablecrm/internal/domain/ident"
)

// ReferenceKind is one of the four required order dimensions selected
// from a fixed list.
type ReferenceKind int

const (
	// KindPaybox is the payment account the sale is received into.
	KindPaybox ReferenceKind = iota

	// KindOrganization is the selling organization.
	KindOrganization

	// KindWarehouse is the shipping warehouse.
	KindWarehouse

	// KindPriceType is the price tier applied to the sale.
	KindPriceType
)

// Kinds returns all reference kinds in their canonical order.
func Kinds() []ReferenceKind {
	return []ReferenceKind{KindPaybox, KindOrganization, KindWarehouse, KindPriceType}
}

// String returns the wire name of the kind.
func (k ReferenceKind) String() string {
	switch k {
	case KindPaybox:
		return "paybox"
	case KindOrganization:
		return "organization"
	case KindWarehouse:
		return "warehouse"
	case KindPriceType:
		return "price_type"
	default:
		return "unknown"
	}
}

// Path returns the API path the kind's list is fetched from.
func (k ReferenceKind) Path() string {
	switch k {
	case KindPaybox:
		return "/payboxes/"
	case KindOrganization:
		return "/organizations/"
	case KindWarehouse:
		return "/warehouses/"
	case KindPriceType:
		return "/price_types/"
	default:
		return ""
	}
}

// Label returns the human-readable name used in advisories.
func (k ReferenceKind) Label() string {
	switch k {
	case KindPaybox:
		return "payment accounts"
	case KindOrganization:
		return "organizations"
	case KindWarehouse:
		return "warehouses"
	case KindPriceType:
		return "price types"
	default:
		return "unknown"
	}
}

// ReferenceEntry is one selectable entry of a reference list.
type ReferenceEntry struct {
	ID   ident.ID `json:"id"`
	Name string   `json:"name"`
}

// Client is a resolved contragent. Immutable once selected; replaced
// wholesale on re-selection or cleared.
type Client struct {
	ID    ident.ID
	Phone string
	Name  string
}

// clientWire tolerates the id/phone/name field synonyms the API uses
// across deployments.
type clientWire struct {
	ID    ident.ID `json:"id"`
	PK    ident.ID `json:"pk"`
	AltID ident.ID `json:"_id"`
	Phone string   `json:"phone"`
	Phone2 string  `json:"phone_number"`
	Name  string   `json:"name"`
	Title string   `json:"title"`
	Label string   `json:"label"`
}

// UnmarshalJSON decodes a contragent record, accepting id/pk/_id,
// phone/phone_number, and name/title/label synonyms.
func (c *Client) UnmarshalJSON(data []byte) error {
	var w clientWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.ID = firstSet(w.ID, w.PK, w.AltID)
	c.Phone = firstNonEmpty(w.Phone, w.Phone2)
	c.Name = firstNonEmpty(w.Name, w.Title, w.Label)
	return nil
}

// Product is a nomenclature search candidate, not yet committed to
// the cart.
type Product struct {
	ID      ident.ID
	Name    string
	Article string
	Price   decimal.Decimal
}

type productWire struct {
	ID      ident.ID `json:"id"`
	PK      ident.ID `json:"pk"`
	AltID   ident.ID `json:"_id"`
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Label   string   `json:"label"`
	Article string   `json:"article"`
	Price   *float64 `json:"price"`
}

// UnmarshalJSON decodes a nomenclature record with the same synonym
// tolerance as Client. A missing price decodes as zero.
func (p *Product) UnmarshalJSON(data []byte) error {
	var w productWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.ID = firstSet(w.ID, w.PK, w.AltID)
	p.Name = firstNonEmpty(w.Name, w.Title, w.Label)
	p.Article = w.Article
	if w.Price != nil {
		p.Price = decimal.NewFromFloat(*w.Price)
	} else {
		p.Price = decimal.Zero
	}
	return nil
}

// SaleItem is one payload line of a sale document.
type SaleItem struct {
	Nomenclature ident.ID `json:"nomenclature"`
	Quantity     float64  `json:"quantity"`
	Price        float64  `json:"price"`
}

// SalePayload is the normalized sale document body sent to
// /docs_sales/. All identifiers are expected to be normalized via
// ident.Normalize before the payload is built.
type SalePayload struct {
	Contragent   ident.ID   `json:"contragent"`
	Pbox         ident.ID   `json:"pbox"`
	Organization ident.ID   `json:"organization"`
	Warehouse    ident.ID   `json:"warehouse"`
	PriceType    ident.ID   `json:"price_type"`
	Items        []SaleItem `json:"items"`
}

func firstSet(ids ...ident.ID) ident.ID {
	for _, id := range ids {
		if id.IsSet() {
			return id
		}
	}
	return ident.ID{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
