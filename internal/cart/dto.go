package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ItemView is one cart line joined with its catalog context.
type ItemView struct {
	ID                uuid.UUID       `json:"id"`
	VariantID         uuid.UUID       `json:"variant_id"`
	Quantity          int             `json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `json:"unit_price_snapshot"`
	LineTotal         decimal.Decimal `json:"line_total"`
	VariantName       string          `json:"variant_name,omitempty"`
	SKU               string          `json:"sku,omitempty"`
	ProductID         *uuid.UUID      `json:"product_id,omitempty"`
	ProductName       string          `json:"product_name,omitempty"`
	CategoryName      string          `json:"category_name,omitempty"`
	BrandName         string          `json:"brand_name,omitempty"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	InStock           bool            `json:"in_stock"`
}

// View is the cart projection returned to clients. Subtotal is computed from
// price snapshots, not current catalog prices.
type View struct {
	CartID     *uuid.UUID      `json:"cart_id,omitempty"`
	Items      []ItemView      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalItems int             `json:"total_items"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

func buildView(cart *models.Cart) *View {
	view := &View{
		Items:    []ItemView{},
		Subtotal: decimal.Zero,
	}
	if cart == nil {
		return view
	}

	view.CartID = &cart.ID
	view.UpdatedAt = &cart.UpdatedAt

	for _, item := range cart.Items {
		lineTotal := item.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(item.Quantity)))
		row := ItemView{
			ID:                item.ID,
			VariantID:         item.VariantID,
			Quantity:          item.Quantity,
			UnitPriceSnapshot: item.UnitPriceSnapshot,
			LineTotal:         lineTotal,
			CurrentPrice:      item.UnitPriceSnapshot,
		}
		if variant := item.Variant; variant != nil {
			row.VariantName = variant.Name
			row.SKU = variant.SKU
			row.CurrentPrice = variant.Price
			row.InStock = variant.StockQty > 0
			if product := variant.Product; product != nil {
				row.ProductID = &product.ID
				row.ProductName = product.Name
				if product.Category != nil {
					row.CategoryName = product.Category.Name
				}
				if product.Brand != nil {
					row.BrandName = product.Brand.Name
				}
			}
		}
		view.Items = append(view.Items, row)
		view.Subtotal = view.Subtotal.Add(lineTotal)
	}
	// Distinct lines, not summed quantities.
	view.TotalItems = len(view.Items)
	return view
}

// SyncItemInput is one desired line in a cart sync request. Lines are not
// validated at the boundary; Sync drops invalid ones itself.
type SyncItemInput struct {
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}
