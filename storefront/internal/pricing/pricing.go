// Package pricing computes unit prices and tax sets for sale lines. The
// storefront never prices a line itself; everything goes through a
// PriceSource so deployments can swap the price-list engine for an external
// pricing service.
package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/webshop/storefront/internal/repository"
)

type PriceQuery struct {
	PartyID     uuid.UUID
	ProductID   uuid.UUID
	PriceListID *uuid.UUID
	Quantity    decimal.Decimal
	Currency    string
}

// Quotation is the oracle's answer: the product's sale unit, the unit price
// applicable at the queried quantity and the tax set to apply to the line.
type Quotation struct {
	Unit      string           `json:"unit"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Taxes     []repository.Tax `json:"taxes"`
}

type PriceSource interface {
	PriceFor(c context.Context, query PriceQuery) (Quotation, error)
}
