package repository

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	FindCartByUser(c context.Context, userID uuid.UUID, websiteID uuid.UUID) (Cart, error)
	FindCartBySession(c context.Context, sessionID string, websiteID uuid.UUID) (Cart, error)
	InsertCart(c context.Context, arg InsertCartParams) (Cart, error)
	UpdateCartSale(c context.Context, cartID uuid.UUID, saleID *uuid.UUID) error
	DeleteCart(c context.Context, cartID uuid.UUID) (int64, error)

	FindSaleById(c context.Context, id uuid.UUID) (Sale, error)
	FindAbandonedSale(c context.Context, arg FindAbandonedSaleParams) (Sale, error)
	InsertSale(c context.Context, arg InsertSaleParams) (Sale, error)
	UpdateSaleState(c context.Context, id uuid.UUID, state string) error
	DeleteSale(c context.Context, id uuid.UUID) (int64, error)

	FindSaleLines(c context.Context, saleID uuid.UUID) ([]SaleLine, error)
	FindSaleLineByProduct(c context.Context, saleID uuid.UUID, productID uuid.UUID) (SaleLine, error)
	InsertSaleLine(c context.Context, arg InsertSaleLineParams) (SaleLine, error)
	UpdateSaleLine(c context.Context, arg UpdateSaleLineParams) (SaleLine, error)
	DeleteSaleLine(c context.Context, lineID uuid.UUID, saleID uuid.UUID) (int64, error)

	FindProductById(c context.Context, id uuid.UUID) (Product, error)
	FindUserById(c context.Context, id uuid.UUID) (User, error)
	FindPartyById(c context.Context, id uuid.UUID) (Party, error)
	FindPriceListLines(c context.Context, priceListID uuid.UUID) ([]PriceListLine, error)
}

var _ Querier = (*Queries)(nil)
