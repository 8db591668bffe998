package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	inErrors "github.com/webshop/storefront/internal/errors"
	"github.com/webshop/storefront/internal/log"
	"github.com/webshop/storefront/internal/repository"
	"github.com/webshop/storefront/storefront/internal/common/otel"
)

// priceDigits matches the precision unit prices are stored with.
const priceDigits = 4

type Catalog interface {
	FindProductById(c context.Context, id uuid.UUID) (repository.Product, error)
	FindPriceListLines(c context.Context, priceListID uuid.UUID) ([]repository.PriceListLine, error)
}

// Engine is the price-list implementation of PriceSource: unit price is the
// product's list price scaled by the margin of the deepest quantity break the
// queried quantity reaches. Without a price list the list price stands.
type Engine struct {
	catalog Catalog
}

func NewEngine(catalog Catalog) Engine {
	return Engine{catalog: catalog}
}

func (e Engine) PriceFor(c context.Context, query PriceQuery) (Quotation, error) {
	c, span := otel.Tracer.Start(c, "Engine PriceFor")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Engine PriceFor").
		Str(log.KeyProductID, query.ProductID.String()).
		Str(log.KeyQuantity, query.Quantity.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Trace().Msg("finding product")
	product, err := e.catalog.FindProductById(c, query.ProductID)
	if err != nil {
		err = fmt.Errorf(
			"failed finding productId=%s with error=%w",
			query.ProductID.String(),
			err,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Quotation{}, err
	}
	logger.Trace().Msg("found product")

	margin := decimal.NewFromInt(1)
	if query.PriceListID != nil {
		logger = logger.With().
			Str(log.KeyProcess, "finding price list lines").
			Str(log.KeyPriceListID, query.PriceListID.String()).
			Logger()
		logger.Trace().Msg("finding price list lines")
		lines, err := e.catalog.FindPriceListLines(c, *query.PriceListID)
		if err != nil {
			err = fmt.Errorf(
				"failed finding priceListId=%s with error=%w",
				query.PriceListID.String(),
				err,
			)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return Quotation{}, err
		}
		// lines arrive ordered by min_quantity descending
		for _, line := range lines {
			if query.Quantity.GreaterThanOrEqual(line.MinQuantity) {
				margin = line.Margin
				break
			}
		}
		logger.Trace().Msg("found price list lines")
	}

	quotation := Quotation{
		Unit:      product.Unit,
		UnitPrice: product.ListPrice.Mul(margin).Round(priceDigits),
		Taxes:     product.Taxes,
	}
	logger.Debug().
		Str(log.KeyUnitPrice, quotation.UnitPrice.String()).
		Msg("computed quotation")

	return quotation, nil
}

var _ PriceSource = Engine{}
