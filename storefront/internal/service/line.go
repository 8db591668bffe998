package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	inErrors "github.com/webshop/storefront/internal/errors"
	"github.com/webshop/storefront/internal/log"
	"github.com/webshop/storefront/internal/repository"
	"github.com/webshop/storefront/internal/webctx"
	"github.com/webshop/storefront/storefront/internal/common/otel"
	"github.com/webshop/storefront/storefront/internal/pricing"
)

// MergeAction decides what happens when the order already carries a line for
// the product: set replaces the quantity, add accumulates onto it.
type MergeAction string

const (
	ActionSet MergeAction = "set"
	ActionAdd MergeAction = "add"
)

func ParseMergeAction(raw string) (MergeAction, error) {
	switch MergeAction(raw) {
	case ActionSet, "":
		return ActionSet, nil
	case ActionAdd:
		return ActionAdd, nil
	}
	return "", fmt.Errorf("unknown merge action=%s", raw)
}

// PriceChange reports that the stored unit price of a merged line differed
// from the freshly resolved one.
type PriceChange struct {
	Product  repository.Product
	OldPrice decimal.Decimal
	NewPrice decimal.Decimal
}

// Notice is the storefront wording shown to the visitor.
func (p PriceChange) Notice() string {
	direction := "increased"
	if p.NewPrice.LessThan(p.OldPrice) {
		direction = "dropped"
	}
	return fmt.Sprintf(
		"The price of %s has %s from %s to %s",
		p.Product.Name,
		direction,
		p.OldPrice.StringFixed(2),
		p.NewPrice.StringFixed(2),
	)
}

// AddOrUpdate merges a (product, quantity) pair into the draft order. The
// order holds at most one line per product; the unit price is resolved fresh
// on every call, never trusted from the client. A non-nil PriceChange means
// the stored price of an existing line was superseded.
func (s CartService) AddOrUpdate(
	c context.Context,
	rc webctx.RequestContext,
	sale repository.Sale,
	productID uuid.UUID,
	quantity decimal.Decimal,
	action MergeAction,
) (repository.SaleLine, *PriceChange, error) {
	c, span := otel.Tracer.Start(c, "CartService AddOrUpdate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddOrUpdate").
		Str(log.KeySaleID, sale.ID.String()).
		Str(log.KeyProductID, productID.String()).
		Str(log.KeyQuantity, quantity.String()).
		Str(log.KeyAction, string(action)).
		Logger()

	if quantity.Sign() <= 0 {
		err := fmt.Errorf(
			"failed merging quantity=%s with error=%w",
			quantity.String(),
			inErrors.ErrInvalidQuantity,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.SaleLine{}, nil, err
	}
	if sale.State != repository.SaleStateDraft {
		err := fmt.Errorf(
			"failed merging into saleId=%s with error=%w",
			sale.ID.String(),
			inErrors.ErrSaleNotDraft,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.SaleLine{}, nil, err
	}

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Trace().Msg("finding product")
	product, err := s.store.FindProductById(c, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf(
				"failed finding productId=%s with error=%w",
				productID.String(),
				inErrors.ErrNotFound,
			)
		}
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.SaleLine{}, nil, err
	}
	if !product.Salable {
		err = fmt.Errorf(
			"failed merging productId=%s with error=%w",
			productID.String(),
			inErrors.ErrNotSalable,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.SaleLine{}, nil, err
	}

	logger = logger.With().Str(log.KeyProcess, "resolving price").Logger()
	logger.Trace().Msg("resolving price")
	quotation, err := s.prices.PriceFor(c, pricing.PriceQuery{
		PartyID:     sale.PartyID,
		ProductID:   productID,
		PriceListID: sale.PriceListID,
		Quantity:    quantity,
		Currency:    sale.Currency,
	})
	if err != nil {
		err = fmt.Errorf("failed resolving price with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.SaleLine{}, nil, err
	}
	logger.Trace().Str(log.KeyUnitPrice, quotation.UnitPrice.String()).Msg("resolved price")

	logger = logger.With().Str(log.KeyProcess, "merging line").Logger()
	var (
		line        repository.SaleLine
		priceChange *PriceChange
	)
	err = s.store.InTx(c, func(q repository.Querier) error {
		existing, err := q.FindSaleLineByProduct(c, sale.ID, productID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed finding sale line with error=%w", err)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			line, err = q.InsertSaleLine(c, repository.InsertSaleLineParams{
				ID:        uuid.New(),
				SaleID:    sale.ID,
				ProductID: productID,
				Quantity:  quantity,
				Unit:      quotation.Unit,
				UnitPrice: quotation.UnitPrice,
				Taxes:     quotation.Taxes,
			})
			if err != nil {
				return fmt.Errorf("failed inserting sale line with error=%w", err)
			}
			return nil
		}

		newQuantity := quantity
		if action == ActionAdd {
			newQuantity = existing.Quantity.Add(quantity)
			// the accumulated quantity may cross a quantity break
			quotation, err = s.prices.PriceFor(c, pricing.PriceQuery{
				PartyID:     sale.PartyID,
				ProductID:   productID,
				PriceListID: sale.PriceListID,
				Quantity:    newQuantity,
				Currency:    sale.Currency,
			})
			if err != nil {
				return fmt.Errorf("failed resolving price with error=%w", err)
			}
		}
		if !existing.UnitPrice.Equal(quotation.UnitPrice) {
			priceChange = &PriceChange{
				Product:  product,
				OldPrice: existing.UnitPrice,
				NewPrice: quotation.UnitPrice,
			}
		}
		line, err = q.UpdateSaleLine(c, repository.UpdateSaleLineParams{
			ID:        existing.ID,
			Quantity:  newQuantity,
			UnitPrice: quotation.UnitPrice,
			Taxes:     quotation.Taxes,
		})
		if err != nil {
			return fmt.Errorf("failed updating sale line with error=%w", err)
		}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed merging line with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.SaleLine{}, nil, err
	}

	linesMerged.Inc()
	logger.Info().
		Str(log.KeySaleLineID, line.ID.String()).
		Str(log.KeyQuantity, line.Quantity.String()).
		Msg("merged line")
	if priceChange != nil {
		logger.Info().
			Str("oldPrice", priceChange.OldPrice.String()).
			Str("newPrice", priceChange.NewPrice.String()).
			Msg("unit price superseded")
		span.AddEvent("unit price superseded")
	}
	return line, priceChange, nil
}

// DeleteLine removes a line from the attached order, scoped to the order so a
// visitor can never delete another order's line. A line that is already gone
// is reported via removed=false, not as an error.
func (s CartService) DeleteLine(
	c context.Context,
	rc webctx.RequestContext,
	lineID uuid.UUID,
) (bool, error) {
	c, span := otel.Tracer.Start(c, "CartService DeleteLine")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService DeleteLine").
		Str(log.KeySaleLineID, lineID.String()).
		Logger()

	c = logger.WithContext(c)
	cart, err := s.OpenCart(c, rc, false)
	if err != nil {
		err = fmt.Errorf("failed opening cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return false, err
	}
	if cart.SaleID == nil {
		logger.Debug().Msg("no order attached, nothing to delete")
		return false, nil
	}

	affected, err := s.store.DeleteSaleLine(c, lineID, *cart.SaleID)
	if err != nil {
		err = fmt.Errorf("failed deleting sale line with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return false, err
	}
	if affected == 0 {
		logger.Debug().Msg("sale line already removed")
		return false, nil
	}
	logger.Info().Msg("deleted sale line")
	return true, nil
}
