package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	inErrors "github.com/webshop/storefront/internal/errors"
	"github.com/webshop/storefront/internal/log"
	"github.com/webshop/storefront/internal/repository"
	"github.com/webshop/storefront/internal/webctx"
	"github.com/webshop/storefront/storefront/internal/common/otel"
)

// TransferGuestCart folds the cart built under the pre-login session into the
// just-authenticated user's cart. Lines merge in add mode so quantities
// accumulate instead of overwriting. Once lines have been carried over the
// guest cart is cleared, whether or not every line made it across, so the
// stale session can never resurface it. A guest cart without lines is left
// untouched.
func (s CartService) TransferGuestCart(
	c context.Context,
	rc webctx.RequestContext,
	preLoginSessionID string,
) error {
	c, span := otel.Tracer.Start(c, "CartService TransferGuestCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService TransferGuestCart").
		Str(log.KeySessionID, preLoginSessionID).
		Logger()

	if rc.IsGuest() {
		err := fmt.Errorf("failed transferring cart with error=%w", inErrors.ErrEmptyAuth)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().Str(log.KeyUserID, rc.UserID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "finding guest cart").Logger()
	logger.Trace().Msg("finding guest cart")
	guestCart, err := s.store.FindCartBySession(c, preLoginSessionID, rc.WebsiteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Debug().Msg("no guest cart, nothing to transfer")
			return nil
		}
		err = fmt.Errorf("failed finding guest cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().Str(log.KeyCartID, guestCart.ID.String()).Logger()

	lines, err := s.guestLines(c, guestCart)
	if err != nil {
		err = fmt.Errorf("failed loading guest cart lines with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	if len(lines) == 0 {
		logger.Debug().Msg("guest cart has no lines, nothing to transfer")
		return nil
	}

	logger = logger.With().Str(log.KeyProcess, "merging guest lines").Logger()
	logger.Info().Int("lineCount", len(lines)).Msg("merging guest lines into user cart")

	c = logger.WithContext(c)
	userCart, err := s.OpenCart(c, rc, true)
	if err != nil {
		err = fmt.Errorf("failed opening user cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	userSale, err := s.store.FindSaleById(c, *userCart.SaleID)
	if err != nil {
		err = fmt.Errorf("failed finding user sale with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	for _, line := range lines {
		_, _, err := s.AddOrUpdate(c, rc, userSale, line.ProductID, line.Quantity, ActionAdd)
		if err != nil {
			// a product may have gone off sale between sessions; the
			// remaining lines still transfer
			logger.Warn().
				Err(err).
				Str(log.KeyProductID, line.ProductID.String()).
				Msg("skipping untransferable line")
			span.AddEvent("skipped untransferable line")
			continue
		}
	}

	logger = logger.With().Str(log.KeyProcess, "clearing guest cart").Logger()
	logger.Info().Msg("clearing guest cart")
	err = s.store.InTx(c, func(q repository.Querier) error {
		return clearCart(c, q, guestCart)
	})
	if err != nil {
		err = fmt.Errorf("failed clearing guest cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	cartsTransferred.Inc()
	logger.Info().Msg("transferred guest cart")
	return nil
}

// guestLines loads the guest order's lines, tolerating a cart whose order is
// missing or already gone.
func (s CartService) guestLines(
	c context.Context,
	cart repository.Cart,
) ([]repository.SaleLine, error) {
	if cart.SaleID == nil {
		return nil, nil
	}
	sale, err := s.store.FindSaleById(c, *cart.SaleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s.store.FindSaleLines(c, sale.ID)
}
