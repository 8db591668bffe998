package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	inErrors "github.com/webshop/storefront/internal/errors"
	"github.com/webshop/storefront/internal/log"
	"github.com/webshop/storefront/internal/repository"
	"github.com/webshop/storefront/internal/webctx"
	"github.com/webshop/storefront/storefront/internal/common/otel"
	"github.com/webshop/storefront/storefront/internal/pricing"
)

// CartService binds a visitor's session to a draft sale order. It is the only
// component that creates, attaches and detaches carts; the line engine and
// the transfer handler build on top of it.
type CartService struct {
	store  Store
	prices pricing.PriceSource
}

func NewCartService(store Store, prices pricing.PriceSource) CartService {
	return CartService{store: store, prices: prices}
}

// FindCart resolves the at-most-one cart of the acting identity. For a
// registered user the session is immaterial; a guest cart is keyed purely by
// the session token. Absence is reported as pgx.ErrNoRows.
func (s CartService) FindCart(
	c context.Context,
	rc webctx.RequestContext,
	userID *uuid.UUID,
) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService FindCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService FindCart").
		Str(log.KeySessionID, rc.SessionID).
		Logger()

	if userID != nil {
		logger.Trace().Str(log.KeyUserID, userID.String()).Msg("finding cart by user")
		return s.store.FindCartByUser(c, *userID, rc.WebsiteID)
	}
	logger.Trace().Msg("finding cart by session")
	return s.store.FindCartBySession(c, rc.SessionID, rc.WebsiteID)
}

// OpenCart is guaranteed to return a cart. Without createOrder a missing cart
// comes back as a transient, unsaved value (ID is uuid.Nil) so read-only
// views never write. With createOrder the cart row and an attached draft
// order are assured, re-adopting an abandoned draft order for registered
// users before creating a fresh one.
func (s CartService) OpenCart(
	c context.Context,
	rc webctx.RequestContext,
	createOrder bool,
) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService OpenCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService OpenCart").
		Str(log.KeySessionID, rc.SessionID).
		Bool("createOrder", createOrder).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding cart").Logger()
	c = logger.WithContext(c)
	cart, err := s.FindCart(c, rc, rc.UserID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}
	found := err == nil

	if !found && !createOrder {
		logger.Debug().Msg("returning transient cart")
		return repository.Cart{
			UserID:    rc.UserID,
			SessionID: transientSessionID(rc),
			WebsiteID: rc.WebsiteID,
		}, nil
	}

	if !found {
		logger = logger.With().Str(log.KeyProcess, "creating cart").Logger()
		logger.Info().Msg("creating cart")
		cart, err = s.store.InsertCart(c, repository.InsertCartParams{
			ID:        uuid.New(),
			UserID:    rc.UserID,
			SessionID: transientSessionID(rc),
			WebsiteID: rc.WebsiteID,
		})
		if err != nil && errors.Is(err, inErrors.ErrCartConflict) {
			// a concurrent request won the race; adopt its cart
			logger.Info().Err(err).Msg("cart already created concurrently, re-resolving")
			c = logger.WithContext(c)
			cart, err = s.FindCart(c, rc, rc.UserID)
		}
		if err != nil {
			err = fmt.Errorf("failed creating cart with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return repository.Cart{}, err
		}
		cartsCreated.Inc()
		logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()
		logger.Info().Msg("created cart")
	} else {
		logger = logger.With().
			Str(log.KeyCartID, cart.ID.String()).
			Str(log.KeyProcess, "sanitising cart state").
			Logger()
		c = logger.WithContext(c)
		cart, err = s.sanitiseState(c, rc, cart)
		if err != nil {
			err = fmt.Errorf("failed sanitising cart state with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return repository.Cart{}, err
		}
	}

	if createOrder && cart.SaleID == nil {
		logger = logger.With().Str(log.KeyProcess, "attaching draft sale").Logger()
		c = logger.WithContext(c)
		cart, err = s.attachDraftSale(c, rc, cart)
		if err != nil {
			err = fmt.Errorf("failed attaching draft sale with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return repository.Cart{}, err
		}
	}

	return cart, nil
}

// sanitiseState detaches the cart's order when it is no longer usable: not in
// draft state anymore, priced in another currency than the session's, or
// owned by a different party than the resolving identity. Detachment never
// deletes the order or its lines.
func (s CartService) sanitiseState(
	c context.Context,
	rc webctx.RequestContext,
	cart repository.Cart,
) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService sanitiseState")
	defer span.End()

	if cart.SaleID == nil {
		return cart, nil
	}

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService sanitiseState").
		Str(log.KeyCartID, cart.ID.String()).
		Str(log.KeySaleID, cart.SaleID.String()).
		Logger()

	sale, findErr := s.store.FindSaleById(c, *cart.SaleID)
	if findErr != nil && !errors.Is(findErr, pgx.ErrNoRows) {
		return repository.Cart{}, findErr
	}

	party, err := s.resolvingParty(c, rc)
	if err != nil {
		return repository.Cart{}, err
	}

	stale := errors.Is(findErr, pgx.ErrNoRows) ||
		sale.State != repository.SaleStateDraft ||
		sale.Currency != rc.Currency ||
		sale.PartyID != party

	if !stale {
		return cart, nil
	}

	logger.Info().
		Str("saleState", sale.State).
		Str(log.KeyCurrency, sale.Currency).
		Msg("detaching stale sale from cart")
	if err := s.store.UpdateCartSale(c, cart.ID, nil); err != nil {
		return repository.Cart{}, fmt.Errorf("failed detaching sale with error=%w", err)
	}
	cart.SaleID = nil
	span.AddEvent("detached stale sale")
	return cart, nil
}

// attachDraftSale gives the cart an order: for registered users it first
// looks for an abandoned draft order of the same party, website and currency
// (a cart started in an earlier session, e.g. on another device), and only
// creates a fresh one when none exists.
func (s CartService) attachDraftSale(
	c context.Context,
	rc webctx.RequestContext,
	cart repository.Cart,
) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService attachDraftSale")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService attachDraftSale").
		Str(log.KeyCartID, cart.ID.String()).
		Logger()

	party, err := s.resolvingParty(c, rc)
	if err != nil {
		return repository.Cart{}, err
	}

	if !rc.IsGuest() {
		abandoned, err := s.store.FindAbandonedSale(c, repository.FindAbandonedSaleParams{
			WebsiteID: rc.WebsiteID,
			PartyID:   party,
			Currency:  rc.Currency,
		})
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return repository.Cart{}, err
		}
		if err == nil {
			logger.Info().
				Str(log.KeySaleID, abandoned.ID.String()).
				Msg("re-adopting abandoned draft sale")
			if err := s.store.UpdateCartSale(c, cart.ID, &abandoned.ID); err != nil {
				return repository.Cart{}, err
			}
			draftSalesReadopted.Inc()
			cart.SaleID = &abandoned.ID
			span.AddEvent("re-adopted abandoned draft sale")
			return cart, nil
		}
	}

	c = logger.WithContext(c)
	sale, err := s.CreateDraftSale(c, rc, party)
	if err != nil {
		return repository.Cart{}, err
	}
	if err := s.store.UpdateCartSale(c, cart.ID, &sale.ID); err != nil {
		return repository.Cart{}, err
	}
	cart.SaleID = &sale.ID
	return cart, nil
}

// CreateDraftSale builds a fresh cart-origin draft order for the given party
// in the session's currency. The price list comes from the party, falling
// back to the website's guest party; prices themselves are never computed
// here.
func (s CartService) CreateDraftSale(
	c context.Context,
	rc webctx.RequestContext,
	partyID uuid.UUID,
) (repository.Sale, error) {
	c, span := otel.Tracer.Start(c, "CartService CreateDraftSale")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService CreateDraftSale").
		Str(log.KeyPartyID, partyID.String()).
		Str(log.KeyCurrency, rc.Currency).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "resolving price list").Logger()
	logger.Trace().Msg("resolving price list")
	party, err := s.store.FindPartyById(c, partyID)
	if err != nil {
		err = fmt.Errorf("failed finding partyId=%s with error=%w", partyID.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Sale{}, err
	}
	priceList := party.SalePriceListID
	if priceList == nil && partyID != rc.GuestPartyID {
		guestParty, err := s.store.FindPartyById(c, rc.GuestPartyID)
		if err != nil {
			err = fmt.Errorf("failed finding guest party with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return repository.Sale{}, err
		}
		priceList = guestParty.SalePriceListID
	}
	logger.Trace().Msg("resolved price list")

	logger = logger.With().Str(log.KeyProcess, "inserting sale").Logger()
	logger.Info().Msg("inserting draft sale")
	sale, err := s.store.InsertSale(c, repository.InsertSaleParams{
		ID:          uuid.New(),
		PartyID:     partyID,
		UserID:      rc.UserID,
		WebsiteID:   rc.WebsiteID,
		PriceListID: priceList,
		Currency:    rc.Currency,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting draft sale with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Sale{}, err
	}
	logger.Info().Str(log.KeySaleID, sale.ID.String()).Msg("inserted draft sale")

	return sale, nil
}

// ClearCart cancels and deletes the attached order, then removes the cart row
// itself so the next resolution starts fresh.
func (s CartService) ClearCart(c context.Context, rc webctx.RequestContext) error {
	c, span := otel.Tracer.Start(c, "CartService ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ClearCart").
		Str(log.KeySessionID, rc.SessionID).
		Logger()

	c = logger.WithContext(c)
	cart, err := s.OpenCart(c, rc, false)
	if err != nil {
		err = fmt.Errorf("failed opening cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if cart.ID == uuid.Nil {
		// transient cart, nothing persisted to clear
		return nil
	}

	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()
	err = s.store.InTx(c, func(q repository.Querier) error {
		return clearCart(c, q, cart)
	})
	if err != nil {
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	cartsCleared.Inc()
	logger.Info().Msg("cleared cart")
	return nil
}

// clearCart is shared with the session transfer handler, which clears the
// guest cart inside its own transaction.
func clearCart(c context.Context, q repository.Querier, cart repository.Cart) error {
	if cart.SaleID != nil {
		if err := q.UpdateSaleState(c, *cart.SaleID, repository.SaleStateCancelled); err != nil {
			return fmt.Errorf("failed cancelling sale with error=%w", err)
		}
		if _, err := q.DeleteSale(c, *cart.SaleID); err != nil {
			return fmt.Errorf("failed deleting sale with error=%w", err)
		}
	}
	if _, err := q.DeleteCart(c, cart.ID); err != nil {
		return fmt.Errorf("failed deleting cart with error=%w", err)
	}
	return nil
}

// Contents is what the cart views render: the cart, its order if any, the
// order's lines and the products they refer to.
type Contents struct {
	Cart     repository.Cart
	Sale     *repository.Sale
	Lines    []repository.SaleLine
	Products map[uuid.UUID]repository.Product
}

// CartContents resolves the cart without writing and loads the attached
// order's lines for rendering.
func (s CartService) CartContents(
	c context.Context,
	rc webctx.RequestContext,
) (Contents, error) {
	c, span := otel.Tracer.Start(c, "CartService CartContents")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService CartContents").
		Logger()

	c = logger.WithContext(c)
	cart, err := s.OpenCart(c, rc, false)
	if err != nil {
		return Contents{}, err
	}
	contents := Contents{Cart: cart}
	if cart.SaleID == nil {
		return contents, nil
	}

	sale, err := s.store.FindSaleById(c, *cart.SaleID)
	if err != nil {
		err = fmt.Errorf("failed finding sale with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Contents{}, err
	}
	lines, err := s.store.FindSaleLines(c, sale.ID)
	if err != nil {
		err = fmt.Errorf("failed finding sale lines with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Contents{}, err
	}
	products := map[uuid.UUID]repository.Product{}
	for _, line := range lines {
		if _, ok := products[line.ProductID]; ok {
			continue
		}
		product, err := s.store.FindProductById(c, line.ProductID)
		if err != nil {
			err = fmt.Errorf("failed finding sale line product with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return Contents{}, err
		}
		products[line.ProductID] = product
	}
	contents.Sale = &sale
	contents.Lines = lines
	contents.Products = products
	return contents, nil
}

// SaleOf loads the order attached to a cart resolved with createOrder.
func (s CartService) SaleOf(c context.Context, cart repository.Cart) (repository.Sale, error) {
	if cart.SaleID == nil {
		return repository.Sale{}, fmt.Errorf(
			"failed finding sale of cartId=%s with error=%w",
			cart.ID.String(),
			inErrors.ErrNotFound,
		)
	}
	return s.store.FindSaleById(c, *cart.SaleID)
}

// resolvingParty is the party prices and orders are computed against: the
// registered user's party, or the website's guest party.
func (s CartService) resolvingParty(
	c context.Context,
	rc webctx.RequestContext,
) (uuid.UUID, error) {
	if rc.IsGuest() {
		return rc.GuestPartyID, nil
	}
	user, err := s.store.FindUserById(c, *rc.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf(
			"failed finding userId=%s with error=%w",
			rc.UserID.String(),
			err,
		)
	}
	return user.PartyID, nil
}

// transientSessionID keys guest carts by session; registered carts carry no
// session id at all.
func transientSessionID(rc webctx.RequestContext) *string {
	if rc.UserID != nil {
		return nil
	}
	sessionID := rc.SessionID
	return &sessionID
}
