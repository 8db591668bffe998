package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	inErrors "github.com/webshop/storefront/internal/errors"
	inHttp "github.com/webshop/storefront/internal/http"
	"github.com/webshop/storefront/internal/log"
	"github.com/webshop/storefront/internal/session"
	"github.com/webshop/storefront/internal/webctx"
	"github.com/webshop/storefront/storefront/internal/common/otel"
	"github.com/webshop/storefront/storefront/internal/service"
	"github.com/webshop/storefront/storefront/pkg/request"
	"github.com/webshop/storefront/storefront/pkg/response"
)

const (
	noticeCartUpdated  = "The order has been successfully updated"
	noticeLineRemoved  = "The order item has been successfully removed"
	noticeCartCleared  = "Your shopping cart has been cleared"
	noticeInvalidInput = "The order could not be updated"
)

type CartController struct {
	service  service.CartService
	sessions *scs.SessionManager
}

func AttachCartController(
	router *mux.Router,
	cartService service.CartService,
	sessions *scs.SessionManager,
) {
	controller := CartController{service: cartService, sessions: sessions}

	cart := router.PathPrefix("/cart").Subrouter()
	cart.HandleFunc("", controller.RenderCart).Methods(http.MethodGet)
	cart.HandleFunc("/esi", controller.RenderCartEsi).Methods(http.MethodGet)
	cart.HandleFunc("/add", controller.AddProduct).Methods(http.MethodPost)
	cart.HandleFunc("/delete/{lineId}", controller.DeleteLine).
		Methods(http.MethodPost, http.MethodDelete)
	cart.HandleFunc("/clear", controller.ClearCart).Methods(http.MethodPost)
	cart.HandleFunc("/transfer", controller.TransferCart).Methods(http.MethodPost)

	router.HandleFunc("/currency", controller.SetCurrency).Methods(http.MethodPost)
}

// RenderCart serves the cart page payload. Resolution is read-only: a
// visitor without a cart sees an empty basket and nothing is written.
func (t CartController) RenderCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RenderCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RenderCart").
		Logger()
	rc := webctx.FromContext(c)

	logger = logger.With().Str(log.KeyProcess, "resolving cart contents").Logger()
	c = logger.WithContext(c)
	contents, err := t.service.CartContents(c, rc)
	if err != nil {
		err = fmt.Errorf("failed resolving cart contents with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}

	header := map[string]string{inHttp.KeyHeaderCacheControl: inHttp.ValueHeaderNoCache}
	inHttp.WriteJsonResponse(c, w, header, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"data": map[string]interface{}{
			"cart":     response.NewCart(contents, rc.Locale, rc.Currency),
			"messages": session.PopFlashes(c, t.sessions),
		},
	})
}

// RenderCartEsi serves the cart fragment embedded into cached pages. The
// fragment itself must never be cached, otherwise one visitor's basket leaks
// into another's page.
func (t CartController) RenderCartEsi(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RenderCartEsi")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RenderCartEsi").
		Logger()
	rc := webctx.FromContext(c)

	c = logger.WithContext(c)
	contents, err := t.service.CartContents(c, rc)
	if err != nil {
		err = fmt.Errorf("failed resolving cart contents with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}

	header := map[string]string{inHttp.KeyHeaderCacheControl: inHttp.ValueHeaderNoCache}
	inHttp.WriteJsonResponse(c, w, header, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"data": map[string]interface{}{
			"cart": response.NewCart(contents, rc.Locale, rc.Currency),
		},
	})
}

// AddProduct merges a product into the cart. Classic form posts get a flash
// message and a redirect back to the cart; programmatic clients get JSON.
func (t CartController) AddProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddProduct").
		Logger()
	rc := webctx.FromContext(c)

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.AddProduct{}
	if err := request.ParseBody(r, &reqBody); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.rejectUpdate(c, w, r, err)
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating requestbody").Logger()
	logger.Info().Msg("validating request body")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.rejectUpdate(c, w, r, err)
		return
	}
	productID, err := uuid.Parse(reqBody.Product)
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.rejectUpdate(c, w, r, err)
		return
	}
	quantity, err := decimal.NewFromString(reqBody.Quantity)
	if err != nil {
		err = fmt.Errorf("failed parsing quantity with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.rejectUpdate(c, w, r, err)
		return
	}
	action, err := service.ParseMergeAction(reqBody.Action)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.rejectUpdate(c, w, r, err)
		return
	}
	logger.Info().Msg("validated request body")

	logger = logger.With().
		Str(log.KeyProcess, "merging product into cart").
		Str(log.KeyProductID, productID.String()).
		Str(log.KeyQuantity, quantity.String()).
		Str(log.KeyAction, string(action)).
		Logger()

	if quantity.Sign() <= 0 {
		// rejected before any cart or order exists, so nothing is created
		logger.Info().Msg("rejecting non-positive quantity")
		t.rejectUpdate(c, w, r, inErrors.ErrInvalidQuantity)
		return
	}

	logger.Info().Msg("opening cart")
	c = logger.WithContext(c)
	cart, err := t.service.OpenCart(c, rc, true)
	if err != nil {
		err = fmt.Errorf("failed opening cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	sale, err := t.service.SaleOf(c, cart)
	if err != nil {
		err = fmt.Errorf("failed finding cart sale with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}

	logger.Info().Msg("merging product")
	_, priceChange, err := t.service.AddOrUpdate(c, rc, sale, productID, quantity, action)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.rejectUpdate(c, w, r, err)
		return
	}
	logger.Info().Msg("merged product")

	session.AddFlash(c, t.sessions, noticeCartUpdated)
	if priceChange != nil {
		session.AddFlash(c, t.sessions, priceChange.Notice())
	}
	t.acceptUpdate(c, w, r)
}

// DeleteLine removes one line from the cart. Deleting a line that is already
// gone, e.g. from a second tab, is reported as a success.
func (t CartController) DeleteLine(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController DeleteLine")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController DeleteLine").
		Logger()
	rc := webctx.FromContext(c)

	logger = logger.With().Str(log.KeyProcess, "parsing lineId").Logger()
	pathValues := mux.Vars(r)
	lineID, err := uuid.Parse(pathValues["lineId"])
	if err != nil {
		err = fmt.Errorf("failed parsing lineId with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.rejectUpdate(c, w, r, err)
		return
	}
	logger = logger.With().Str(log.KeySaleLineID, lineID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "deleting sale line").Logger()
	logger.Info().Msg("deleting sale line")
	c = logger.WithContext(c)
	removed, err := t.service.DeleteLine(c, rc, lineID)
	if err != nil {
		err = fmt.Errorf("failed deleting sale line with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Bool("removed", removed).Msg("deleted sale line")

	session.AddFlash(c, t.sessions, noticeLineRemoved)
	t.acceptUpdate(c, w, r)
}

// ClearCart empties the basket and drops the cart row.
func (t CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController ClearCart").
		Str(log.KeyProcess, "clearing cart").
		Logger()
	rc := webctx.FromContext(c)

	logger.Info().Msg("clearing cart")
	c = logger.WithContext(c)
	if err := t.service.ClearCart(c, rc); err != nil {
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("cleared cart")

	session.AddFlash(c, t.sessions, noticeCartCleared)
	t.acceptUpdate(c, w, r)
}

// TransferCart folds the pre-login guest cart into the authenticated user's
// cart. Partial failures are logged, never surfaced: login must not break
// because a basket line went stale.
func (t CartController) TransferCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController TransferCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController TransferCart").
		Logger()
	rc := webctx.FromContext(c)

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	reqBody := request.TransferCart{}
	if err := request.ParseBody(r, &reqBody); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	if rc.IsGuest() {
		err := fmt.Errorf("failed transferring cart with error=%w", inErrors.ErrEmptyAuth)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "transferring guest cart").Logger()
	logger.Info().Msg("transferring guest cart")
	c = logger.WithContext(c)
	if err := t.service.TransferGuestCart(c, rc, reqBody.PreLoginSession); err != nil {
		// the login flow goes on; the visitor keeps whatever transferred
		err = fmt.Errorf("failed transferring guest cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	} else {
		logger.Info().Msg("transferred guest cart")
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "OK",
	})
}

// SetCurrency switches the session currency. The cart's order is detached on
// the next resolution, so prices are never silently mixed across currencies.
func (t CartController) SetCurrency(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController SetCurrency")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController SetCurrency").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	reqBody := request.SetCurrency{}
	if err := request.ParseBody(r, &reqBody); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.rejectUpdate(c, w, r, err)
		return
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.rejectUpdate(c, w, r, err)
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "switching currency").
		Str(log.KeyCurrency, reqBody.Currency).
		Logger()
	logger.Info().Msg("switching currency")
	session.SetCurrency(c, t.sessions, reqBody.Currency)
	logger.Info().Msg("switched currency")

	t.acceptUpdate(c, w, r)
}

// acceptUpdate ends a mutating request: JSON for programmatic clients, a
// redirect back to the cart page for form posts. The human-readable notice
// travels in the flash, never in the JSON body.
func (t CartController) acceptUpdate(
	c context.Context,
	w http.ResponseWriter,
	r *http.Request,
) {
	if inHttp.IsXhr(r) {
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "success",
			"statusCode": http.StatusOK,
			"message":    "OK",
		})
		return
	}
	http.Redirect(w, r, "/cart", http.StatusFound)
}

// rejectUpdate ends a rejected mutating request. Programmatic clients get the
// reason; form posts get a flash notice and the cart page again.
func (t CartController) rejectUpdate(
	c context.Context,
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	if inHttp.IsXhr(r) {
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	session.AddFlash(c, t.sessions, noticeInvalidInput)
	http.Redirect(w, r, "/cart", http.StatusFound)
}
