package errors

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyAuth          = errors.New("missing authorization")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrNotFound           = errors.New("record not found")
	ErrNotSalable         = errors.New("product cannot be sold")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrNoPriceList        = errors.New("no price list could be resolved")
	ErrCartConflict       = errors.New("concurrent cart creation")
	ErrSaleNotDraft       = errors.New("sale is not in draft state")
	ErrLineAlreadyRemoved = errors.New("order line already removed")
)

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
