// Package webctx carries the per-request storefront context: who is acting,
// on which website, in which currency and locale. It replaces the ambient
// "current user / current currency" globals of older storefront stacks with a
// value passed explicitly into every resolver and line-engine call.
package webctx

import (
	"context"

	"github.com/google/uuid"
)

type RequestContext struct {
	// UserID is nil for guests.
	UserID *uuid.UUID
	// SessionID is the visitor's session token; set for guests and for
	// authenticated users alike.
	SessionID string
	WebsiteID uuid.UUID
	// GuestPartyID is the website's designated party for guest orders.
	GuestPartyID uuid.UUID
	Currency     string
	Locale       string
}

func (rc RequestContext) IsGuest() bool {
	return rc.UserID == nil
}

type ctxKey struct{}

func Attach(c context.Context, rc RequestContext) context.Context {
	return context.WithValue(c, ctxKey{}, rc)
}

func FromContext(c context.Context) RequestContext {
	if rc, ok := c.Value(ctxKey{}).(RequestContext); ok {
		return rc
	}
	return RequestContext{}
}
