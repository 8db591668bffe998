package middleware

import (
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/webshop/storefront/internal/auth"
	"github.com/webshop/storefront/internal/config"
	inHttp "github.com/webshop/storefront/internal/http"
	"github.com/webshop/storefront/internal/log"
	"github.com/webshop/storefront/internal/session"
	"github.com/webshop/storefront/internal/webctx"
)

// WebContext builds the explicit request context every resolver call takes:
// the acting identity (from an optional bearer token), the session token, the
// website and the session's currency and locale. A missing or invalid token
// for a state-changing identity is rejected; absence of a token means guest.
func WebContext(
	manager *scs.SessionManager,
	website config.Website,
	application config.Application,
) func(http.Handler) http.Handler {
	websiteID := uuid.MustParse(website.ID)
	guestPartyID := uuid.MustParse(website.GuestParty)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := r.Context()
			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware WebContext").Logger()

			rc := webctx.RequestContext{
				SessionID:    manager.Token(c),
				WebsiteID:    websiteID,
				GuestPartyID: guestPartyID,
				Currency:     session.Currency(c, manager, website.Currency),
				Locale:       session.Locale(c, manager, website.Locale),
			}

			authorization := r.Header.Get("Authorization")
			if authorization != "" {
				token := strings.TrimPrefix(authorization, "Bearer ")
				jwtToken, err := auth.VerifyToken(c, token, application.SecretKey)
				if err != nil {
					logger.Error().Err(err).Msg(err.Error())
					inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
						"status":     "failed",
						"statusCode": http.StatusUnauthorized,
						"message":    "invalid token",
					})
					return
				}
				userId, err := auth.UserIdFromToken(jwtToken)
				if err != nil {
					logger.Error().Err(err).Msg(err.Error())
					inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
						"status":     "failed",
						"statusCode": http.StatusUnauthorized,
						"message":    "invalid token subject",
					})
					return
				}
				rc.UserID = &userId
				logger = logger.With().Str(log.KeyUserID, userId.String()).Logger()
			}

			logger = logger.With().
				Str(log.KeySessionID, rc.SessionID).
				Str(log.KeyCurrency, rc.Currency).
				Str(log.KeyLocale, rc.Locale).
				Logger()
			logger.Trace().Msg("attached request context")

			c = webctx.Attach(c, rc)
			c = logger.WithContext(c)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
