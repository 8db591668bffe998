package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/webshop/storefront/internal/constants"
	inErrors "github.com/webshop/storefront/internal/errors"
	"github.com/webshop/storefront/internal/log"
	"github.com/webshop/storefront/internal/otel"
)

func VerifyToken(c context.Context, token string, secret string) (*jwt.Token, error) {
	c, span := otel.Tracer.Start(c, "VerifyToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "VerifyToken").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing claims").Logger()
	logger.Trace().Msg("parsing claims")
	jwtToken, err := jwt.ParseWithClaims(token,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithAudience(constants.AudienceStorefront),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		otel.RecordError(err, span)
		return nil, err
	}
	logger.Trace().Msg("parsed claims")

	if !jwtToken.Valid {
		err = fmt.Errorf("failed validating token with error=%w", inErrors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, inErrors.ErrTokenInvalid
	}

	return jwtToken, nil
}

func UserIdFromToken(jwtToken *jwt.Token) (uuid.UUID, error) {
	subject, err := jwtToken.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed getting subject from jwt with error=%w", err)
	}
	userId, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed parsing subject=%s with error=%w", subject, err)
	}
	return userId, nil
}
