package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	inErrors "github.com/webshop/storefront/internal/errors"
	"github.com/webshop/storefront/internal/log"
	"github.com/webshop/storefront/storefront/internal/common/otel"
)

const cacheTTL = 5 * time.Minute

// CachedPriceSource memoizes quotations for a short window. The key carries
// everything the quotation depends on, so a party or currency switch never
// reads a stale price.
type CachedPriceSource struct {
	source PriceSource
	cache  *redis.Client
}

func NewCachedPriceSource(source PriceSource, cache *redis.Client) CachedPriceSource {
	return CachedPriceSource{source: source, cache: cache}
}

func (s CachedPriceSource) PriceFor(c context.Context, query PriceQuery) (Quotation, error) {
	c, span := otel.Tracer.Start(c, "CachedPriceSource PriceFor")
	defer span.End()

	priceList := "none"
	if query.PriceListID != nil {
		priceList = query.PriceListID.String()
	}
	cacheKey := fmt.Sprintf(
		"prices:%s:%s:%s:%s:%s",
		query.PartyID.String(),
		priceList,
		query.ProductID.String(),
		query.Quantity.String(),
		query.Currency,
	)

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CachedPriceSource PriceFor").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	jsonCache, err := s.cache.Get(c, cacheKey).Result()
	if err == nil {
		quotation := Quotation{}
		if err := json.Unmarshal([]byte(jsonCache), &quotation); err == nil {
			logger.Trace().Msg("found quotation in cache")
			return quotation, nil
		}
		logger.Info().Msg("dropping undecodable cached quotation")
	}

	quotation, err := s.source.PriceFor(c, query)
	if err != nil {
		inErrors.HandleError(err, span)
		return Quotation{}, err
	}

	raw, err := json.Marshal(quotation)
	if err != nil {
		err = fmt.Errorf("failed marshaling quotation with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return quotation, nil
	}
	if err := s.cache.Set(c, cacheKey, raw, cacheTTL).Err(); err != nil {
		err = fmt.Errorf("failed inserting quotation to cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}

	return quotation, nil
}

var _ PriceSource = CachedPriceSource{}
