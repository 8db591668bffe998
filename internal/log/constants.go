package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyConfig             = "config"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyUserID             = "userId"
	KeySessionID          = "sessionId"
	KeyWebsiteID          = "websiteId"
	KeyCartID             = "cartId"
	KeySaleID             = "saleId"
	KeySaleLineID         = "saleLineId"
	KeyProductID          = "productId"
	KeyPartyID            = "partyId"
	KeyPriceListID        = "priceListId"
	KeyCurrency           = "currency"
	KeyLocale             = "locale"
	KeyQuantity           = "quantity"
	KeyUnitPrice          = "unitPrice"
	KeyAction             = "action"
	KeyCacheKey           = "cacheKey"
	KeyCart               = "cart"
	KeySale               = "sale"
	KeySaleLines          = "saleLines"
	KeyPathValues         = "pathValues"
	KeyRequestProcessedAt = "requestProcessedAt"
)
