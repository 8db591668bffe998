package http

const (
	KeyHeaderContentType   = "Content-Type"
	KeyHeaderCacheControl  = "Cache-Control"
	KeyHeaderRequestID     = "X-Request-Id"
	KeyHeaderRequestedWith = "X-Requested-With"

	ValueHeaderApplicationJson = "application/json"
	ValueHeaderNoCache         = "max-age=0"
	ValueHeaderXmlHttpRequest  = "XMLHttpRequest"
)
