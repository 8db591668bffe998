package otel

import (
	"go.opentelemetry.io/otel"

	"github.com/webshop/storefront/internal/constants"
)

var Tracer = otel.Tracer(constants.AppMainWebshop)
