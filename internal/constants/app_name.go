package constants

const (
	AppStorefrontService = "storefront-service"
	AppMainWebshop       = "main webshop"
	AudienceStorefront   = "audience-storefront"
)
