package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	inHttp "github.com/webshop/storefront/internal/http"
)

// AddProduct is the merge request of the storefront: which product, how
// many, and how an existing line should be updated.
type AddProduct struct {
	Product  string `json:"product"  validate:"required,uuid"`
	Quantity string `json:"quantity" validate:"required"`
	Action   string `json:"action"   validate:"omitempty,oneof=set add"`
}

type SetCurrency struct {
	Currency string `json:"currency" validate:"required,iso4217"`
}

type TransferCart struct {
	PreLoginSession string `json:"pre_login_session" validate:"required"`
}

// ParseBody fills dst from either a JSON body or an HTML form, so the same
// handlers serve programmatic clients and classic storefront forms.
func ParseBody(r *http.Request, dst any) error {
	contentType := r.Header.Get(inHttp.KeyHeaderContentType)
	if strings.HasPrefix(contentType, inHttp.ValueHeaderApplicationJson) {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return fmt.Errorf("failed decoding request body with error=%w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("failed parsing form with error=%w", err)
	}
	switch body := dst.(type) {
	case *AddProduct:
		body.Product = r.PostFormValue("product")
		body.Quantity = r.PostFormValue("quantity")
		body.Action = r.PostFormValue("action")
	case *SetCurrency:
		body.Currency = r.PostFormValue("currency")
	case *TransferCart:
		body.PreLoginSession = r.PostFormValue("pre_login_session")
	default:
		return fmt.Errorf("unsupported request body type %T", dst)
	}
	return nil
}
