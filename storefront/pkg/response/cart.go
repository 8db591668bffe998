package response

type CartLine struct {
	ID        string `json:"id"`
	Product   string `json:"product"`
	ProductID string `json:"product_id"`
	Quantity  string `json:"quantity"`
	Unit      string `json:"unit"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

// Cart is the rendered basket: amounts come pre-formatted in the visitor's
// locale and the order's currency.
type Cart struct {
	Empty         bool       `json:"empty"`
	CartSize      string     `json:"cart_size"`
	Lines         []CartLine `json:"lines"`
	UntaxedAmount string     `json:"untaxed_amount"`
	TaxAmount     string     `json:"tax_amount"`
	TotalAmount   string     `json:"total_amount"`
}
