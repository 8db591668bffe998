package response

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/webshop/storefront/internal/repository"
	"github.com/webshop/storefront/storefront/internal/service"
)

// NewCart renders the resolved cart contents for the visitor's locale. An
// empty or transient cart renders as an empty basket, never as an error.
func NewCart(contents service.Contents, locale string, currencyCode string) Cart {
	printer := message.NewPrinter(language.Make(locale))
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.USD
	}
	format := func(amount decimal.Decimal) string {
		value, _ := amount.Float64()
		return printer.Sprintf("%v", currency.Symbol(unit.Amount(value)))
	}

	cart := Cart{
		Empty:         len(contents.Lines) == 0,
		Lines:         []CartLine{},
		CartSize:      decimal.Zero.String(),
		UntaxedAmount: format(decimal.Zero),
		TaxAmount:     format(decimal.Zero),
		TotalAmount:   format(decimal.Zero),
	}
	if contents.Sale == nil {
		return cart
	}

	size := decimal.Zero
	untaxed := decimal.Zero
	tax := decimal.Zero
	for _, line := range contents.Lines {
		size = size.Add(line.Quantity)
		untaxed = untaxed.Add(line.Amount())
		tax = tax.Add(line.TaxAmount())
		cart.Lines = append(cart.Lines, newCartLine(line, contents.Products[line.ProductID], format))
	}
	cart.CartSize = size.String()
	cart.UntaxedAmount = format(untaxed)
	cart.TaxAmount = format(tax)
	cart.TotalAmount = format(untaxed.Add(tax))
	return cart
}

func newCartLine(
	line repository.SaleLine,
	product repository.Product,
	format func(decimal.Decimal) string,
) CartLine {
	return CartLine{
		ID:        line.ID.String(),
		Product:   product.Name,
		ProductID: line.ProductID.String(),
		Quantity:  line.Quantity.String(),
		Unit:      line.Unit,
		UnitPrice: format(line.UnitPrice),
		Amount:    format(line.Amount()),
	}
}
