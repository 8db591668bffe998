package pricing

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webshop/storefront/internal/repository"
)

type fakeCatalog struct {
	products   map[uuid.UUID]repository.Product
	priceLines map[uuid.UUID][]repository.PriceListLine
}

func (f fakeCatalog) FindProductById(
	_ context.Context,
	id uuid.UUID,
) (repository.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return repository.Product{}, pgx.ErrNoRows
	}
	return product, nil
}

func (f fakeCatalog) FindPriceListLines(
	_ context.Context,
	priceListID uuid.UUID,
) ([]repository.PriceListLine, error) {
	lines := append([]repository.PriceListLine{}, f.priceLines[priceListID]...)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].MinQuantity.GreaterThan(lines[j].MinQuantity)
	})
	return lines, nil
}

func TestPriceForWithoutPriceListUsesListPrice(t *testing.T) {
	productID := uuid.New()
	engine := NewEngine(fakeCatalog{
		products: map[uuid.UUID]repository.Product{
			productID: {
				ID:        productID,
				Name:      "Coffee Beans",
				Unit:      "unit",
				ListPrice: decimal.RequireFromString("7.00"),
				Salable:   true,
				Taxes: []repository.Tax{
					{Name: "VAT", Rate: decimal.RequireFromString("0.2")},
				},
			},
		},
	})

	quotation, err := engine.PriceFor(context.Background(), PriceQuery{
		PartyID:   uuid.New(),
		ProductID: productID,
		Quantity:  decimal.NewFromInt(10),
		Currency:  "USD",
	})

	require.NoError(t, err)
	assert.Equal(t, "7", quotation.UnitPrice.String())
	assert.Equal(t, "unit", quotation.Unit)
	require.Len(t, quotation.Taxes, 1)
	assert.Equal(t, "VAT", quotation.Taxes[0].Name)
}

func TestPriceForAppliesDeepestReachedQuantityBreak(t *testing.T) {
	productID := uuid.New()
	priceListID := uuid.New()
	engine := NewEngine(fakeCatalog{
		products: map[uuid.UUID]repository.Product{
			productID: {
				ID:        productID,
				Unit:      "unit",
				ListPrice: decimal.RequireFromString("100.00"),
				Salable:   true,
			},
		},
		priceLines: map[uuid.UUID][]repository.PriceListLine{
			priceListID: {
				{
					PriceListID: priceListID,
					MinQuantity: decimal.Zero,
					Margin:      decimal.NewFromInt(1),
				},
				{
					PriceListID: priceListID,
					MinQuantity: decimal.NewFromInt(10),
					Margin:      decimal.RequireFromString("0.95"),
				},
				{
					PriceListID: priceListID,
					MinQuantity: decimal.NewFromInt(100),
					Margin:      decimal.RequireFromString("0.8"),
				},
			},
		},
	})

	tests := []struct {
		name     string
		quantity int64
		expected string
	}{
		{name: "given quantity below every break should use list price", quantity: 9, expected: "100"},
		{name: "given quantity at first break should discount", quantity: 10, expected: "95"},
		{name: "given quantity between breaks should keep first break", quantity: 99, expected: "95"},
		{name: "given quantity at deepest break should use deepest margin", quantity: 100, expected: "80"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			quotation, err := engine.PriceFor(context.Background(), PriceQuery{
				PartyID:     uuid.New(),
				ProductID:   productID,
				PriceListID: &priceListID,
				Quantity:    decimal.NewFromInt(test.quantity),
				Currency:    "USD",
			})

			require.NoError(t, err)
			assert.Equal(t, test.expected, quotation.UnitPrice.String())
		})
	}
}

func TestPriceForRoundsToStoredPrecision(t *testing.T) {
	productID := uuid.New()
	priceListID := uuid.New()
	engine := NewEngine(fakeCatalog{
		products: map[uuid.UUID]repository.Product{
			productID: {
				ID:        productID,
				Unit:      "unit",
				ListPrice: decimal.RequireFromString("9.99"),
				Salable:   true,
			},
		},
		priceLines: map[uuid.UUID][]repository.PriceListLine{
			priceListID: {
				{
					PriceListID: priceListID,
					MinQuantity: decimal.Zero,
					Margin:      decimal.RequireFromString("0.333333"),
				},
			},
		},
	})

	quotation, err := engine.PriceFor(context.Background(), PriceQuery{
		PartyID:     uuid.New(),
		ProductID:   productID,
		PriceListID: &priceListID,
		Quantity:    decimal.NewFromInt(1),
		Currency:    "USD",
	})

	require.NoError(t, err)
	assert.Equal(t, "3.33", quotation.UnitPrice.String())
}

func TestPriceForUnknownProductFails(t *testing.T) {
	engine := NewEngine(fakeCatalog{products: map[uuid.UUID]repository.Product{}})

	_, err := engine.PriceFor(context.Background(), PriceQuery{
		PartyID:   uuid.New(),
		ProductID: uuid.New(),
		Quantity:  decimal.NewFromInt(1),
		Currency:  "USD",
	})

	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
