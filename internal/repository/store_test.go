package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	inErrors "github.com/webshop/storefront/internal/errors"
)

const (
	seedWebsiteID    = "cccccccc-0000-0000-0000-000000000001"
	seedGuestPartyID = "bbbbbbbb-0000-0000-0000-000000000001"
	seedUserPartyID  = "bbbbbbbb-0000-0000-0000-000000000002"
	seedUserID       = "dddddddd-0000-0000-0000-000000000001"
	seedPriceListID  = "aaaaaaaa-0000-0000-0000-000000000001"
	seedCoffeeID     = "eeeeeeee-0000-0000-0000-000000000001"
	seedGrinderID    = "eeeeeeee-0000-0000-0000-000000000002"
)

func setupStore(t *testing.T, c context.Context) (*Store, func()) {
	t.Helper()

	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_PORT":     "5432",
			"POSTGRES_USER":     "postgres",
		}),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			filepath.Join("..", "..", "migrations", "20260810090000_create_table_price_lists.up.sql"),
			filepath.Join("..", "..", "migrations", "20260810090100_create_table_parties.up.sql"),
			filepath.Join("..", "..", "migrations", "20260810090200_create_table_websites.up.sql"),
			filepath.Join("..", "..", "migrations", "20260810090300_create_table_users.up.sql"),
			filepath.Join("..", "..", "migrations", "20260810090400_create_table_products.up.sql"),
			filepath.Join("..", "..", "migrations", "20260810090500_create_table_sales.up.sql"),
			filepath.Join("..", "..", "migrations", "20260810090600_create_table_sale_lines.up.sql"),
			filepath.Join("..", "..", "migrations", "20260810090700_create_table_carts.up.sql"),
			filepath.Join("..", "..", "seed", "storefront.seed.sql"),
		),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}

	pgConnStr, err := pgContainer.ConnectionString(c, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}

	pool, err := pgxpool.New(c, pgConnStr)
	if err != nil {
		t.Fatalf("failed creating postgres pool with error: %s", err)
	}
	if err = pool.Ping(c); err != nil {
		t.Fatalf("failed ping postgres pool with error: %s", err)
	}

	cleanup := func() {
		pool.Close()
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}
	return NewStore(pool), cleanup
}

func insertDraftSale(t *testing.T, c context.Context, store *Store) Sale {
	t.Helper()
	priceListID := uuid.MustParse(seedPriceListID)
	sale, err := store.InsertSale(c, InsertSaleParams{
		ID:          uuid.New(),
		PartyID:     uuid.MustParse(seedGuestPartyID),
		WebsiteID:   uuid.MustParse(seedWebsiteID),
		PriceListID: &priceListID,
		Currency:    "USD",
	})
	require.NoError(t, err)
	return sale
}

func TestInsertCartEnforcesOneCartPerIdentity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	store, cleanup := setupStore(t, c)
	defer cleanup()

	websiteID := uuid.MustParse(seedWebsiteID)
	userID := uuid.MustParse(seedUserID)
	sessionID := "sess-integration"

	t.Run("given duplicate user cart should report conflict", func(t *testing.T) {
		_, err := store.InsertCart(c, InsertCartParams{
			ID:        uuid.New(),
			UserID:    &userID,
			WebsiteID: websiteID,
		})
		require.NoError(t, err)

		_, err = store.InsertCart(c, InsertCartParams{
			ID:        uuid.New(),
			UserID:    &userID,
			WebsiteID: websiteID,
		})
		assert.ErrorIs(t, err, inErrors.ErrCartConflict)
	})

	t.Run("given duplicate session cart should report conflict", func(t *testing.T) {
		_, err := store.InsertCart(c, InsertCartParams{
			ID:        uuid.New(),
			SessionID: &sessionID,
			WebsiteID: websiteID,
		})
		require.NoError(t, err)

		_, err = store.InsertCart(c, InsertCartParams{
			ID:        uuid.New(),
			SessionID: &sessionID,
			WebsiteID: websiteID,
		})
		assert.ErrorIs(t, err, inErrors.ErrCartConflict)
	})

	t.Run("given user and session carts should keep them apart", func(t *testing.T) {
		userCart, err := store.FindCartByUser(c, userID, websiteID)
		require.NoError(t, err)
		sessionCart, err := store.FindCartBySession(c, sessionID, websiteID)
		require.NoError(t, err)
		assert.NotEqual(t, userCart.ID, sessionCart.ID)
	})
}

func TestSaleLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	store, cleanup := setupStore(t, c)
	defer cleanup()

	sale := insertDraftSale(t, c, store)
	assert.Equal(t, SaleStateDraft, sale.State)
	assert.True(t, sale.IsCart)
	require.NotNil(t, sale.PriceListID)

	t.Run("sale lines keep monetary values and taxes intact", func(t *testing.T) {
		line, err := store.InsertSaleLine(c, InsertSaleLineParams{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			ProductID: uuid.MustParse(seedCoffeeID),
			Quantity:  decimal.RequireFromString("2.5"),
			Unit:      "unit",
			UnitPrice: decimal.RequireFromString("10.0000"),
			Taxes: []Tax{
				{Name: "VAT", Rate: decimal.RequireFromString("0.2")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int32(10), line.Sequence)

		found, err := store.FindSaleLineByProduct(c, sale.ID, uuid.MustParse(seedCoffeeID))
		require.NoError(t, err)
		assert.True(t, found.Quantity.Equal(decimal.RequireFromString("2.5")))
		assert.True(t, found.UnitPrice.Equal(decimal.RequireFromString("10")))
		require.Len(t, found.Taxes, 1)
		assert.True(t, found.Taxes[0].Rate.Equal(decimal.RequireFromString("0.2")))
	})

	t.Run("second line gets the next sequence", func(t *testing.T) {
		line, err := store.InsertSaleLine(c, InsertSaleLineParams{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			ProductID: uuid.MustParse(seedGrinderID),
			Quantity:  decimal.NewFromInt(1),
			Unit:      "unit",
			UnitPrice: decimal.RequireFromString("25.0000"),
		})
		require.NoError(t, err)
		assert.Equal(t, int32(20), line.Sequence)
	})

	t.Run("duplicate product on one sale is rejected", func(t *testing.T) {
		_, err := store.InsertSaleLine(c, InsertSaleLineParams{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			ProductID: uuid.MustParse(seedCoffeeID),
			Quantity:  decimal.NewFromInt(1),
			Unit:      "unit",
			UnitPrice: decimal.RequireFromString("10.0000"),
		})
		assert.Error(t, err)
	})

	t.Run("deleting the sale cascades to its lines", func(t *testing.T) {
		require.NoError(t, store.UpdateSaleState(c, sale.ID, SaleStateCancelled))
		affected, err := store.DeleteSale(c, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		lines, err := store.FindSaleLines(c, sale.ID)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}

func TestFindAbandonedSale(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	store, cleanup := setupStore(t, c)
	defer cleanup()

	sale := insertDraftSale(t, c, store)

	t.Run("unreferenced draft sale is abandoned", func(t *testing.T) {
		found, err := store.FindAbandonedSale(c, FindAbandonedSaleParams{
			WebsiteID: uuid.MustParse(seedWebsiteID),
			PartyID:   uuid.MustParse(seedGuestPartyID),
			Currency:  "USD",
		})
		require.NoError(t, err)
		assert.Equal(t, sale.ID, found.ID)
	})

	t.Run("referenced sale is not abandoned", func(t *testing.T) {
		sessionID := "sess-abandoned"
		cart, err := store.InsertCart(c, InsertCartParams{
			ID:        uuid.New(),
			SessionID: &sessionID,
			WebsiteID: uuid.MustParse(seedWebsiteID),
		})
		require.NoError(t, err)
		require.NoError(t, store.UpdateCartSale(c, cart.ID, &sale.ID))

		_, err = store.FindAbandonedSale(c, FindAbandonedSaleParams{
			WebsiteID: uuid.MustParse(seedWebsiteID),
			PartyID:   uuid.MustParse(seedGuestPartyID),
			Currency:  "USD",
		})
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})

	t.Run("currency mismatch is not abandoned", func(t *testing.T) {
		_, err := store.FindAbandonedSale(c, FindAbandonedSaleParams{
			WebsiteID: uuid.MustParse(seedWebsiteID),
			PartyID:   uuid.MustParse(seedGuestPartyID),
			Currency:  "EUR",
		})
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})
}

func TestInTxRollsBackOnError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	store, cleanup := setupStore(t, c)
	defer cleanup()

	sale := insertDraftSale(t, c, store)

	err := store.InTx(c, func(q Querier) error {
		_, err := q.InsertSaleLine(c, InsertSaleLineParams{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			ProductID: uuid.MustParse(seedCoffeeID),
			Quantity:  decimal.NewFromInt(1),
			Unit:      "unit",
			UnitPrice: decimal.RequireFromString("10.0000"),
		})
		if err != nil {
			return err
		}
		return fmt.Errorf("forced rollback")
	})
	require.Error(t, err)

	lines, err := store.FindSaleLines(c, sale.ID)
	require.NoError(t, err)
	assert.Empty(t, lines, "the inserted line must be rolled back")
}
