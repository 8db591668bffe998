package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	inErrors "github.com/webshop/storefront/internal/errors"
	"github.com/webshop/storefront/internal/repository"
	"github.com/webshop/storefront/internal/webctx"
	"github.com/webshop/storefront/storefront/internal/pricing"
)

// fakeStore keeps the repository in maps so the resolver and the line engine
// can be exercised without a database. It mirrors the constraints the schema
// enforces: one cart per identity, one line per (sale, product), cascading
// sale deletion.
type fakeStore struct {
	mu sync.Mutex

	carts      map[uuid.UUID]repository.Cart
	sales      map[uuid.UUID]repository.Sale
	lines      map[uuid.UUID]repository.SaleLine
	products   map[uuid.UUID]repository.Product
	users      map[uuid.UUID]repository.User
	parties    map[uuid.UUID]repository.Party
	priceLines map[uuid.UUID][]repository.PriceListLine

	insertCartHook func() error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		carts:      map[uuid.UUID]repository.Cart{},
		sales:      map[uuid.UUID]repository.Sale{},
		lines:      map[uuid.UUID]repository.SaleLine{},
		products:   map[uuid.UUID]repository.Product{},
		users:      map[uuid.UUID]repository.User{},
		parties:    map[uuid.UUID]repository.Party{},
		priceLines: map[uuid.UUID][]repository.PriceListLine{},
	}
}

func (f *fakeStore) InTx(c context.Context, fn func(repository.Querier) error) error {
	return fn(f)
}

func (f *fakeStore) FindCartByUser(
	_ context.Context,
	userID uuid.UUID,
	websiteID uuid.UUID,
) (repository.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cart := range f.carts {
		if cart.UserID != nil && *cart.UserID == userID && cart.WebsiteID == websiteID {
			return cart, nil
		}
	}
	return repository.Cart{}, pgx.ErrNoRows
}

func (f *fakeStore) FindCartBySession(
	_ context.Context,
	sessionID string,
	websiteID uuid.UUID,
) (repository.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cart := range f.carts {
		if cart.UserID == nil && cart.SessionID != nil && *cart.SessionID == sessionID &&
			cart.WebsiteID == websiteID {
			return cart, nil
		}
	}
	return repository.Cart{}, pgx.ErrNoRows
}

func (f *fakeStore) InsertCart(
	_ context.Context,
	arg repository.InsertCartParams,
) (repository.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertCartHook != nil {
		if err := f.insertCartHook(); err != nil {
			return repository.Cart{}, err
		}
	}
	for _, cart := range f.carts {
		if cart.WebsiteID != arg.WebsiteID {
			continue
		}
		if arg.UserID != nil && cart.UserID != nil && *cart.UserID == *arg.UserID {
			return repository.Cart{}, fmt.Errorf(
				"failed inserting cart with error=%w",
				inErrors.ErrCartConflict,
			)
		}
		if arg.UserID == nil && cart.UserID == nil && cart.SessionID != nil &&
			arg.SessionID != nil && *cart.SessionID == *arg.SessionID {
			return repository.Cart{}, fmt.Errorf(
				"failed inserting cart with error=%w",
				inErrors.ErrCartConflict,
			)
		}
	}
	cart := repository.Cart{
		ID:        arg.ID,
		UserID:    arg.UserID,
		SessionID: arg.SessionID,
		WebsiteID: arg.WebsiteID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.carts[cart.ID] = cart
	return cart, nil
}

func (f *fakeStore) UpdateCartSale(
	_ context.Context,
	cartID uuid.UUID,
	saleID *uuid.UUID,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[cartID]
	if !ok {
		return pgx.ErrNoRows
	}
	cart.SaleID = saleID
	cart.UpdatedAt = time.Now()
	f.carts[cartID] = cart
	return nil
}

func (f *fakeStore) DeleteCart(_ context.Context, cartID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.carts[cartID]; !ok {
		return 0, nil
	}
	delete(f.carts, cartID)
	return 1, nil
}

func (f *fakeStore) FindSaleById(_ context.Context, id uuid.UUID) (repository.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sale, ok := f.sales[id]
	if !ok {
		return repository.Sale{}, pgx.ErrNoRows
	}
	return sale, nil
}

func (f *fakeStore) FindAbandonedSale(
	_ context.Context,
	arg repository.FindAbandonedSaleParams,
) (repository.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	referenced := map[uuid.UUID]bool{}
	for _, cart := range f.carts {
		if cart.SaleID != nil {
			referenced[*cart.SaleID] = true
		}
	}
	var (
		found  bool
		newest repository.Sale
	)
	for _, sale := range f.sales {
		if sale.State != repository.SaleStateDraft || !sale.IsCart {
			continue
		}
		if sale.WebsiteID != arg.WebsiteID || sale.PartyID != arg.PartyID ||
			sale.Currency != arg.Currency {
			continue
		}
		if referenced[sale.ID] {
			continue
		}
		if !found || sale.UpdatedAt.After(newest.UpdatedAt) {
			found = true
			newest = sale
		}
	}
	if !found {
		return repository.Sale{}, pgx.ErrNoRows
	}
	return newest, nil
}

func (f *fakeStore) InsertSale(
	_ context.Context,
	arg repository.InsertSaleParams,
) (repository.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sale := repository.Sale{
		ID:          arg.ID,
		PartyID:     arg.PartyID,
		UserID:      arg.UserID,
		WebsiteID:   arg.WebsiteID,
		PriceListID: arg.PriceListID,
		Currency:    arg.Currency,
		State:       repository.SaleStateDraft,
		IsCart:      true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.sales[sale.ID] = sale
	return sale, nil
}

func (f *fakeStore) UpdateSaleState(_ context.Context, id uuid.UUID, state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sale, ok := f.sales[id]
	if !ok {
		return pgx.ErrNoRows
	}
	sale.State = state
	sale.UpdatedAt = time.Now()
	f.sales[id] = sale
	return nil
}

func (f *fakeStore) DeleteSale(_ context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sales[id]; !ok {
		return 0, nil
	}
	delete(f.sales, id)
	for lineID, line := range f.lines {
		if line.SaleID == id {
			delete(f.lines, lineID)
		}
	}
	return 1, nil
}

func (f *fakeStore) FindSaleLines(
	_ context.Context,
	saleID uuid.UUID,
) ([]repository.SaleLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := []repository.SaleLine{}
	for _, line := range f.lines {
		if line.SaleID == saleID {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Sequence < lines[j].Sequence })
	return lines, nil
}

func (f *fakeStore) FindSaleLineByProduct(
	_ context.Context,
	saleID uuid.UUID,
	productID uuid.UUID,
) (repository.SaleLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, line := range f.lines {
		if line.SaleID == saleID && line.ProductID == productID {
			return line, nil
		}
	}
	return repository.SaleLine{}, pgx.ErrNoRows
}

func (f *fakeStore) InsertSaleLine(
	_ context.Context,
	arg repository.InsertSaleLineParams,
) (repository.SaleLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var maxSequence int32
	for _, line := range f.lines {
		if line.SaleID == arg.SaleID && line.Sequence > maxSequence {
			maxSequence = line.Sequence
		}
	}
	line := repository.SaleLine{
		ID:        arg.ID,
		SaleID:    arg.SaleID,
		ProductID: arg.ProductID,
		Quantity:  arg.Quantity,
		Unit:      arg.Unit,
		UnitPrice: arg.UnitPrice,
		Taxes:     arg.Taxes,
		Sequence:  maxSequence + 10,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.lines[line.ID] = line
	return line, nil
}

func (f *fakeStore) UpdateSaleLine(
	_ context.Context,
	arg repository.UpdateSaleLineParams,
) (repository.SaleLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	line, ok := f.lines[arg.ID]
	if !ok {
		return repository.SaleLine{}, pgx.ErrNoRows
	}
	line.Quantity = arg.Quantity
	line.UnitPrice = arg.UnitPrice
	line.Taxes = arg.Taxes
	line.UpdatedAt = time.Now()
	f.lines[arg.ID] = line
	return line, nil
}

func (f *fakeStore) DeleteSaleLine(
	_ context.Context,
	lineID uuid.UUID,
	saleID uuid.UUID,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	line, ok := f.lines[lineID]
	if !ok || line.SaleID != saleID {
		return 0, nil
	}
	delete(f.lines, lineID)
	return 1, nil
}

func (f *fakeStore) FindProductById(
	_ context.Context,
	id uuid.UUID,
) (repository.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return repository.Product{}, pgx.ErrNoRows
	}
	return product, nil
}

func (f *fakeStore) FindUserById(_ context.Context, id uuid.UUID) (repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeStore) FindPartyById(_ context.Context, id uuid.UUID) (repository.Party, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	party, ok := f.parties[id]
	if !ok {
		return repository.Party{}, pgx.ErrNoRows
	}
	return party, nil
}

func (f *fakeStore) FindPriceListLines(
	_ context.Context,
	priceListID uuid.UUID,
) ([]repository.PriceListLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := append([]repository.PriceListLine{}, f.priceLines[priceListID]...)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].MinQuantity.GreaterThan(lines[j].MinQuantity)
	})
	return lines, nil
}

var _ Store = (*fakeStore)(nil)

// fixture is the website every test runs against: one guest party, one
// registered user with their own party, and two salable products.
type fixture struct {
	store   *fakeStore
	service CartService

	websiteID    uuid.UUID
	guestPartyID uuid.UUID
	userID       uuid.UUID
	userPartyID  uuid.UUID
	productID    uuid.UUID
	otherProduct uuid.UUID
}

func newFixture() fixture {
	store := newFakeStore()
	fx := fixture{
		store:        store,
		service:      NewCartService(store, pricing.NewEngine(store)),
		websiteID:    uuid.New(),
		guestPartyID: uuid.New(),
		userID:       uuid.New(),
		userPartyID:  uuid.New(),
		productID:    uuid.New(),
		otherProduct: uuid.New(),
	}
	store.parties[fx.guestPartyID] = repository.Party{ID: fx.guestPartyID, Name: "Guest"}
	store.parties[fx.userPartyID] = repository.Party{ID: fx.userPartyID, Name: "Registered"}
	store.users[fx.userID] = repository.User{
		ID:      fx.userID,
		Email:   "visitor@example.com",
		Name:    "Visitor",
		PartyID: fx.userPartyID,
	}
	store.products[fx.productID] = repository.Product{
		ID:        fx.productID,
		Name:      "Coffee Beans",
		Unit:      "unit",
		ListPrice: decimal.RequireFromString("10.00"),
		Salable:   true,
	}
	store.products[fx.otherProduct] = repository.Product{
		ID:        fx.otherProduct,
		Name:      "Grinder",
		Unit:      "unit",
		ListPrice: decimal.RequireFromString("25.00"),
		Salable:   true,
	}
	return fx
}

func (fx fixture) guestContext(sessionID string) webctx.RequestContext {
	return webctx.RequestContext{
		SessionID:    sessionID,
		WebsiteID:    fx.websiteID,
		GuestPartyID: fx.guestPartyID,
		Currency:     "USD",
		Locale:       "en",
	}
}

func (fx fixture) userContext(sessionID string) webctx.RequestContext {
	userID := fx.userID
	rc := fx.guestContext(sessionID)
	rc.UserID = &userID
	return rc
}

// openSale opens a cart with an attached draft order and returns the order.
func (fx fixture) openSale(c context.Context, rc webctx.RequestContext) (repository.Sale, error) {
	cart, err := fx.service.OpenCart(c, rc, true)
	if err != nil {
		return repository.Sale{}, err
	}
	return fx.store.FindSaleById(c, *cart.SaleID)
}
