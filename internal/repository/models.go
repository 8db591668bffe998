package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SaleStateDraft     = "draft"
	SaleStateConfirmed = "confirmed"
	SaleStateCancelled = "cancelled"
)

type Website struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Company      string    `json:"company"`
	GuestPartyID uuid.UUID `json:"guest_party_id"`
	Currency     string    `json:"currency"`
	Locale       string    `json:"locale"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Party struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	SalePriceListID *uuid.UUID `json:"sale_price_list_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PartyID   uuid.UUID `json:"party_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Tax struct {
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	ListPrice decimal.Decimal `json:"list_price"`
	Salable   bool            `json:"salable"`
	Taxes     []Tax           `json:"taxes"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type PriceList struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PriceListLine struct {
	ID          uuid.UUID       `json:"id"`
	PriceListID uuid.UUID       `json:"price_list_id"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	Margin      decimal.Decimal `json:"margin"`
}

type Sale struct {
	ID          uuid.UUID  `json:"id"`
	PartyID     uuid.UUID  `json:"party_id"`
	UserID      *uuid.UUID `json:"user_id"`
	WebsiteID   uuid.UUID  `json:"website_id"`
	PriceListID *uuid.UUID `json:"price_list_id"`
	Currency    string     `json:"currency"`
	State       string     `json:"state"`
	IsCart      bool       `json:"is_cart"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type SaleLine struct {
	ID        uuid.UUID       `json:"id"`
	SaleID    uuid.UUID       `json:"sale_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Taxes     []Tax           `json:"taxes"`
	Sequence  int32           `json:"sequence"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Amount is the line total before taxes.
func (l SaleLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(l.Quantity)
}

// TaxAmount applies the line's tax set to its amount.
func (l SaleLine) TaxAmount() decimal.Decimal {
	amount := l.Amount()
	total := decimal.Zero
	for _, tax := range l.Taxes {
		total = total.Add(amount.Mul(tax.Rate))
	}
	return total
}

type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id"`
	SessionID *string    `json:"session_id"`
	WebsiteID uuid.UUID  `json:"website_id"`
	SaleID    *uuid.UUID `json:"sale_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
