package repository

import (
	"context"

	"github.com/google/uuid"
)

const findSaleById = `
SELECT id, party_id, user_id, website_id, price_list_id, currency, state, is_cart, created_at, updated_at
FROM sales
WHERE id = $1
`

func (q *Queries) FindSaleById(c context.Context, id uuid.UUID) (Sale, error) {
	row := q.db.QueryRow(c, findSaleById, id)
	return scanSale(row)
}

const findAbandonedSale = `
SELECT s.id, s.party_id, s.user_id, s.website_id, s.price_list_id, s.currency, s.state, s.is_cart, s.created_at, s.updated_at
FROM sales s
WHERE s.state = 'draft'
  AND s.is_cart
  AND s.website_id = $1
  AND s.party_id = $2
  AND s.currency = $3
  AND NOT EXISTS (SELECT 1 FROM carts c WHERE c.sale_id = s.id)
ORDER BY s.updated_at DESC
LIMIT 1
`

type FindAbandonedSaleParams struct {
	WebsiteID uuid.UUID
	PartyID   uuid.UUID
	Currency  string
}

// FindAbandonedSale looks for a draft cart-origin order no cart points at,
// eligible for re-adoption by the same party on the same website and currency.
func (q *Queries) FindAbandonedSale(c context.Context, arg FindAbandonedSaleParams) (Sale, error) {
	row := q.db.QueryRow(c, findAbandonedSale, arg.WebsiteID, arg.PartyID, arg.Currency)
	return scanSale(row)
}

const insertSale = `
INSERT INTO sales (id, party_id, user_id, website_id, price_list_id, currency, state, is_cart)
VALUES ($1, $2, $3, $4, $5, $6, 'draft', TRUE)
RETURNING id, party_id, user_id, website_id, price_list_id, currency, state, is_cart, created_at, updated_at
`

type InsertSaleParams struct {
	ID          uuid.UUID
	PartyID     uuid.UUID
	UserID      *uuid.UUID
	WebsiteID   uuid.UUID
	PriceListID *uuid.UUID
	Currency    string
}

func (q *Queries) InsertSale(c context.Context, arg InsertSaleParams) (Sale, error) {
	row := q.db.QueryRow(
		c,
		insertSale,
		arg.ID,
		arg.PartyID,
		arg.UserID,
		arg.WebsiteID,
		arg.PriceListID,
		arg.Currency,
	)
	return scanSale(row)
}

const updateSaleState = `
UPDATE sales SET state = $2, updated_at = now() WHERE id = $1
`

func (q *Queries) UpdateSaleState(c context.Context, id uuid.UUID, state string) error {
	_, err := q.db.Exec(c, updateSaleState, id, state)
	return err
}

const deleteSale = `
DELETE FROM sales WHERE id = $1
`

// DeleteSale cascades to the order's lines.
func (q *Queries) DeleteSale(c context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(c, deleteSale, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanSale(row interface{ Scan(...interface{}) error }) (Sale, error) {
	var sale Sale
	err := row.Scan(
		&sale.ID,
		&sale.PartyID,
		&sale.UserID,
		&sale.WebsiteID,
		&sale.PriceListID,
		&sale.Currency,
		&sale.State,
		&sale.IsCart,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	)
	return sale, err
}
