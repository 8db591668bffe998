package repository

import (
	"context"

	"github.com/google/uuid"
)

const findCartByUser = `
SELECT id, user_id, session_id, website_id, sale_id, created_at, updated_at
FROM carts
WHERE user_id = $1 AND website_id = $2
LIMIT 1
`

func (q *Queries) FindCartByUser(
	c context.Context,
	userID uuid.UUID,
	websiteID uuid.UUID,
) (Cart, error) {
	row := q.db.QueryRow(c, findCartByUser, userID, websiteID)
	var cart Cart
	err := row.Scan(
		&cart.ID,
		&cart.UserID,
		&cart.SessionID,
		&cart.WebsiteID,
		&cart.SaleID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	return cart, err
}

const findCartBySession = `
SELECT id, user_id, session_id, website_id, sale_id, created_at, updated_at
FROM carts
WHERE session_id = $1 AND website_id = $2 AND user_id IS NULL
LIMIT 1
`

func (q *Queries) FindCartBySession(
	c context.Context,
	sessionID string,
	websiteID uuid.UUID,
) (Cart, error) {
	row := q.db.QueryRow(c, findCartBySession, sessionID, websiteID)
	var cart Cart
	err := row.Scan(
		&cart.ID,
		&cart.UserID,
		&cart.SessionID,
		&cart.WebsiteID,
		&cart.SaleID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	return cart, err
}

const insertCart = `
INSERT INTO carts (id, user_id, session_id, website_id)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, session_id, website_id, sale_id, created_at, updated_at
`

type InsertCartParams struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	SessionID *string
	WebsiteID uuid.UUID
}

func (q *Queries) InsertCart(c context.Context, arg InsertCartParams) (Cart, error) {
	row := q.db.QueryRow(c, insertCart, arg.ID, arg.UserID, arg.SessionID, arg.WebsiteID)
	var cart Cart
	err := row.Scan(
		&cart.ID,
		&cart.UserID,
		&cart.SessionID,
		&cart.WebsiteID,
		&cart.SaleID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		return Cart{}, mapConflict(err)
	}
	return cart, nil
}

const updateCartSale = `
UPDATE carts SET sale_id = $2, updated_at = now() WHERE id = $1
`

// UpdateCartSale attaches or, with a nil saleID, detaches the draft order.
func (q *Queries) UpdateCartSale(c context.Context, cartID uuid.UUID, saleID *uuid.UUID) error {
	_, err := q.db.Exec(c, updateCartSale, cartID, saleID)
	return err
}

const deleteCart = `
DELETE FROM carts WHERE id = $1
`

func (q *Queries) DeleteCart(c context.Context, cartID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(c, deleteCart, cartID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
