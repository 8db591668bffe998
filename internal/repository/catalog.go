package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const findProductById = `
SELECT id, name, unit, list_price, salable, taxes, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) FindProductById(c context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(c, findProductById, id)
	var product Product
	var listPrice pgtype.Numeric
	var taxes []byte
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Unit,
		&listPrice,
		&product.Salable,
		&taxes,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return Product{}, err
	}
	product.ListPrice = decimalFromNumeric(listPrice)
	product.Taxes, err = taxesFromJson(taxes)
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

const findUserById = `
SELECT id, email, name, party_id, created_at, updated_at
FROM users
WHERE id = $1
`

func (q *Queries) FindUserById(c context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(c, findUserById, id)
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PartyID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

const findPartyById = `
SELECT id, name, sale_price_list_id, created_at, updated_at
FROM parties
WHERE id = $1
`

func (q *Queries) FindPartyById(c context.Context, id uuid.UUID) (Party, error) {
	row := q.db.QueryRow(c, findPartyById, id)
	var party Party
	err := row.Scan(
		&party.ID,
		&party.Name,
		&party.SalePriceListID,
		&party.CreatedAt,
		&party.UpdatedAt,
	)
	return party, err
}

const findPriceListLines = `
SELECT id, price_list_id, min_quantity, margin
FROM price_list_lines
WHERE price_list_id = $1
ORDER BY min_quantity DESC
`

// FindPriceListLines returns the quantity breaks of a price list, largest
// minimum first, so the first line whose minimum the quantity reaches wins.
func (q *Queries) FindPriceListLines(
	c context.Context,
	priceListID uuid.UUID,
) ([]PriceListLine, error) {
	rows, err := q.db.Query(c, findPriceListLines, priceListID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []PriceListLine{}
	for rows.Next() {
		var line PriceListLine
		var minQuantity, margin pgtype.Numeric
		err := rows.Scan(&line.ID, &line.PriceListID, &minQuantity, &margin)
		if err != nil {
			return nil, err
		}
		line.MinQuantity = decimalFromNumeric(minQuantity)
		line.Margin = decimalFromNumeric(margin)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
