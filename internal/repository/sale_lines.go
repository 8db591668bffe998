package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const findSaleLines = `
SELECT id, sale_id, product_id, quantity, unit, unit_price, taxes, sequence, created_at, updated_at
FROM sale_lines
WHERE sale_id = $1
ORDER BY sequence
`

func (q *Queries) FindSaleLines(c context.Context, saleID uuid.UUID) ([]SaleLine, error) {
	rows, err := q.db.Query(c, findSaleLines, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []SaleLine{}
	for rows.Next() {
		line, err := scanSaleLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

const findSaleLineByProduct = `
SELECT id, sale_id, product_id, quantity, unit, unit_price, taxes, sequence, created_at, updated_at
FROM sale_lines
WHERE sale_id = $1 AND product_id = $2
LIMIT 1
`

func (q *Queries) FindSaleLineByProduct(
	c context.Context,
	saleID uuid.UUID,
	productID uuid.UUID,
) (SaleLine, error) {
	row := q.db.QueryRow(c, findSaleLineByProduct, saleID, productID)
	return scanSaleLine(row)
}

const insertSaleLine = `
INSERT INTO sale_lines (id, sale_id, product_id, quantity, unit, unit_price, taxes, sequence)
VALUES ($1, $2, $3, $4, $5, $6, $7, (SELECT COALESCE(MAX(sequence), 0) + 10 FROM sale_lines WHERE sale_id = $2))
RETURNING id, sale_id, product_id, quantity, unit, unit_price, taxes, sequence, created_at, updated_at
`

type InsertSaleLineParams struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Unit      string
	UnitPrice decimal.Decimal
	Taxes     []Tax
}

func (q *Queries) InsertSaleLine(c context.Context, arg InsertSaleLineParams) (SaleLine, error) {
	taxes, err := taxesToJson(arg.Taxes)
	if err != nil {
		return SaleLine{}, err
	}
	row := q.db.QueryRow(
		c,
		insertSaleLine,
		arg.ID,
		arg.SaleID,
		arg.ProductID,
		numericFromDecimal(arg.Quantity),
		arg.Unit,
		numericFromDecimal(arg.UnitPrice),
		taxes,
	)
	return scanSaleLine(row)
}

const updateSaleLine = `
UPDATE sale_lines
SET quantity = $2, unit_price = $3, taxes = $4, updated_at = now()
WHERE id = $1
RETURNING id, sale_id, product_id, quantity, unit, unit_price, taxes, sequence, created_at, updated_at
`

type UpdateSaleLineParams struct {
	ID        uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Taxes     []Tax
}

func (q *Queries) UpdateSaleLine(c context.Context, arg UpdateSaleLineParams) (SaleLine, error) {
	taxes, err := taxesToJson(arg.Taxes)
	if err != nil {
		return SaleLine{}, err
	}
	row := q.db.QueryRow(
		c,
		updateSaleLine,
		arg.ID,
		numericFromDecimal(arg.Quantity),
		numericFromDecimal(arg.UnitPrice),
		taxes,
	)
	return scanSaleLine(row)
}

const deleteSaleLine = `
DELETE FROM sale_lines WHERE id = $1 AND sale_id = $2
`

// DeleteSaleLine is scoped to the owning sale so a line id from another cart
// cannot be removed.
func (q *Queries) DeleteSaleLine(
	c context.Context,
	lineID uuid.UUID,
	saleID uuid.UUID,
) (int64, error) {
	tag, err := q.db.Exec(c, deleteSaleLine, lineID, saleID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanSaleLine(row interface{ Scan(...interface{}) error }) (SaleLine, error) {
	var line SaleLine
	var quantity, unitPrice pgtype.Numeric
	var taxes []byte
	err := row.Scan(
		&line.ID,
		&line.SaleID,
		&line.ProductID,
		&quantity,
		&line.Unit,
		&unitPrice,
		&taxes,
		&line.Sequence,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		return SaleLine{}, err
	}
	line.Quantity = decimalFromNumeric(quantity)
	line.UnitPrice = decimalFromNumeric(unitPrice)
	line.Taxes, err = taxesFromJson(taxes)
	if err != nil {
		return SaleLine{}, err
	}
	return line, nil
}
