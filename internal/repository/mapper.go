package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	inErrors "github.com/webshop/storefront/internal/errors"
)

func numericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		Int:              d.Coefficient(),
		NaN:              false,
		Valid:            true,
	}
}

func decimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func taxesFromJson(raw []byte) ([]Tax, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	taxes := []Tax{}
	if err := json.Unmarshal(raw, &taxes); err != nil {
		return nil, fmt.Errorf("failed unmarshaling taxes with error=%w", err)
	}
	return taxes, nil
}

func taxesToJson(taxes []Tax) ([]byte, error) {
	if taxes == nil {
		taxes = []Tax{}
	}
	raw, err := json.Marshal(taxes)
	if err != nil {
		return nil, fmt.Errorf("failed marshaling taxes with error=%w", err)
	}
	return raw, nil
}

// mapConflict turns a unique-constraint violation into ErrCartConflict so the
// resolver can re-fetch instead of surfacing a database error.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", inErrors.ErrCartConflict, pgErr.ConstraintName)
	}
	return err
}
