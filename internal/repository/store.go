package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/webshop/storefront/internal/log"
)

// Store couples the query set with the pool so callers can group the writes
// of one request into a single transaction.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Queries: New(pool), pool: pool}
}

func (s *Store) InTx(c context.Context, fn func(Querier) error) error {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Store InTx").Logger()

	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed initializing transaction with error=%w", err)
	}
	defer func() {
		err := tx.Rollback(c)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Error().Err(err).Msgf("failed rolling back transaction with error=%s", err.Error())
		}
	}()

	if err := fn(s.Queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(c); err != nil {
		return fmt.Errorf("failed committing transaction with error=%w", err)
	}
	return nil
}
