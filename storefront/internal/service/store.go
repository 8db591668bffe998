package service

import (
	"context"

	"github.com/webshop/storefront/internal/repository"
)

// Store is the record-store capability the cart protocol runs against. The
// pgx-backed repository satisfies it in production; tests substitute an
// in-memory implementation.
type Store interface {
	repository.Querier
	InTx(c context.Context, fn func(repository.Querier) error) error
}
