// File: backend/services/integrity-service/internal/domain/repository/tx.go
package repository

import "context"

// TxManager runs a function inside one atomic storage unit of work. Every
// repository call made with the ctx passed to fn joins the same transaction,
// which is how a state change and its paired ledger append commit or roll
// back together.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
