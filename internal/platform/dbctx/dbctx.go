package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context pairs a request context with the transaction the current write is
// running under. Tx is nil on read paths that go straight to the pool.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
