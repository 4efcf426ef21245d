package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repos accept it so a use case can run several repo calls inside one
// write transaction without threading *gorm.DB through every signature.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// New wraps a plain context with no transaction attached.
func New(ctx context.Context) Context {
	return Context{Ctx: ctx}
}

// DB resolves the handle repos should use: the open transaction when one
// exists, otherwise the given fallback connection.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	if c.Tx != nil {
		return c.Tx.WithContext(c.Ctx)
	}
	if fallback != nil {
		return fallback.WithContext(c.Ctx)
	}
	return nil
}
