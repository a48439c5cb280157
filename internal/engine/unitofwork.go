package engine

import (
	"context"

	"gorm.io/gorm"
)

// UnitOfWork scopes one atomically committed or aborted group of storage
// mutations. Every step of a multi-step operation runs against DB(); no
// component spans two transactions for what is logically one mutation.
type UnitOfWork struct {
	tx    *gorm.DB
	hooks []func(context.Context) error
}

// DB returns the transaction handle for the current scope.
func (u *UnitOfWork) DB() *gorm.DB {
	return u.tx
}

// AfterCommit queues a deferred side effect that runs only if the
// transaction commits. Hook failures are logged, never propagated; they
// cannot roll back the mutation that already committed.
func (u *UnitOfWork) AfterCommit(fn func(context.Context) error) {
	u.hooks = append(u.hooks, fn)
}

// run executes fn inside one transaction: begin, steps, commit, with
// rollback on any error and connection release on every exit path. Queued
// after-commit hooks fire once the commit succeeds.
func (e *Engine) run(ctx context.Context, fn func(*UnitOfWork) error) error {
	uow := &UnitOfWork{}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uow.tx = tx
		return fn(uow)
	})
	if err != nil {
		return err
	}

	// Hooks outlive the request's cancellation: the primary mutation is
	// already durable.
	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range uow.hooks {
		if hookErr := hook(hookCtx); hookErr != nil {
			e.logger.Printf("post-commit hook failed: %v", hookErr)
		}
	}

	return nil
}
