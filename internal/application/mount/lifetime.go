// Package mount ties a view model's fetches to its lifetime: once a view
// model is unmounted, its in-flight requests are cancelled and their
// results dropped.
package mount

import (
	"context"
	"errors"
)

var ErrUnmounted = errors.New("View is no longer mounted")

type Lifetime struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Lifetime {
	ctx, cancel := context.WithCancel(context.Background())
	return &Lifetime{ctx: ctx, cancel: cancel}
}

// Scope derives a context that ends with either the caller's context or the lifetime.
func (l *Lifetime) Scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(l.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Close unmounts. Safe to call more than once.
func (l *Lifetime) Close() {
	l.cancel()
}

// Done is closed on unmount.
func (l *Lifetime) Done() <-chan struct{} {
	return l.ctx.Done()
}

func (l *Lifetime) Closed() bool {
	return l.ctx.Err() != nil
}
