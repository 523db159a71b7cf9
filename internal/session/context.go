package session

import "context"

type ctxKey struct{}

// WithStore returns a copy of ctx carrying store.
func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, store)
}

// StoreFrom returns the store carried by ctx, or nil.
func StoreFrom(ctx context.Context) *Store {
	store, _ := ctx.Value(ctxKey{}).(*Store)
	return store
}

// ContextSource resolves the current session from the Store carried in the
// request context, so one API client can serve many per-request stores.
type ContextSource struct{}

func (ContextSource) Current(ctx context.Context) (Session, bool) {
	return StoreFrom(ctx).Current(ctx)
}
