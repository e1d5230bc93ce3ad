package httpx

import (
	"context"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
)

// Unexported context key types avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same keys.
type (
	clientIDKey struct{}
	recordKey   struct{}
)

// WithClientID returns a child context that carries the browser's client ID.
func WithClientID(ctx context.Context, clientID string) context.Context {
	if clientID == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// ClientIDFromContext returns the client ID set by ClientIdentity, or "".
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey{}).(string)
	return id
}

// WithRecord returns a child context that carries the session record a guard evaluated.
func WithRecord(ctx context.Context, rec domainauth.Record) context.Context {
	return context.WithValue(ctx, recordKey{}, rec)
}

// RecordFromContext returns the session record and whether a guard stored one.
func RecordFromContext(ctx context.Context) (domainauth.Record, bool) {
	rec, ok := ctx.Value(recordKey{}).(domainauth.Record)
	return rec, ok
}

// CurrentUser returns the authenticated user for the request, or nil.
func CurrentUser(ctx context.Context) *domainauth.User {
	rec, ok := RecordFromContext(ctx)
	if !ok || !rec.Authenticated {
		return nil
	}
	return rec.User
}
