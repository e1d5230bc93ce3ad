package httpx

import (
	"context"
	"log/slog"
	"net/http"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
)

// SessionReader is the slice of the session service the route guards need.
type SessionReader interface {
	Load(ctx context.Context, clientID string) domainauth.Record
	RecordVisit(ctx context.Context, clientID, path string) error
	LastVisited(ctx context.Context, clientID string) string
}

// Guards builds the route guard middleware. Requests must already carry a
// client ID (see ClientIdentity).
type Guards struct {
	Sessions SessionReader
	Logger   *slog.Logger
}

func (g *Guards) logger() *slog.Logger {
	if g != nil && g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// Protected guards a view that requires authentication and, when roles are
// given, one of those roles. The requested path is recorded as the client's
// last visited path before the decision, whether or not access is granted.
// Denied requests go to the login page with the path as redirect_uri.
func (g *Guards) Protected(roles ...domainauth.Role) func(http.Handler) http.Handler {
	required := append([]domainauth.Role(nil), roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientID := ClientIDFromContext(ctx)

			if err := g.Sessions.RecordVisit(ctx, clientID, r.URL.Path); err != nil {
				g.logger().WarnContext(ctx, "record visit failed", "path", r.URL.Path, "error", err)
			}

			rec := g.Sessions.Load(ctx, clientID)
			decision := domainauth.Authorize(rec, required)
			g.logDecision(ctx, r, rec, decision)

			if !decision.Allow {
				navigate(w, r, loginURL(decision.Redirect, r.URL.Path))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRecord(ctx, rec)))
		})
	}
}

// Unprotected guards a public view. Unauthenticated clients see it; an
// authenticated client is sent to its last visited path, or to its role home
// when none is recorded. With bypass the view always renders.
//
// A last visited path equal to the redirect_uri query parameter is skipped:
// that path just refused this client, and returning to it would loop.
func (g *Guards) Unprotected(bypass bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientID := ClientIDFromContext(ctx)
			rec := g.Sessions.Load(ctx, clientID)

			in := domainauth.LandingInput{Record: rec, Bypass: bypass}
			if !bypass && rec.Authenticated {
				if last := g.Sessions.LastVisited(ctx, clientID); last != "" {
					in.LastVisited = safeRedirectPath(last)
				}
				if from := r.URL.Query().Get("redirect_uri"); from != "" {
					in.BouncedFrom = safeRedirectPath(from)
				}
			}

			decision := domainauth.Landing(in)
			g.logDecision(ctx, r, rec, decision)

			if !decision.Allow {
				navigate(w, r, decision.Redirect)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRecord(ctx, rec)))
		})
	}
}

func (g *Guards) logDecision(ctx context.Context, r *http.Request, rec domainauth.Record, d domainauth.Decision) {
	outcome := "allow"
	if !d.Allow {
		outcome = "redirect"
	}
	g.logger().DebugContext(ctx, "route guard",
		"path", r.URL.Path,
		"authenticated", rec.Authenticated,
		"role", string(rec.Role()),
		"decision", outcome,
		"redirect", d.Redirect,
	)
}
