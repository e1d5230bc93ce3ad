package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
)

// Page identifiers; each names a template under pages/.
const (
	PageHome          = "home"
	PageTerms         = "terms"
	PageLogin         = "login"
	PageSignup        = "signup"
	PageAdmin         = "admin"
	PagePharmacyOwner = "pharmacy_owner"
	PageCustomer      = "customer"
	PageAccount       = "account"
	PageNotFound      = "notfound"
)

// PageHandlers renders the view glue behind the guards.
type PageHandlers struct {
	T      *TemplateRenderer
	Logger *slog.Logger
}

// Show returns a handler rendering page with title. The guard in front of
// it has already put the session record in the context.
func (h *PageHandlers) Show(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, h.data(r, page, title))
	}
}

// NotFound renders the 404 page.
func (h *PageHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, h.data(r, PageNotFound, "Not found"))
}

func (h *PageHandlers) data(r *http.Request, page, title string) PageData {
	d := PageData{
		Page:      page,
		Title:     title,
		User:      CurrentUser(r.Context()),
		CSRFToken: CSRFToken(r),
	}
	if page == PageLogin || page == PageSignup {
		if from := r.URL.Query().Get("redirect_uri"); from != "" {
			d.RedirectURI = safeRedirectPath(from)
		}
	}
	return d
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	if err := h.T.RenderStatus(w, r, status, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render page failed", "page", data.Page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *PageHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// pageRoute describes one guarded page.
type pageRoute struct {
	Pattern string
	Page    string
	Title   string
	Guard   func(http.Handler) http.Handler
}

func pageRoutes(g *Guards) []pageRoute {
	return []pageRoute{
		{Pattern: "GET /{$}", Page: PageHome, Title: "Home", Guard: g.Unprotected(true)},
		{Pattern: "GET /terms", Page: PageTerms, Title: "Terms", Guard: g.Unprotected(true)},
		{Pattern: "GET " + domainauth.LoginPath, Page: PageLogin, Title: "Sign in", Guard: g.Unprotected(false)},
		{Pattern: "GET /signup", Page: PageSignup, Title: "Create account", Guard: g.Unprotected(false)},
		{Pattern: "GET " + domainauth.AdminHome, Page: PageAdmin, Title: "Administration", Guard: g.Protected(domainauth.RoleAdmin)},
		{
			Pattern: "GET " + domainauth.PharmacyOwnerHome,
			Page:    PagePharmacyOwner,
			Title:   "Pharmacy",
			Guard:   g.Protected(domainauth.RolePharmacyOwner),
		},
		{Pattern: "GET " + domainauth.CustomerHome, Page: PageCustomer, Title: "Dashboard", Guard: g.Protected(domainauth.RoleCustomer)},
		{Pattern: "GET /account", Page: PageAccount, Title: "Account", Guard: g.Protected()},
	}
}
