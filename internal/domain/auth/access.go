package auth

import "slices"

// Route paths the guards redirect to.
const (
	LoginPath         = "/login"
	AdminHome         = "/admin"
	PharmacyOwnerHome = "/pharmacy-owner"
	CustomerHome      = "/customer"
	FallbackHome      = "/"
)

// Decision is the outcome of a guard evaluation: either render (Allow) or
// redirect to Redirect.
type Decision struct {
	Allow    bool
	Redirect string
}

// Allowed is the decision that renders the wrapped view.
func Allowed() Decision { return Decision{Allow: true} }

// RedirectTo is the decision that navigates away to path.
func RedirectTo(path string) Decision { return Decision{Redirect: path} }

// Authorize decides access for a protected view. An empty required set admits
// any authenticated user.
func Authorize(rec Record, required []Role) Decision {
	if !rec.Authenticated {
		return RedirectTo(LoginPath)
	}
	if len(required) == 0 || slices.Contains(required, rec.Role()) {
		return Allowed()
	}
	return RedirectTo(LoginPath)
}

// HomePath returns the landing route for a role; unknown roles get FallbackHome.
func HomePath(role Role) string {
	switch role {
	case RoleAdmin:
		return AdminHome
	case RolePharmacyOwner:
		return PharmacyOwnerHome
	case RoleCustomer:
		return CustomerHome
	default:
		return FallbackHome
	}
}

// LandingInput carries the state the public-view guard decides on.
type LandingInput struct {
	Record      Record
	LastVisited string
	Bypass      bool
	// BouncedFrom is the protected path that just denied this client, if any.
	// A last visited path equal to it is skipped.
	BouncedFrom string
}

// Landing decides whether a public view renders or the already authenticated
// client is sent back to where it was, or to its role home.
func Landing(in LandingInput) Decision {
	if in.Bypass || !in.Record.Authenticated {
		return Allowed()
	}
	if in.LastVisited != "" && in.LastVisited != in.BouncedFrom {
		return RedirectTo(in.LastVisited)
	}
	return RedirectTo(HomePath(in.Record.Role()))
}
