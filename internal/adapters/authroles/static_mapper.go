package authroles

import (
	"strings"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups to roles by case-insensitive membership.
// Admin wins over PharmacyOwner, which wins over Customer. A user in none of
// the configured groups gets no role.
type StaticRoleMapper struct {
	AdminGroup         string
	PharmacyOwnerGroup string
	CustomerGroup      string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	switch {
	case hasGroup(groups, m.AdminGroup):
		return domainauth.RoleAdmin
	case hasGroup(groups, m.PharmacyOwnerGroup):
		return domainauth.RolePharmacyOwner
	case hasGroup(groups, m.CustomerGroup):
		return domainauth.RoleCustomer
	default:
		return ""
	}
}

func hasGroup(groups []string, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	for _, g := range groups {
		if strings.EqualFold(strings.TrimSpace(g), want) {
			return true
		}
	}
	return false
}
