package authroles

import (
	"testing"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
	"github.com/stretchr/testify/assert"
)

func TestStaticRoleMapper_Map(t *testing.T) {
	m := StaticRoleMapper{
		AdminGroup:         "epharmacy-admins",
		PharmacyOwnerGroup: "epharmacy-owners",
		CustomerGroup:      "epharmacy-customers",
	}

	tests := []struct {
		name   string
		groups []string
		want   domainauth.Role
	}{
		{name: "admin", groups: []string{"epharmacy-admins"}, want: domainauth.RoleAdmin},
		{name: "owner", groups: []string{"epharmacy-owners"}, want: domainauth.RolePharmacyOwner},
		{name: "customer", groups: []string{"epharmacy-customers"}, want: domainauth.RoleCustomer},
		{name: "admin wins", groups: []string{"epharmacy-customers", "epharmacy-admins"}, want: domainauth.RoleAdmin},
		{name: "owner beats customer", groups: []string{"epharmacy-customers", "epharmacy-owners"}, want: domainauth.RolePharmacyOwner},
		{name: "case insensitive", groups: []string{" EPharmacy-Owners "}, want: domainauth.RolePharmacyOwner},
		{name: "no match", groups: []string{"staff"}, want: ""},
		{name: "no groups", groups: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.groups))
		})
	}
}

func TestStaticRoleMapper_EmptyConfig(t *testing.T) {
	var m StaticRoleMapper
	assert.Equal(t, domainauth.Role(""), m.Map([]string{"", "admins"}))
}
