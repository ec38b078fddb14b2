package domain

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{"ADMIN", RoleAdmin, true},
		{"admin", RoleAdmin, true},
		{"Manager", RoleManager, true},
		{"technician", RoleTechnician, true},
		{"CUSTOMER", RoleCustomer, true},
		{"", "", false},
		{" admin", "", false},
		{"ROOT", "", false},
		{"ADMINS", "", false},
	}

	for _, tc := range tests {
		got, ok := ParseRole(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestHasRole(t *testing.T) {
	role := RoleTechnician
	user := &User{ID: "u1", Role: &role}

	if !user.HasRole(RoleTechnician) {
		t.Fatal("expected technician role")
	}
	if user.HasRole(RoleAdmin) {
		t.Fatal("unexpected admin role")
	}
	if (&User{ID: "u2"}).HasRole(RoleCustomer) {
		t.Fatal("role-less user must not match")
	}
	var nilUser *User
	if nilUser.HasRole(RoleCustomer) {
		t.Fatal("nil user must not match")
	}
}
