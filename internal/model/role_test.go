package model

import "testing"

func TestRoleAtLeastOrdering(t *testing.T) {
	cases := []struct {
		role Role
		min  Role
		want bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleManager, true},
		{RoleAdmin, RoleRequester, true},
		{RoleManager, RoleAdmin, false},
		{RoleManager, RoleManager, true},
		{RoleManager, RoleRequester, true},
		{RoleRequester, RoleManager, false},
		{RoleRequester, RoleRequester, true},
		{RoleRequester, RoleUser, true},
		{RoleUser, RoleRequester, false},
		{RoleUser, RoleUser, true},
		{Role("ghost"), RoleUser, false},
	}
	for _, tc := range cases {
		if got := tc.role.AtLeast(tc.min); got != tc.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tc.role, tc.min, got, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"user", "requester", "manager", "admin"} {
		r, ok := ParseRole(s)
		if !ok {
			t.Fatalf("ParseRole(%q) not ok", s)
		}
		if r.String() != s {
			t.Errorf("ParseRole(%q) = %q", s, r)
		}
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Error("ParseRole accepted unknown role")
	}
}
