package model

import "testing"

func TestRecordFailedLoginBelowLimit(t *testing.T) {
	u := User{IsActive: true, LoginAttempts: 3}

	locked := u.RecordFailedLogin(5)

	if locked {
		t.Error("fourth failure should not lock the account")
	}
	if u.LoginAttempts != 4 {
		t.Errorf("LoginAttempts = %d, want 4", u.LoginAttempts)
	}
	if !u.IsActive {
		t.Error("account should stay active below the limit")
	}
}

func TestRecordFailedLoginAtLimit(t *testing.T) {
	u := User{IsActive: true, LoginAttempts: 4}

	locked := u.RecordFailedLogin(5)

	if !locked {
		t.Error("fifth failure should lock the account")
	}
	if u.LoginAttempts != 5 {
		t.Errorf("LoginAttempts = %d, want 5", u.LoginAttempts)
	}
	if u.IsActive {
		t.Error("account should be deactivated at the limit")
	}
}

func TestTwoFactorReady(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	empty := ""

	cases := []struct {
		name string
		u    User
		want bool
	}{
		{"enabled with secret", User{OTPEnabled: true, OTPSecret: &secret}, true},
		{"enabled without secret", User{OTPEnabled: true}, false},
		{"enabled with empty secret", User{OTPEnabled: true, OTPSecret: &empty}, false},
		{"secret but disabled", User{OTPSecret: &secret}, false},
	}
	for _, tc := range cases {
		if got := tc.u.TwoFactorReady(); got != tc.want {
			t.Errorf("%s: TwoFactorReady = %v, want %v", tc.name, got, tc.want)
		}
	}
}
