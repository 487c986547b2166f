package model

import (
	"testing"
	"time"
)

func TestCanTransitionMatrix(t *testing.T) {
	statuses := []string{ReservationPending, ReservationApproved, ReservationRejected, ReservationReturned}
	allowed := map[[2]string]bool{
		{ReservationPending, ReservationApproved}: true,
		{ReservationPending, ReservationRejected}: true,
		{ReservationApproved, ReservationReturned}: true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]string{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestUnitStatusAfterPairing(t *testing.T) {
	cases := []struct {
		newStatus    string
		returnStatus string
		wantUnit     string
		wantOK       bool
	}{
		{ReservationApproved, "", UnitReserved, true},
		{ReservationRejected, "", UnitAvailable, true},
		{ReservationReturned, ReturnOK, UnitAvailable, true},
		{ReservationReturned, ReturnMaintenance, UnitMaintenance, true},
		{ReservationReturned, "", "", false},
		{ReservationReturned, "broken", "", false},
		{ReservationPending, "", "", false},
	}
	for _, tc := range cases {
		unit, ok := UnitStatusAfter(tc.newStatus, tc.returnStatus)
		if unit != tc.wantUnit || ok != tc.wantOK {
			t.Errorf("UnitStatusAfter(%q, %q) = (%q, %v), want (%q, %v)",
				tc.newStatus, tc.returnStatus, unit, ok, tc.wantUnit, tc.wantOK)
		}
	}
}

func TestIntervalsOverlap(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	hour := func(n int) time.Time { return base.Add(time.Duration(n) * time.Hour) }

	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical", hour(0), hour(4), hour(0), hour(4), true},
		{"nested", hour(0), hour(24), hour(2), hour(8), true},
		{"partial front", hour(0), hour(4), hour(2), hour(8), true},
		{"partial back", hour(2), hour(8), hour(0), hour(4), true},
		{"touching end to start", hour(0), hour(4), hour(4), hour(8), false},
		{"touching start to end", hour(4), hour(8), hour(0), hour(4), false},
		{"disjoint", hour(0), hour(2), hour(6), hour(8), false},
	}
	for _, tc := range cases {
		if got := IntervalsOverlap(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
			t.Errorf("%s: IntervalsOverlap = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	r := Reservation{Status: ReservationApproved, EndTime: past}
	if !r.Overdue(now) {
		t.Error("approved reservation past its end should be overdue")
	}
	r = Reservation{Status: ReservationApproved, EndTime: future}
	if r.Overdue(now) {
		t.Error("approved reservation before its end should not be overdue")
	}
	r = Reservation{Status: ReservationPending, EndTime: past}
	if r.Overdue(now) {
		t.Error("pending reservation should never be overdue")
	}
	r = Reservation{Status: ReservationReturned, EndTime: past}
	if r.Overdue(now) {
		t.Error("returned reservation should never be overdue")
	}
}
