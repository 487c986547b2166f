package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteICS(t *testing.T) {
	dir := t.TempDir()
	ev := CalendarEvent{
		ReservationID: 17,
		UserID:        3,
		UserEmail:     "req@example.com",
		Equipment:     "Dell Vostro #NB-007",
		StartsAt:      "2026-04-01T09:00:00Z",
		EndsAt:        "2026-04-03T17:30:00Z",
	}

	if err := writeICS(dir, ev); err != nil {
		t.Fatalf("writeICS() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "reservation-17.ics"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	body := string(data)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:reservation-17@equip-control",
		"DTSTART:20260401T090000Z",
		"DTEND:20260403T173000Z",
		"SUMMARY:Equipment reservation: Dell Vostro #NB-007",
		"ATTENDEE:mailto:req@example.com",
		"END:VCALENDAR",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("export missing %q:\n%s", want, body)
		}
	}
}

func TestWriteICSBadTimes(t *testing.T) {
	dir := t.TempDir()
	ev := CalendarEvent{ReservationID: 1, StartsAt: "yesterday", EndsAt: "2026-04-03T17:30:00Z"}
	if err := writeICS(dir, ev); err == nil {
		t.Error("writeICS accepted an unparseable start time")
	}
	ev = CalendarEvent{ReservationID: 1, StartsAt: "2026-04-01T09:00:00Z", EndsAt: "tomorrow"}
	if err := writeICS(dir, ev); err == nil {
		t.Error("writeICS accepted an unparseable end time")
	}
}

func TestWriteICSConvertsToUTC(t *testing.T) {
	dir := t.TempDir()
	ev := CalendarEvent{
		ReservationID: 5,
		UserEmail:     "req@example.com",
		Equipment:     "Projector #PJ-001",
		StartsAt:      "2026-04-01T11:00:00+02:00",
		EndsAt:        "2026-04-01T15:00:00+02:00",
	}
	if err := writeICS(dir, ev); err != nil {
		t.Fatalf("writeICS() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "reservation-5.ics"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "DTSTART:20260401T090000Z") {
		t.Errorf("offset time not rewritten to UTC:\n%s", data)
	}
}
