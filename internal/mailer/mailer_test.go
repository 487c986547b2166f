package mailer

import (
	"strings"
	"testing"

	"github.com/iliyamo/equip-control/internal/queue"
)

func testMailer() *Mailer {
	return &Mailer{from: "noreply@example.com", base: "https://equip.example.com"}
}

func TestRenderVerification(t *testing.T) {
	m := testMailer()
	subject, body, err := m.render(queue.EmailEvent{
		Kind:     queue.KindVerification,
		To:       "new@example.com",
		Username: "newuser",
		Token:    "tok123",
	})
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if subject == "" {
		t.Error("empty subject")
	}
	if !strings.Contains(body, "https://equip.example.com/auth/verify-email?token=tok123") {
		t.Errorf("verification link missing:\n%s", body)
	}
	if !strings.Contains(body, "newuser") {
		t.Error("greeting missing username")
	}
}

func TestRenderPasswordReset(t *testing.T) {
	m := testMailer()
	_, body, err := m.render(queue.EmailEvent{
		Kind:     queue.KindPasswordReset,
		Username: "someone",
		Token:    "rst456",
	})
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if !strings.Contains(body, "/auth/reset-password?token=rst456") {
		t.Errorf("reset link missing:\n%s", body)
	}
}

func TestRenderStatusChangeWithNotes(t *testing.T) {
	m := testMailer()
	subject, body, err := m.render(queue.EmailEvent{
		Kind:          queue.KindStatusChange,
		Username:      "someone",
		ReservationID: 9,
		Equipment:     "Camera #CAM-001",
		Status:        "rejected",
		Notes:         "unit needed for the audit",
	})
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if !strings.Contains(subject, "rejected") {
		t.Errorf("subject %q does not carry the status", subject)
	}
	if !strings.Contains(body, "unit needed for the audit") {
		t.Error("manager notes missing from body")
	}
}

func TestRenderUnknownKind(t *testing.T) {
	m := testMailer()
	if _, _, err := m.render(queue.EmailEvent{Kind: "carrier_pigeon"}); err == nil {
		t.Error("render accepted an unknown kind")
	}
}

func TestSendOnNilMailer(t *testing.T) {
	var m *Mailer
	if err := m.Send(queue.EmailEvent{Kind: queue.KindVerification}); err != nil {
		t.Errorf("nil mailer Send() error = %v, want nil", err)
	}
}
