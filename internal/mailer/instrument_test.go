package mailer

import (
	"context"
	"errors"
	"testing"
)

type mockMailer struct {
	sendMagicLinkFn       func(ctx context.Context, toEmail, verifyURL string) error
	sendRenewalReminderFn func(ctx context.Context, toEmail, businessName, renewalDate string) error
}

func (m *mockMailer) SendMagicLink(ctx context.Context, toEmail, verifyURL string) error {
	return m.sendMagicLinkFn(ctx, toEmail, verifyURL)
}

func (m *mockMailer) SendRenewalReminder(ctx context.Context, toEmail, businessName, renewalDate string) error {
	return m.sendRenewalReminderFn(ctx, toEmail, businessName, renewalDate)
}

type mockRecorder struct {
	magicLinks int
	reminders  int
	errs       []string
}

func (m *mockRecorder) RecordMagicLinkSent()          { m.magicLinks++ }
func (m *mockRecorder) RecordRemindersSent(count int) { m.reminders += count }
func (m *mockRecorder) RecordProviderError(provider, step string) {
	m.errs = append(m.errs, provider+"/"+step)
}

func TestInstrumentedMailer_SendMagicLink(t *testing.T) {
	rec := &mockRecorder{}
	m := NewInstrumentedMailer(&mockMailer{
		sendMagicLinkFn: func(_ context.Context, toEmail, verifyURL string) error {
			if toEmail != "owner@example.com" || verifyURL != "https://example.com/verify?token=t1" {
				t.Errorf("unexpected args: %s %s", toEmail, verifyURL)
			}
			return nil
		},
	}, rec)

	if err := m.SendMagicLink(context.Background(), "owner@example.com", "https://example.com/verify?token=t1"); err != nil {
		t.Fatalf("SendMagicLink() error = %v", err)
	}
	if rec.magicLinks != 1 || len(rec.errs) != 0 {
		t.Errorf("magicLinks = %d, errs = %v", rec.magicLinks, rec.errs)
	}
}

func TestInstrumentedMailer_SendMagicLink_Failure(t *testing.T) {
	rec := &mockRecorder{}
	m := NewInstrumentedMailer(&mockMailer{
		sendMagicLinkFn: func(_ context.Context, _, _ string) error {
			return errors.New("ses throttled")
		},
	}, rec)

	if err := m.SendMagicLink(context.Background(), "owner@example.com", "https://example.com/verify"); err == nil {
		t.Fatal("expected error")
	}
	if rec.magicLinks != 0 {
		t.Errorf("magicLinks = %d, want 0", rec.magicLinks)
	}
	if len(rec.errs) != 1 || rec.errs[0] != "ses/send_magic_link" {
		t.Errorf("errs = %v", rec.errs)
	}
}

func TestInstrumentedMailer_SendRenewalReminder(t *testing.T) {
	rec := &mockRecorder{}
	m := NewInstrumentedMailer(&mockMailer{
		sendRenewalReminderFn: func(_ context.Context, _, _, _ string) error { return nil },
	}, rec)

	if err := m.SendRenewalReminder(context.Background(), "owner@example.com", "Tidewater Restoration", "2026-10-01"); err != nil {
		t.Fatalf("SendRenewalReminder() error = %v", err)
	}
	if rec.reminders != 1 {
		t.Errorf("reminders = %d, want 1", rec.reminders)
	}
}

func TestInstrumentedMailer_SendRenewalReminder_Failure(t *testing.T) {
	rec := &mockRecorder{}
	m := NewInstrumentedMailer(&mockMailer{
		sendRenewalReminderFn: func(_ context.Context, _, _, _ string) error {
			return errors.New("address rejected")
		},
	}, rec)

	if err := m.SendRenewalReminder(context.Background(), "owner@example.com", "Tidewater Restoration", "2026-10-01"); err == nil {
		t.Fatal("expected error")
	}
	if rec.reminders != 0 {
		t.Errorf("reminders = %d, want 0", rec.reminders)
	}
	if len(rec.errs) != 1 || rec.errs[0] != "ses/send_renewal_reminder" {
		t.Errorf("errs = %v", rec.errs)
	}
}
