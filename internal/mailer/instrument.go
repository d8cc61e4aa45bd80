package mailer

import "context"

// mailMetricsRecorder はメール送信の計装に必要なメトリクス記録インターフェース。
type mailMetricsRecorder interface {
	RecordMagicLinkSent()
	RecordRemindersSent(count int)
	RecordProviderError(provider string, step string)
}

// InstrumentedMailer はメール送信の成否をメトリクスに記録するデコレーター。
type InstrumentedMailer struct {
	inner    MailerService
	recorder mailMetricsRecorder
}

// NewInstrumentedMailer はMailerServiceを計装付きでラップする。
func NewInstrumentedMailer(inner MailerService, recorder mailMetricsRecorder) *InstrumentedMailer {
	return &InstrumentedMailer{inner: inner, recorder: recorder}
}

// SendMagicLink はログイン用マジックリンクを送信し、結果を記録する。
func (m *InstrumentedMailer) SendMagicLink(ctx context.Context, toEmail, verifyURL string) error {
	if err := m.inner.SendMagicLink(ctx, toEmail, verifyURL); err != nil {
		m.recorder.RecordProviderError("ses", "send_magic_link")
		return err
	}
	m.recorder.RecordMagicLinkSent()
	return nil
}

// SendRenewalReminder は更新リマインダーを送信し、結果を記録する。
func (m *InstrumentedMailer) SendRenewalReminder(ctx context.Context, toEmail, businessName, renewalDate string) error {
	if err := m.inner.SendRenewalReminder(ctx, toEmail, businessName, renewalDate); err != nil {
		m.recorder.RecordProviderError("ses", "send_renewal_reminder")
		return err
	}
	m.recorder.RecordRemindersSent(1)
	return nil
}

// インターフェース実装のコンパイル時チェック
var _ MailerService = (*InstrumentedMailer)(nil)
