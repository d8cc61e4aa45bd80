// Package mailer はトランザクションメールの送信機能を提供する。
//
// MailerService はログイン用マジックリンクと更新リマインダーの
// メール送信インターフェースを定義し、実装はAmazon SESを使用する。
// テストではインターフェース越しにモック実装へ差し替えられる。
package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// MailerService はメール送信機能のインターフェースを定義する。
type MailerService interface {
	// SendMagicLink はログイン用マジックリンクを送信する。
	// verifyURL はトークン付きの検証URL。
	SendMagicLink(ctx context.Context, toEmail, verifyURL string) error

	// SendRenewalReminder は更新日が近い会員へのリマインダーを送信する。
	SendRenewalReminder(ctx context.Context, toEmail, businessName, renewalDate string) error
}

// SESMailer はAmazon SESを使用したMailerServiceの実装。
type SESMailer struct {
	client *ses.Client
	from   string
}

// NewSESMailer はSESMailerを生成する。
// AWS認証情報は環境（環境変数・IAMロール等）から解決される。
func NewSESMailer(ctx context.Context, region, from string) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESMailer{
		client: ses.NewFromConfig(cfg),
		from:   from,
	}, nil
}

// SendMagicLink はログイン用マジックリンクを送信する。
func (m *SESMailer) SendMagicLink(ctx context.Context, toEmail, verifyURL string) error {
	subject := "Your sign-in link"
	textBody := fmt.Sprintf(
		"Click the link below to sign in to your member dashboard.\n\n%s\n\n"+
			"This link expires in 15 minutes and can only be used once.\n"+
			"If you did not request this, you can safely ignore this email.\n",
		verifyURL,
	)
	htmlBody := fmt.Sprintf(
		`<p>Click the link below to sign in to your member dashboard.</p>`+
			`<p><a href="%s">Sign in</a></p>`+
			`<p>This link expires in 15 minutes and can only be used once.<br>`+
			`If you did not request this, you can safely ignore this email.</p>`,
		verifyURL,
	)
	return m.send(ctx, toEmail, subject, textBody, htmlBody)
}

// SendRenewalReminder は更新日が近い会員へのリマインダーを送信する。
func (m *SESMailer) SendRenewalReminder(ctx context.Context, toEmail, businessName, renewalDate string) error {
	subject := "Your membership renewal is coming up"
	textBody := fmt.Sprintf(
		"Hi %s,\n\nYour membership renews on %s. "+
			"No action is needed if your payment method is up to date.\n\n"+
			"You can review your billing details from your member dashboard.\n",
		businessName, renewalDate,
	)
	htmlBody := fmt.Sprintf(
		`<p>Hi %s,</p>`+
			`<p>Your membership renews on <strong>%s</strong>. `+
			`No action is needed if your payment method is up to date.</p>`+
			`<p>You can review your billing details from your member dashboard.</p>`,
		businessName, renewalDate,
	)
	return m.send(ctx, toEmail, subject, textBody, htmlBody)
}

func (m *SESMailer) send(ctx context.Context, toEmail, subject, textBody, htmlBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(m.from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
			},
		},
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	return nil
}

// インターフェース実装のコンパイル時チェック
var _ MailerService = (*SESMailer)(nil)
