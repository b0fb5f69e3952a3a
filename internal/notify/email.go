// Package notify contains outbound notification adapters.
package notify

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/maharish/dinetrack/internal/domain/order"
)

// SMTPConfig holds the connection settings for the payment-link mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

var _ order.PaymentLinkSender = (*PaymentLinkMailer)(nil)

// PaymentLinkMailer sends payment links over SMTP. It is a best-effort side
// channel: callers log returned errors and never surface them to clients.
type PaymentLinkMailer struct {
	cfg SMTPConfig
	lg  *zap.Logger
}

// NewPaymentLinkMailer creates a mailer with the given SMTP settings.
func NewPaymentLinkMailer(cfg SMTPConfig, lg *zap.Logger) *PaymentLinkMailer {
	return &PaymentLinkMailer{cfg: cfg, lg: lg}
}

// SendPaymentLink emails the payment link for a closed order.
func (m *PaymentLinkMailer) SendPaymentLink(ctx context.Context, rec *order.HistoryRecord) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return errors.Wrap(err, "set sender")
	}
	if err := msg.To(m.cfg.To); err != nil {
		return errors.Wrap(err, "set recipient")
	}
	msg.Subject("Your Payment Link")
	msg.SetBodyString(mail.TypeTextPlain, paymentLinkBody(rec))

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return errors.Wrap(err, "create smtp client")
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "send mail")
	}

	m.lg.Info("payment link sent",
		zap.String("order_id", rec.OrderID),
		zap.String("to", m.cfg.To),
	)
	return nil
}

var _ order.PaymentLinkSender = (*LogSender)(nil)

// LogSender stands in for the mailer when SMTP is not configured. It records
// the would-be notification and succeeds.
type LogSender struct {
	lg *zap.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(lg *zap.Logger) *LogSender {
	return &LogSender{lg: lg}
}

// SendPaymentLink logs the payment link instead of emailing it.
func (s *LogSender) SendPaymentLink(_ context.Context, rec *order.HistoryRecord) error {
	s.lg.Info("payment link notification (smtp disabled)",
		zap.String("order_id", rec.OrderID),
		zap.String("final_price", rec.FinalPrice.StringFixed(2)),
	)
	return nil
}

func paymentLinkBody(rec *order.HistoryRecord) string {
	return fmt.Sprintf(`Dear Customer,

Thank you for your order. Please click on the following link to complete your payment:

[Insert Payment Link Here]

Order Details:
- Order ID: %s
- Total Amount: %s

Thank you for your business!

Best regards,
Your Restaurant Team`, rec.OrderID, rec.FinalPrice.StringFixed(2))
}
