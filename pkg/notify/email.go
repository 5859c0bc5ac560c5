// Package notify delivers customer-facing emails over SMTP. Delivery is best
// effort: failures are logged and never propagated to the checkout flow.
package notify

import (
	"fmt"
	"net/smtp"

	"github.com/example/pharmacart/pkg/config"
	"go.uber.org/zap"
)

type EmailNotifier struct {
	addr   string
	from   string
	logger *zap.Logger
}

func NewEmailNotifier(cfg *config.SMTPConfig, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:   cfg.From,
		logger: logger,
	}
}

func (n *EmailNotifier) NotifySuccess(email, orderID, total string) {
	subject := fmt.Sprintf("Payment successful - Order %s", orderID)
	body := fmt.Sprintf("Your order %s has been paid successfully.\r\n\r\nTotal: %s\r\n", orderID, total)
	if err := n.send(email, subject, body); err != nil {
		n.logger.Warn("failed to send payment success email",
			zap.String("to", email), zap.String("order_id", orderID), zap.Error(err))
		return
	}
	n.logger.Info("payment success email sent", zap.String("to", email))
}

func (n *EmailNotifier) NotifyFailure(email, orderID, reason string) {
	subject := fmt.Sprintf("Payment declined - Order %s", orderID)
	body := fmt.Sprintf("Your order %s could not be processed.\r\n\r\nReason: %s\r\n\r\nPlease try again with another payment method.\r\n", orderID, reason)
	if err := n.send(email, subject, body); err != nil {
		n.logger.Warn("failed to send payment failure email",
			zap.String("to", email), zap.String("order_id", orderID), zap.Error(err))
		return
	}
	n.logger.Info("payment failure email sent", zap.String("to", email))
}

func (n *EmailNotifier) send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", n.from, to, subject, body))
	return smtp.SendMail(n.addr, nil, n.from, []string{to}, msg)
}
