// internal/workers/notifications_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/pkg/config"
)

// SendMailFunc matches smtp.SendMail.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// NotificationProcessor sends low-stock alerts by email. Without an SMTP
// host or recipients the alert is only logged.
type NotificationProcessor struct {
	inventory ports.InventoryService
	config    config.NotificationConfig
	sendMail  SendMailFunc
	logger    *slog.Logger
}

// NewNotificationProcessor creates a new notification processor
func NewNotificationProcessor(inventory ports.InventoryService, cfg config.NotificationConfig, logger *slog.Logger) *NotificationProcessor {
	return &NotificationProcessor{
		inventory: inventory,
		config:    cfg,
		sendMail:  smtp.SendMail,
		logger:    logger.With(slog.String("processor", "notification")),
	}
}

// WithSender replaces the SMTP transport.
func (p *NotificationProcessor) WithSender(fn SendMailFunc) *NotificationProcessor {
	p.sendMail = fn
	return p
}

// SendLowStockAlert reports products that fell under the threshold. Products
// restocked or deleted since the task was queued are left out.
func (p *NotificationProcessor) SendLowStockAlert(ctx context.Context, t *asynq.Task) error {
	var payload LowStockPayload
	if err := decode(t, &payload); err != nil {
		return err
	}

	var lines []string
	for _, c := range payload.Changes {
		product, ok, err := p.inventory.Get(ctx, c.ProductID)
		if err != nil {
			return fmt.Errorf("failed to load product %s: %w", c.ProductID, err)
		}
		if !ok || product.Stock >= payload.Threshold {
			continue
		}
		lines = append(lines, fmt.Sprintf("%-10s %-30s %5d", product.ProductID, product.Name, product.Stock))
	}
	if len(lines) == 0 {
		p.logger.InfoContext(ctx, "low stock alert no longer applies")
		return nil
	}

	subject := fmt.Sprintf("Low stock: %d product(s) under %d units", len(lines), payload.Threshold)
	body := strings.Join(lines, "\n")

	if p.config.SMTPHost == "" || len(p.config.AlertRecipients) == 0 {
		p.logger.WarnContext(ctx, "low stock alert",
			slog.String("subject", subject),
			slog.String("body", body))
		return nil
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		p.config.From, strings.Join(p.config.AlertRecipients, ", "), subject, body,
	))

	var auth smtp.Auth
	if p.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", p.config.SMTPUsername, p.config.SMTPPassword, p.config.SMTPHost)
	}
	addr := net.JoinHostPort(p.config.SMTPHost, p.config.SMTPPort)
	if err := p.sendMail(addr, auth, p.config.From, p.config.AlertRecipients, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	p.logger.InfoContext(ctx, "low stock alert sent",
		slog.Int("products", len(lines)),
		slog.Int("recipients", len(p.config.AlertRecipients)))
	return nil
}
