package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
)

// HighRiskAlert carries the facts for an outbound security notification.
type HighRiskAlert struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	RiskScore      int
	Reasons        []string
	IPAddress      string
	Country        string
	Severity       string
}

// Notifier dispatches best-effort security notifications. Implementations
// must be safe to call concurrently.
type Notifier interface {
	NotifyHighRisk(ctx context.Context, alert HighRiskAlert) error
}

// ResendNotifier sends alert emails through Resend. With no API key it is a
// disabled no-op, matching how the rest of the stack degrades in dev.
type ResendNotifier struct {
	client *resend.Client
	from   string
	to     string
	logger *slog.Logger
}

// NewResendNotifier creates a notifier. Empty apiKey disables sending.
func NewResendNotifier(apiKey, from, to string, logger *slog.Logger) *ResendNotifier {
	n := &ResendNotifier{from: from, to: to, logger: logger}
	if apiKey == "" || from == "" || to == "" {
		logger.Info("alert notifier disabled")
		return n
	}
	n.client = resend.NewClient(apiKey)
	return n
}

// NotifyHighRisk emails the security contact. Callers treat errors as
// best-effort: log and move on.
func (n *ResendNotifier) NotifyHighRisk(ctx context.Context, alert HighRiskAlert) error {
	if n.client == nil {
		return nil
	}

	subject := fmt.Sprintf("High-risk session for user %s (score %d)", alert.UserID, alert.RiskScore)
	text := fmt.Sprintf(
		"User: %s\nOrganization: %s\nRisk score: %d\nSeverity: %s\nSource IP: %s\nCountry: %s\nReasons:\n  - %s\n",
		alert.UserID, alert.OrganizationID, alert.RiskScore, alert.Severity,
		alert.IPAddress, alert.Country, strings.Join(alert.Reasons, "\n  - "))

	_, err := n.client.Emails.Send(&resend.SendEmailRequest{
		From:    n.from,
		To:      []string{n.to},
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}
