package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/clearway/sentinel/internal/infra"
	"github.com/clearway/sentinel/internal/policy"
	"github.com/clearway/sentinel/internal/provider"
)

const (
	incidentTopic = "sentinel.incident.created"
	consumerGroup = "alert-consumer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("alert consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !cfg.KafkaEnabled {
		return fmt.Errorf("alert consumer requires KAFKA_ENABLED=true")
	}

	consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, incidentTopic, consumerGroup, true, logger)
	defer consumer.Close()

	notifier := provider.NewResendNotifier(cfg.ResendAPIKey, cfg.AlertFromEmail, cfg.SecurityTeamTo, logger)

	logger.Info("alert consumer starting", "topic", incidentTopic, "group", consumerGroup)

	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("alert consumer shutting down")
				return nil
			}
			logger.Error("read message failed", "error", err)
			continue
		}

		if err := handleIncident(ctx, notifier, msg.Value, logger); err != nil {
			logger.Error("handle incident failed", "error", err)
		}
	}
}

// handleIncident decides whether an incident event warrants an email and
// sends it. Duplicate events resend at most one extra email, which is
// acceptable for an alerting channel.
func handleIncident(ctx context.Context, notifier provider.Notifier, raw []byte, logger *slog.Logger) error {
	var draft domain.OutboxDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	var payload domain.IncidentEventPayload
	if err := json.Unmarshal(draft.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	urgent := payload.Severity == domain.SeverityHigh ||
		payload.Severity == domain.SeverityCritical ||
		payload.RiskScore > policy.NotifyThreshold
	if !urgent {
		logger.Debug("incident below alert bar",
			"incident_id", payload.IncidentID,
			"severity", payload.Severity,
			"risk_score", payload.RiskScore,
		)
		return nil
	}

	alert := provider.HighRiskAlert{
		UserID:         payload.UserID,
		OrganizationID: payload.OrganizationID,
		RiskScore:      payload.RiskScore,
		Reasons:        []string{payload.IncidentType},
		IPAddress:      payload.SourceIP,
		Country:        payload.Country,
		Severity:       string(payload.Severity),
	}
	if err := notifier.NotifyHighRisk(ctx, alert); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	logger.Info("alert dispatched",
		"incident_id", payload.IncidentID,
		"organization_id", payload.OrganizationID,
		"severity", payload.Severity,
	)
	return nil
}
