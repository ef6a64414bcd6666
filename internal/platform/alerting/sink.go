// Package alerting delivers dispute and operational alerts to the admin
// collaborator. Delivery is fire-and-forget: a failed alert is logged, never
// surfaced to the emitting transition.
package alerting

import (
	"context"
	"log/slog"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type Alert struct {
	Title       string
	Description string
	Severity    Severity
	Kind        string
}

// LogSink writes alerts to structured logs; the admin dashboard tails the
// alert stream from there.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Emit(_ context.Context, alert Alert) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("admin alert emitted",
		"event", "admin_alert_emitted",
		"module", "internal/platform/alerting",
		"layer", "platform",
		"alert_kind", alert.Kind,
		"severity", string(alert.Severity),
		"title", alert.Title,
		"description", alert.Description,
	)
}
