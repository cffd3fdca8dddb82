package domain

import "time"

const (
	DefaultAlertName  = "Unknown Alert"
	DefaultAlertState = "unknown"
	StatusResolved    = "resolved"
	StatusFiring      = "firing"
)

// AlertInput is one alert object as delivered by the monitoring tool's
// webhook. Every field is optional.
type AlertInput struct {
	Status       string            `json:"status,omitempty"`
	Labels       map[string]string `json:"labels,omitempty"`
	Annotations  map[string]string `json:"annotations,omitempty"`
	Values       map[string]any    `json:"values,omitempty"`
	GeneratorURL string            `json:"generatorURL,omitempty"`
	Fingerprint  string            `json:"fingerprint,omitempty"`
	SilenceURL   string            `json:"silenceURL,omitempty"`
	DashboardURL string            `json:"dashboardURL,omitempty"`
	PanelURL     string            `json:"panelURL,omitempty"`
	ValueString  string            `json:"valueString,omitempty"`
	StartsAt     string            `json:"startsAt,omitempty"`
	EndsAt       string            `json:"endsAt,omitempty"`
}

// AlertRecord is one row of the alerts table. Nil pointers are NULL columns.
type AlertRecord struct {
	ID           int64      `json:"id"`
	AlertName    string     `json:"alert_name"`
	AlertState   string     `json:"alert_state"`
	AlertMessage *string    `json:"alert_message"`
	RuleID       *string    `json:"rule_id"`
	RuleName     *string    `json:"rule_name"`
	RuleURL      *string    `json:"rule_url"`
	DashboardID  *string    `json:"dashboard_id"`
	PanelID      *string    `json:"panel_id"`
	Tags         string     `json:"tags"`         // JSON text of the labels
	AlertValues  string     `json:"alert_values"` // JSON text of the values
	GeneratorURL *string    `json:"generator_url"`
	Fingerprint  *string    `json:"fingerprint"`
	SilenceURL   *string    `json:"silence_url"`
	CreatedAt    time.Time  `json:"created_at"`
	FiredAt      *time.Time `json:"fired_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
}

// InsertedAlert is the per-item summary returned to the webhook caller.
type InsertedAlert struct {
	ID         int64  `json:"id"`
	AlertName  string `json:"alert_name"`
	AlertState string `json:"alert_state"`
}
