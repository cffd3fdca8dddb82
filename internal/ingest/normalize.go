// Package ingest turns webhook alert objects into alert rows and writes them
// one by one, collecting per-item failures instead of aborting the batch.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hamed0406/alertapi/internal/domain"
)

var errNotObject = errors.New("alert is not a JSON object")

// Decode parses one element of the webhook "alerts" array. Anything other
// than a JSON object, or a field of the wrong JSON type, is an error.
func Decode(raw json.RawMessage) (domain.AlertInput, error) {
	var in domain.AlertInput
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return in, errNotObject
	}
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return in, fmt.Errorf("decode alert: %w", err)
	}
	return in, nil
}

// Normalize maps an alert object onto the alerts table. Empty strings are
// treated as missing. resolved_at is only set when the status is "resolved"
// and an end time was supplied.
func Normalize(in domain.AlertInput) (domain.AlertRecord, error) {
	rec := domain.AlertRecord{
		AlertName:    firstNonEmpty(in.Labels["alertname"], domain.DefaultAlertName),
		AlertState:   firstNonEmpty(in.Status, domain.DefaultAlertState),
		RuleID:       optional(in.Labels["rule_id"]),
		RuleName:     optional(in.Labels["rule_name"]),
		RuleURL:      optional(in.GeneratorURL),
		DashboardID:  optional(in.Labels["dashboard_id"]),
		PanelID:      optional(in.Labels["panel_id"]),
		GeneratorURL: optional(in.GeneratorURL),
		Fingerprint:  optional(in.Fingerprint),
		SilenceURL:   optional(in.SilenceURL),
	}
	msg := firstNonEmpty(in.Annotations["summary"], in.Annotations["description"])
	rec.AlertMessage = &msg

	var err error
	if rec.Tags, err = encodeMap(in.Labels); err != nil {
		return rec, fmt.Errorf("encode labels: %w", err)
	}
	if rec.AlertValues, err = encodeMap(in.Values); err != nil {
		return rec, fmt.Errorf("encode values: %w", err)
	}

	if in.StartsAt != "" {
		t, err := parseTime(in.StartsAt)
		if err != nil {
			return rec, fmt.Errorf("startsAt: %w", err)
		}
		rec.FiredAt = &t
	}
	if in.EndsAt != "" && in.Status == domain.StatusResolved {
		t, err := parseTime(in.EndsAt)
		if err != nil {
			return rec, fmt.Errorf("endsAt: %w", err)
		}
		rec.ResolvedAt = &t
	}
	return rec, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func encodeMap[V any](m map[string]V) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
