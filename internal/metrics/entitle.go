// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for viewgate.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viewgate_entitlement_decisions_total",
		Help: "Total entitlement decisions by mode, visibility, unlock state and reason",
	}, []string{"mode", "visible", "unlocked", "reason"})
)

// RecordDecision records one entitlement decision outcome.
func RecordDecision(mode string, visible, unlocked bool, reason string) {
	decisionTotal.WithLabelValues(
		normalizeModeLabel(mode),
		boolLabel(visible),
		boolLabel(unlocked),
		normalizeReasonLabel(reason),
	).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func normalizeModeLabel(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "list", "detail":
		return strings.ToLower(strings.TrimSpace(mode))
	default:
		return "unknown"
	}
}

func normalizeReasonLabel(reason string) string {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case "admin_override", "global_block", "channel_inactive",
		"platform_not_allowed", "platform_disabled", "premium_locked",
		"public_preview", "open_access", "subscription_active", "guest_allowed":
		return strings.ToLower(strings.TrimSpace(reason))
	default:
		return "unknown"
	}
}
