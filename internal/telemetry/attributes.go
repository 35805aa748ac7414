// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Channel attributes
	ChannelIDKey       = "channel.id"
	ChannelCategoryKey = "channel.category"
	ChannelPremiumKey  = "channel.premium"

	// Viewer attributes
	ViewerPlatformKey      = "viewer.platform"
	ViewerAuthenticatedKey = "viewer.authenticated"
	ViewerAdminKey         = "viewer.admin"

	// Decision attributes
	DecisionVisibleKey  = "decision.visible"
	DecisionUnlockedKey = "decision.unlocked"
	DecisionReasonKey   = "decision.reason"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// ChannelAttributes creates channel-related span attributes.
func ChannelAttributes(id, category string, premium bool) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if id != "" {
		attrs = append(attrs, attribute.String(ChannelIDKey, id))
	}
	if category != "" {
		attrs = append(attrs, attribute.String(ChannelCategoryKey, category))
	}
	attrs = append(attrs, attribute.Bool(ChannelPremiumKey, premium))
	return attrs
}

// ViewerAttributes creates viewer-related span attributes. Viewer IDs are
// deliberately excluded from spans.
func ViewerAttributes(platform string, authenticated, admin bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ViewerPlatformKey, platform),
		attribute.Bool(ViewerAuthenticatedKey, authenticated),
		attribute.Bool(ViewerAdminKey, admin),
	}
}

// DecisionAttributes creates entitlement-decision span attributes.
func DecisionAttributes(visible, unlocked bool, reason string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(DecisionVisibleKey, visible),
		attribute.Bool(DecisionUnlockedKey, unlocked),
		attribute.String(DecisionReasonKey, reason),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
