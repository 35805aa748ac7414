// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldViewerID  = "viewer_id"
	FieldDeviceID  = "device_id"

	// Catalog fields
	FieldChannelID = "channel_id"
	FieldPlatform  = "platform"
	FieldReason    = "reason"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Engagement fields
	FieldLiveViewers = "live_viewers"
	FieldFingerprint = "fingerprint"

	// Network fields
	FieldRemoteAddr = "remote_addr"
	FieldPath       = "path"
)
