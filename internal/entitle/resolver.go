// SPDX-License-Identifier: MIT

// Package entitle decides what a given viewer is allowed to see and play.
// Resolve is pure and deterministic: all inputs (channel snapshot, viewer
// context, settings snapshot, current time) are supplied by the caller.
package entitle

import (
	"strings"
	"time"
)

// Platform identifies the requesting client platform.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformTV      Platform = "tv"
)

// ParsePlatform maps a raw platform string onto the known enum.
// Unknown values yield an empty Platform, which matches no allow list
// (fail closed).
func ParsePlatform(raw string) Platform {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "web":
		return PlatformWeb
	case "android":
		return PlatformAndroid
	case "ios":
		return PlatformIOS
	case "tv":
		return PlatformTV
	default:
		return ""
	}
}

// ChannelStatus is the administrative visibility state of a channel.
type ChannelStatus string

const (
	StatusActive   ChannelStatus = "active"
	StatusInactive ChannelStatus = "inactive"
	StatusRetired  ChannelStatus = "retired"
)

// SubscriptionStatus is the state of an authenticated viewer's subscription.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionBlocked  SubscriptionStatus = "blocked"
)

// Mode distinguishes list projections from single-channel detail access.
// Lists are permissive previews; detail is a stricter gate.
type Mode string

const (
	ModeList   Mode = "list"
	ModeDetail Mode = "detail"
)

// Reason explains why a decision came out the way it did.
type Reason string

const (
	ReasonAdminOverride      Reason = "admin_override"
	ReasonGlobalBlock        Reason = "global_block"
	ReasonChannelInactive    Reason = "channel_inactive"
	ReasonPlatformNotAllowed Reason = "platform_not_allowed"
	ReasonPlatformDisabled   Reason = "platform_disabled"
	ReasonPremiumLocked      Reason = "premium_locked"
	ReasonPublicPreview      Reason = "public_preview"
	ReasonOpenAccess         Reason = "open_access"
	ReasonSubscription       Reason = "subscription_active"
	ReasonGuestAllowed       Reason = "guest_allowed"
)

// ChannelState is the snapshot of a channel relevant to entitlement.
type ChannelState struct {
	Status           ChannelStatus
	AllowedPlatforms []Platform
	Premium          bool
	PublicPreview    bool
}

// Viewer is the ephemeral per-request viewer context. The zero value is a
// valid anonymous context.
type Viewer struct {
	Platform      Platform
	Admin         bool
	Authenticated bool

	// Subscription fields, meaningful only when Authenticated.
	Subscription       SubscriptionStatus
	PlanID             string
	SubscriptionExpiry time.Time
}

// Settings is the snapshot of mutable global settings read once per request.
type Settings struct {
	OpenAccess        bool
	DisabledPlatforms []Platform
	BlockAll          bool
}

// Input carries everything Resolve needs. No I/O happens during resolution.
type Input struct {
	Channel  ChannelState
	Viewer   Viewer
	Settings Settings
	Mode     Mode
	Now      time.Time
}

// Decision is computed fresh per (channel, viewer) pair and never cached
// across requests.
type Decision struct {
	Visible         bool
	PremiumUnlocked bool
	Reason          Reason
}

// Resolve evaluates the entitlement rules in order:
//
//  1. administrators bypass every gate
//  2. global kill-switch hides everything
//  3. only active channels are visible
//  4. the platform must be allowed by the channel and not globally disabled
//  5. premium unlock via open access, public preview or an active subscription
//  6. in detail mode a locked premium channel is not visible at all
//
// Visibility and premium lock are otherwise independent axes: a listing may
// contain a visible but locked channel.
func Resolve(in Input) Decision {
	if in.Viewer.Admin {
		return Decision{Visible: true, PremiumUnlocked: true, Reason: ReasonAdminOverride}
	}

	if in.Settings.BlockAll {
		return Decision{Reason: ReasonGlobalBlock}
	}

	if in.Channel.Status != StatusActive {
		return Decision{Reason: ReasonChannelInactive}
	}

	if !platformIn(in.Viewer.Platform, in.Channel.AllowedPlatforms) {
		return Decision{Reason: ReasonPlatformNotAllowed}
	}
	if platformIn(in.Viewer.Platform, in.Settings.DisabledPlatforms) {
		return Decision{Reason: ReasonPlatformDisabled}
	}

	unlocked, reason := unlock(in)

	if in.Mode == ModeDetail && in.Channel.Premium && !unlocked {
		// Detail access to locked premium content is indistinguishable
		// from a missing channel.
		return Decision{Reason: ReasonPremiumLocked}
	}

	if !unlocked {
		reason = ReasonPremiumLocked
		if !in.Channel.Premium {
			reason = ReasonGuestAllowed
		}
	}

	return Decision{Visible: true, PremiumUnlocked: unlocked, Reason: reason}
}

// unlock reports whether the viewer may play premium content, and why.
// Public preview is checked first: it overrides independently of the
// open-access setting.
func unlock(in Input) (bool, Reason) {
	if in.Channel.PublicPreview {
		return true, ReasonPublicPreview
	}
	if in.Settings.OpenAccess {
		return true, ReasonOpenAccess
	}
	if subscriptionCurrent(in.Viewer, in.Now) {
		return true, ReasonSubscription
	}
	return false, ReasonPremiumLocked
}

func subscriptionCurrent(v Viewer, now time.Time) bool {
	return v.Authenticated &&
		v.Subscription == SubscriptionActive &&
		v.PlanID != "" &&
		v.SubscriptionExpiry.After(now)
}

func platformIn(p Platform, set []Platform) bool {
	if p == "" {
		return false
	}
	for _, item := range set {
		if item == p {
			return true
		}
	}
	return false
}
