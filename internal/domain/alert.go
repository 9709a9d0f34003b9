package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// TypeNone marks a cycle with no active alert.
	TypeNone = "none"

	// TypeUnknown is assigned when a category code is missing from the
	// mapping tables.
	TypeUnknown = "unknown"
)

// Alert is the canonical form of one feed observation, independent of
// which endpoint schema produced it. A TypeNone alert carries no
// localities and is never dispatched.
type Alert struct {
	// Type is the alert category label, e.g. "missiles". TypeNone when the
	// feed carried nothing relayable.
	Type string

	// Localities are the affected locality names as published by the feed,
	// trimmed and deduplicated in first-seen order.
	Localities []string

	// Instructions are the population safety instructions, when the feed
	// provides them. Only the live endpoint carries this field.
	Instructions string
}

// FeedMode selects which feed endpoint the relay polls.
type FeedMode string

const (
	FeedLive    FeedMode = "live"
	FeedHistory FeedMode = "history"
)

// ParseFeedMode validates a feed mode string, case-insensitively.
func ParseFeedMode(s string) (FeedMode, error) {
	switch FeedMode(strings.ToLower(strings.TrimSpace(s))) {
	case FeedLive:
		return FeedLive, nil
	case FeedHistory:
		return FeedHistory, nil
	default:
		return "", fmt.Errorf("unknown feed mode %q (want %q or %q)", s, FeedLive, FeedHistory)
	}
}

// DispatchRecord describes the outcome of relaying one alert over the
// mesh. Records for non-suppressed alerts are mirrored to Kafka when the
// mirror is enabled.
type DispatchRecord struct {
	AlertType      string    `json:"alert_type"`
	Localities     []string  `json:"localities,omitempty"`
	Zones          []int     `json:"zones,omitempty"`
	Channels       []int     `json:"channels,omitempty"`
	Message        string    `json:"message,omitempty"`
	Suppressed     bool      `json:"suppressed"`
	Reason         string    `json:"reason,omitempty"`
	FailedChannels []int     `json:"failed_channels,omitempty"`
	DispatchedAt   time.Time `json:"dispatched_at"`
}
