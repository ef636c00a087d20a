package claudeai

import (
	"encoding/json"
	"time"
)

// Organization represents a claude.ai organization.
type Organization struct {
	UUID         string   `json:"uuid"`
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
}

// usageResponse is the raw API response from the usage endpoint.
type usageResponse struct {
	FiveHour       *usageWindow `json:"five_hour"`
	SevenDay       *usageWindow `json:"seven_day"`
	SevenDayOpus   *usageWindow `json:"seven_day_opus"`
	SevenDaySonnet *usageWindow `json:"seven_day_sonnet"`
}

// usageWindow is a single rate-limit window from the API. Utilization can be
// int, float, or string, so it stays raw until parsed.
type usageWindow struct {
	Utilization json.RawMessage `json:"utilization"`
	ResetsAt    *string         `json:"resets_at"`
}

// RateLimits holds the normalized rate-limit windows.
type RateLimits struct {
	FiveHour       *Window
	SevenDay       *Window
	SevenDayOpus   *Window
	SevenDaySonnet *Window
}

// Window is a single rate-limit window, normalized for display.
type Window struct {
	Pct      float64 // 0.0-1.0
	ResetsAt time.Time
}

// Status aggregates everything the status display needs from claude.ai.
type Status struct {
	Org       Organization
	Limits    *RateLimits
	FetchedAt time.Time
	Error     error
}
