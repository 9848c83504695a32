// Package mockdata fabricates the analytics payloads the daemon serves.
// Nothing here is measured: values derive from a hash of the domain plus a
// seeded PRNG, shaped by time-of-day tables so they look plausible.
package mockdata

import "time"

// FallbackError is embedded in every placeholder payload served when no
// fresh or stale data is available. Consumers render it inline rather than
// as a failure.
const FallbackError = "Unable to fetch real-time data"

// TrafficPayload summarizes fabricated visit traffic for one domain.
type TrafficPayload struct {
	Domain         string         `json:"domain"`
	TotalVisits    int            `json:"totalVisits"`
	UniqueVisitors int            `json:"uniqueVisitors"`
	Countries      []CountryStat  `json:"countries"`
	Referrers      []ReferrerStat `json:"referrers"`
	HourlyVisits   []int          `json:"hourlyVisits"` // 24 buckets, local hours
	GeneratedAt    time.Time      `json:"generatedAt"`
	Error          string         `json:"error,omitempty"`
}

// CountryStat is one country's share of traffic.
type CountryStat struct {
	Country string  `json:"country"`
	Share   float64 `json:"share"` // percent, shares sum to ~100
}

// ReferrerStat is one referrer's share of traffic.
type ReferrerStat struct {
	Referrer string  `json:"referrer"`
	Share    float64 `json:"share"`
}

// AnalyticsPayload carries engagement stats and the click heatmap.
type AnalyticsPayload struct {
	Domain            string      `json:"domain"`
	BounceRate        float64     `json:"bounceRate"` // percent
	AvgSessionSeconds int         `json:"avgSessionSeconds"`
	PagesPerVisit     float64     `json:"pagesPerVisit"`
	TopPaths          []PathStat  `json:"topPaths"`
	Heatmap           []HeatPoint `json:"heatmap"`
	GeneratedAt       time.Time   `json:"generatedAt"`
	Error             string      `json:"error,omitempty"`
}

// PathStat is a site path and its share of page views.
type PathStat struct {
	Path  string  `json:"path"`
	Share float64 `json:"share"`
}

// HeatPoint is one cell of the click heatmap, on a 0-100 viewport grid.
type HeatPoint struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Weight float64 `json:"weight"` // 0..1
}

// RouteSuggestion is one fabricated commute alternative.
type RouteSuggestion struct {
	From            string    `json:"from"`
	To              string    `json:"to"`
	DepartureTime   time.Time `json:"departureTime"`
	Summary         string    `json:"summary"`
	DurationMinutes int       `json:"durationMinutes"`
	DistanceKm      float64   `json:"distanceKm"`
	Congestion      string    `json:"congestion"` // low, moderate, heavy
	Error           string    `json:"error,omitempty"`
}

// Congestion levels, ordered from clear to jammed.
const (
	CongestionLow      = "low"
	CongestionModerate = "moderate"
	CongestionHeavy    = "heavy"
)
