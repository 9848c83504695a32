package mockdata

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"
)

// hourlyWeights shapes visit counts across the day: quiet overnight, a
// late-morning peak and an evening peak.
var hourlyWeights = [24]float64{
	0.15, 0.10, 0.08, 0.07, 0.08, 0.12, // 00-05
	0.25, 0.45, 0.70, 0.90, 1.00, 0.95, // 06-11
	0.85, 0.80, 0.75, 0.78, 0.82, 0.88, // 12-17
	0.92, 0.98, 0.95, 0.75, 0.50, 0.28, // 18-23
}

var countryPool = []string{
	"United States", "Germany", "United Kingdom", "India", "Brazil",
	"France", "Japan", "Canada", "Australia", "Netherlands",
}

var referrerPool = []string{
	"google.com", "direct", "twitter.com", "reddit.com", "bing.com",
	"facebook.com", "linkedin.com", "news.ycombinator.com",
}

var pathPool = []string{
	"/", "/pricing", "/blog", "/docs", "/about", "/signup", "/contact",
}

// Generator fabricates analytics payloads. The same domain always yields
// the same baseline (hash-seeded), with per-call jitter layered on top.
type Generator struct {
	now func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithClock overrides the generator's time source. Used by tests.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// domainSeed hashes a domain into a stable PRNG seed.
func domainSeed(domain string) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(domain))))
	return int64(h.Sum64())
}

// Traffic fabricates the traffic summary for a domain. The baseline is
// stable per domain and day; only small jitter differs between calls.
func (g *Generator) Traffic(domain string) TrafficPayload {
	now := g.now()
	day := now.Format("2006-01-02")
	rng := rand.New(rand.NewSource(domainSeed(domain + ":" + day)))

	base := 500 + rng.Intn(49500) // daily visit baseline 500..50000
	hourly := make([]int, 24)
	total := 0
	for h := 0; h < 24; h++ {
		jitter := 0.85 + rng.Float64()*0.3
		v := int(float64(base) / 24 * hourlyWeights[h] * jitter)
		hourly[h] = v
		total += v
	}

	unique := int(float64(total) * (0.55 + rng.Float64()*0.25))

	return TrafficPayload{
		Domain:         domain,
		TotalVisits:    total,
		UniqueVisitors: unique,
		Countries:      pickShares(rng, countryPool, 5, func(name string, share float64) CountryStat { return CountryStat{Country: name, Share: share} }),
		Referrers:      pickShares(rng, referrerPool, 4, func(name string, share float64) ReferrerStat { return ReferrerStat{Referrer: name, Share: share} }),
		HourlyVisits:   hourly,
		GeneratedAt:    now,
	}
}

// Analytics fabricates engagement stats and a click heatmap for a domain.
func (g *Generator) Analytics(domain string) AnalyticsPayload {
	now := g.now()
	rng := rand.New(rand.NewSource(domainSeed(domain) ^ 0x5eed))

	points := 30 + rng.Intn(20)
	heatmap := make([]HeatPoint, 0, points)
	for i := 0; i < points; i++ {
		heatmap = append(heatmap, HeatPoint{
			X:      rng.Intn(101),
			Y:      rng.Intn(101),
			Weight: roundShare(0.1 + rng.Float64()*0.9),
		})
	}

	return AnalyticsPayload{
		Domain:            domain,
		BounceRate:        roundShare(25 + rng.Float64()*50),
		AvgSessionSeconds: 45 + rng.Intn(500),
		PagesPerVisit:     roundShare(1.2 + rng.Float64()*4),
		TopPaths:          pickShares(rng, pathPool, 5, func(name string, share float64) PathStat { return PathStat{Path: name, Share: share} }),
		Heatmap:           heatmap,
		GeneratedAt:       now,
	}
}

// Routes fabricates 2-4 commute alternatives. Congestion follows the same
// time-of-day table the traffic curve uses: a busy hour is a slow hour.
func (g *Generator) Routes(from, to string, departure time.Time) []RouteSuggestion {
	if departure.IsZero() {
		departure = g.now()
	}
	rng := rand.New(rand.NewSource(domainSeed(from + "->" + to)))

	load := hourlyWeights[departure.Hour()]
	baseKm := 2 + rng.Float64()*28

	n := 2 + rng.Intn(3)
	nameOffset := rng.Intn(len(routeNames))
	routes := make([]RouteSuggestion, 0, n)
	for i := 0; i < n; i++ {
		detour := 1 + float64(i)*0.12*rng.Float64()
		km := roundShare(baseKm * detour)
		// ~35 km/h base speed, slowed proportionally to the load.
		minutes := int(km / 35 * 60 * (1 + load*rng.Float64()))
		if minutes < 3 {
			minutes = 3
		}
		routes = append(routes, RouteSuggestion{
			From:            from,
			To:              to,
			DepartureTime:   departure,
			Summary:         fmt.Sprintf("via %s", routeNames[(nameOffset+i)%len(routeNames)]),
			DurationMinutes: minutes,
			DistanceKm:      km,
			Congestion:      congestionFor(load, i),
		})
	}
	return routes
}

var routeNames = []string{
	"Main St", "Riverside Dr", "Highway 7", "Oak Ave", "the ring road",
	"Station Rd", "the waterfront", "Hill Pass",
}

func congestionFor(load float64, alternative int) string {
	// Later alternatives trade distance for lighter traffic.
	adjusted := load - float64(alternative)*0.2
	switch {
	case adjusted > 0.8:
		return CongestionHeavy
	case adjusted > 0.4:
		return CongestionModerate
	default:
		return CongestionLow
	}
}

// pickShares draws n distinct entries from pool and assigns them random
// shares normalized to sum to 100.
func pickShares[T any](rng *rand.Rand, pool []string, n int, build func(string, float64) T) []T {
	if n > len(pool) {
		n = len(pool)
	}
	idx := rng.Perm(len(pool))[:n]

	weights := make([]float64, n)
	sum := 0.0
	for i := range weights {
		weights[i] = 0.2 + rng.Float64()
		sum += weights[i]
	}

	out := make([]T, 0, n)
	for i, j := range idx {
		out = append(out, build(pool[j], roundShare(weights[i]/sum*100)))
	}
	return out
}

func roundShare(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
