package mockdata

import (
	"math"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
}

func TestTraffic_StableBaselinePerDomainAndDay(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))

	a := g.Traffic("example.com")
	b := g.Traffic("example.com")

	if a.TotalVisits != b.TotalVisits {
		t.Errorf("same domain and day should fabricate the same totals: %d vs %d",
			a.TotalVisits, b.TotalVisits)
	}
}

func TestTraffic_DifferentDomainsDiffer(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))

	a := g.Traffic("example.com")
	b := g.Traffic("other.org")

	if a.TotalVisits == b.TotalVisits && a.UniqueVisitors == b.UniqueVisitors {
		t.Errorf("distinct domains produced identical traffic")
	}
}

func TestTraffic_Shape(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))
	p := g.Traffic("example.com")

	if len(p.HourlyVisits) != 24 {
		t.Fatalf("expected 24 hourly buckets, got %d", len(p.HourlyVisits))
	}

	sum := 0
	for _, v := range p.HourlyVisits {
		if v < 0 {
			t.Errorf("negative hourly visits: %d", v)
		}
		sum += v
	}
	if sum != p.TotalVisits {
		t.Errorf("hourly buckets sum to %d, total says %d", sum, p.TotalVisits)
	}

	if p.UniqueVisitors <= 0 || p.UniqueVisitors > p.TotalVisits {
		t.Errorf("unique visitors %d out of range for %d visits", p.UniqueVisitors, p.TotalVisits)
	}
	if p.Error != "" {
		t.Errorf("generated payload should not carry an error, got %q", p.Error)
	}
}

func TestTraffic_SharesSumToRoughly100(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))
	p := g.Traffic("example.com")

	var countrySum float64
	for _, c := range p.Countries {
		if c.Share <= 0 {
			t.Errorf("country %s has non-positive share", c.Country)
		}
		countrySum += c.Share
	}
	if math.Abs(countrySum-100) > 2 {
		t.Errorf("country shares sum to %.1f, expected ~100", countrySum)
	}

	var refSum float64
	for _, r := range p.Referrers {
		refSum += r.Share
	}
	if math.Abs(refSum-100) > 2 {
		t.Errorf("referrer shares sum to %.1f, expected ~100", refSum)
	}
}

func TestAnalytics_Bounds(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))
	p := g.Analytics("example.com")

	if p.BounceRate < 0 || p.BounceRate > 100 {
		t.Errorf("bounce rate %.1f out of range", p.BounceRate)
	}
	if p.AvgSessionSeconds <= 0 {
		t.Errorf("non-positive session duration: %d", p.AvgSessionSeconds)
	}
	if len(p.Heatmap) == 0 {
		t.Fatalf("empty heatmap")
	}
	for _, pt := range p.Heatmap {
		if pt.X < 0 || pt.X > 100 || pt.Y < 0 || pt.Y > 100 {
			t.Errorf("heatmap point (%d,%d) outside viewport grid", pt.X, pt.Y)
		}
		if pt.Weight <= 0 || pt.Weight > 1 {
			t.Errorf("heatmap weight %.2f out of range", pt.Weight)
		}
	}
}

func TestAnalytics_DeterministicPerDomain(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))

	a := g.Analytics("example.com")
	b := g.Analytics("example.com")

	if a.BounceRate != b.BounceRate || len(a.Heatmap) != len(b.Heatmap) {
		t.Errorf("analytics for the same domain should be stable")
	}
}

func TestRoutes_CountAndFields(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))
	depart := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

	routes := g.Routes("Downtown", "Airport", depart)

	if len(routes) < 2 || len(routes) > 4 {
		t.Fatalf("expected 2-4 routes, got %d", len(routes))
	}
	for i, r := range routes {
		if r.From != "Downtown" || r.To != "Airport" {
			t.Errorf("route %d carries wrong endpoints: %s -> %s", i, r.From, r.To)
		}
		if !r.DepartureTime.Equal(depart) {
			t.Errorf("route %d departure %v, want %v", i, r.DepartureTime, depart)
		}
		if r.DurationMinutes < 3 {
			t.Errorf("route %d implausibly short: %d min", i, r.DurationMinutes)
		}
		switch r.Congestion {
		case CongestionLow, CongestionModerate, CongestionHeavy:
		default:
			t.Errorf("route %d has unknown congestion level %q", i, r.Congestion)
		}
	}
}

func TestRoutes_ZeroDepartureDefaultsToNow(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))

	routes := g.Routes("A Street", "B Plaza", time.Time{})
	if len(routes) == 0 {
		t.Fatal("no routes")
	}
	if !routes[0].DepartureTime.Equal(fixedClock()) {
		t.Errorf("zero departure should default to the clock, got %v", routes[0].DepartureTime)
	}
}

func TestCongestionFor_EasesOnAlternatives(t *testing.T) {
	if congestionFor(1.0, 0) != CongestionHeavy {
		t.Errorf("peak load should be heavy")
	}
	if congestionFor(0.1, 0) != CongestionLow {
		t.Errorf("overnight load should be low")
	}
	// The third alternative at peak load trades distance for lighter traffic.
	if congestionFor(1.0, 3) == CongestionHeavy {
		t.Errorf("later alternatives should ease congestion")
	}
}
