package analytics

import (
	"encoding/json"
	"time"

	"github.com/sitepulse/sitepulse/internal/message"
	"github.com/sitepulse/sitepulse/internal/mockdata"
)

// Fallback builds the fixed placeholder payload for a kind, served when
// the transport fails and no cached value survives. It is a valid payload
// of the kind's shape with zeroed data and an inline error marker, so
// consumers render a labeled placeholder instead of a failure screen.
func Fallback(kind Kind, req Request) json.RawMessage {
	switch kind {
	case KindTraffic:
		return message.MustMarshal(mockdata.TrafficPayload{
			Domain:       req.Params[ParamDomain],
			Countries:    []mockdata.CountryStat{},
			Referrers:    []mockdata.ReferrerStat{},
			HourlyVisits: make([]int, 24),
			Error:        mockdata.FallbackError,
		})

	case KindAnalytics:
		return message.MustMarshal(mockdata.AnalyticsPayload{
			Domain:   req.Params[ParamDomain],
			TopPaths: []mockdata.PathStat{},
			Heatmap:  []mockdata.HeatPoint{},
			Error:    mockdata.FallbackError,
		})

	case KindRoutes:
		departure := req.DepartureTime()
		if departure.IsZero() {
			departure = time.Now()
		}
		return message.MustMarshal([]mockdata.RouteSuggestion{{
			From:          req.Params[ParamFrom],
			To:            req.Params[ParamTo],
			DepartureTime: departure,
			Summary:       "route data unavailable",
			Congestion:    mockdata.CongestionModerate,
			Error:         mockdata.FallbackError,
		}})
	}

	// Unreachable for requests built through this package; keep the
	// always-render contract anyway.
	return message.MustMarshal(map[string]string{"error": mockdata.FallbackError})
}
