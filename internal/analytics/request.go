// Package analytics implements the data-access layer: a request
// coordinator that serves payloads cache-first, falls back to stale data
// when the transport fails, and degrades to fixed placeholder payloads
// rather than surfacing errors to callers.
package analytics

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Kind names a logical request family.
type Kind string

const (
	KindTraffic   Kind = "traffic"
	KindRoutes    Kind = "routes"
	KindAnalytics Kind = "analytics"
)

// Route request parameter names.
const (
	ParamDomain        = "domain"
	ParamFrom          = "from"
	ParamTo            = "to"
	ParamDepartureTime = "departureTime" // RFC 3339
)

// Request is one logical data request. It lives only for the duration of
// a Fetch call; its canonical serialization is the cache key.
type Request struct {
	Kind   Kind
	Params map[string]string
}

// CacheKey serializes the request deterministically: kind plus params in
// sorted key order, so equivalent requests share a cache slot.
func (r Request) CacheKey() string {
	var b strings.Builder
	b.WriteString(string(r.Kind))

	if len(r.Params) > 0 {
		keys := make([]string, 0, len(r.Params))
		for k := range r.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(r.Params[k])
		}
	}

	return b.String()
}

// DepartureTime parses the departureTime param, returning the zero time
// when absent or malformed (the generator then uses "now").
func (r Request) DepartureTime() time.Time {
	raw, ok := r.Params[ParamDepartureTime]
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Transport obtains a payload for a request, either by generating it
// in-process or by a cross-process message round-trip. Implementations do
// not retry; a failed call is reported once and handled by the coordinator.
type Transport interface {
	FetchData(ctx context.Context, req Request) (json.RawMessage, error)
}

// SettingsSource supplies the refresh interval that sizes the cache TTL.
// It is re-read at the start of every Fetch, so a settings change applies
// from the next call onward.
type SettingsSource interface {
	RefreshInterval() time.Duration
}

// StaticSettings is a SettingsSource with a fixed interval, for callers
// without a settings store.
type StaticSettings time.Duration

// RefreshInterval returns the fixed interval.
func (s StaticSettings) RefreshInterval() time.Duration {
	return time.Duration(s)
}

// DataUpdate is the payload emitted on the dataUpdated event after a
// successful transport fetch.
type DataUpdate struct {
	Kind Kind
	Data json.RawMessage
}
