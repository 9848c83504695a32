// Package settings holds the user-tunable runtime settings: how often data
// refreshes and which domains the daemon regenerates on its own schedule.
package settings

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MinRefreshInterval is the floor for the refresh interval; lower values
// are clamped, not rejected.
const MinRefreshInterval = 30 * time.Second

// Settings is the JSON shape exchanged over UPDATE_SETTINGS and persisted
// in the local store.
type Settings struct {
	RefreshIntervalMs int      `json:"refreshIntervalMs"`
	TrackedDomains    []string `json:"trackedDomains,omitempty"`
}

// Default returns the settings applied before the user ever saves any.
func Default() Settings {
	return Settings{
		RefreshIntervalMs: int(MinRefreshInterval / time.Millisecond),
	}
}

// RefreshInterval returns the refresh interval as a duration, clamped to
// MinRefreshInterval.
func (s Settings) RefreshInterval() time.Duration {
	d := time.Duration(s.RefreshIntervalMs) * time.Millisecond
	if d < MinRefreshInterval {
		return MinRefreshInterval
	}
	return d
}

// ValidationError reports a rejected settings field. It is surfaced to the
// caller synchronously; nothing is persisted when validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("settings: invalid %s: %s", e.Field, e.Reason)
}

// Normalize clamps the refresh interval and canonicalizes tracked domains
// (lowercased, scheme stripped). Returns a ValidationError for any domain
// that is not a plausible host; the interval is never a validation failure.
func (s Settings) Normalize() (Settings, error) {
	out := s
	if out.RefreshIntervalMs < int(MinRefreshInterval/time.Millisecond) {
		out.RefreshIntervalMs = int(MinRefreshInterval / time.Millisecond)
	}

	if len(s.TrackedDomains) > 0 {
		domains := make([]string, 0, len(s.TrackedDomains))
		for _, raw := range s.TrackedDomains {
			domain, err := normalizeDomain(raw)
			if err != nil {
				return Settings{}, &ValidationError{Field: "trackedDomains", Reason: err.Error()}
			}
			domains = append(domains, domain)
		}
		out.TrackedDomains = domains
	}

	return out, nil
}

func normalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty domain")
	}

	// Accept either a bare host or a full URL.
	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("unparseable domain %q", raw)
	}
	host := u.Hostname()
	if host == "" || !strings.Contains(host, ".") {
		return "", fmt.Errorf("not a valid host: %q", raw)
	}
	return strings.ToLower(host), nil
}
