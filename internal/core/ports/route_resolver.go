package ports

import "context"

// RoutePoint is one geographic coordinate of a routed path (WGS 84).
type RoutePoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteGeometry is the routed path for one origin/destination pair:
// an ordered coordinate sequence plus the router's total driving distance.
// Ephemeral: consumed by attribution and discarded.
type RouteGeometry struct {
	Points     []RoutePoint `json:"points"`
	TotalMiles float64      `json:"total_miles"`
}

// ResolveError describes a failed resolver call. Permanent failures (bad
// geocoding input, no route) must not be retried; transient ones
// (timeouts, 5xx) may be.
type ResolveError struct {
	Code      string
	Message   string
	Permanent bool
}

func (e *ResolveError) Error() string {
	return "resolve route: " + e.Code + ": " + e.Message
}

// RouteResolver is the injected routing capability. Origin and destination
// are "City,ST" strings; the mode is always truck routing. Implementations
// must be safe for concurrent use.
type RouteResolver interface {
	Resolve(ctx context.Context, origin, destination string) (*RouteGeometry, error)
}
