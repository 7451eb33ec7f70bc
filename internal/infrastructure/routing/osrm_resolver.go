// Package routing adapts public routing/geocoding HTTP APIs to the core's
// RouteResolver port: Nominatim turns "City,ST" strings into coordinates,
// OSRM routes between them and returns an encoded polyline.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/twpayne/go-polyline"

	"github.com/anshfreight/ifta-miles/internal/api/metrics"
	"github.com/anshfreight/ifta-miles/internal/core/ports"
)

const metersPerMile = 1609.344

// Config carries the adapter settings; zero values fall back to sane
// defaults for the public instances.
type Config struct {
	RouteBaseURL   string
	GeocodeBaseURL string
	UserAgent      string
	Timeout        time.Duration
	MaxAttempts    int
}

// OSRMRouteResolver implements ports.RouteResolver over OSRM's route service
// with Nominatim geocoding. Geocoded coordinates are memoized for the
// process lifetime; full route geometries are cached one layer up (Redis
// decorator). Safe for concurrent use.
type OSRMRouteResolver struct {
	session        *http.Client
	routeBaseURL   string
	geocodeBaseURL string
	userAgent      string
	maxAttempts    int
	logger         zerolog.Logger

	mu       sync.RWMutex
	geocoded map[string]coordinate
}

type coordinate struct {
	Lat float64
	Lon float64
}

func NewOSRMRouteResolver(cfg Config, logger zerolog.Logger) *OSRMRouteResolver {
	if cfg.RouteBaseURL == "" {
		cfg.RouteBaseURL = "https://router.project-osrm.org"
	}
	if cfg.GeocodeBaseURL == "" {
		cfg.GeocodeBaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "ifta-miles/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	return &OSRMRouteResolver{
		session:        &http.Client{Timeout: cfg.Timeout},
		routeBaseURL:   strings.TrimRight(cfg.RouteBaseURL, "/"),
		geocodeBaseURL: strings.TrimRight(cfg.GeocodeBaseURL, "/"),
		userAgent:      cfg.UserAgent,
		maxAttempts:    cfg.MaxAttempts,
		logger:         logger,
		geocoded:       make(map[string]coordinate),
	}
}

// Resolve geocodes both endpoints and fetches the truck-drivable route
// between them. Failures are classified so callers can distinguish
// retryable infrastructure trouble from permanently bad input.
func (r *OSRMRouteResolver) Resolve(ctx context.Context, origin, destination string) (*ports.RouteGeometry, error) {
	geom, err := r.resolve(ctx, origin, destination)
	if err != nil {
		var re *ports.ResolveError
		if errors.As(err, &re) && re.Permanent {
			metrics.RouteResolutionsTotal.WithLabelValues("permanent_error").Inc()
		} else {
			metrics.RouteResolutionsTotal.WithLabelValues("transient_error").Inc()
		}
		return nil, err
	}
	metrics.RouteResolutionsTotal.WithLabelValues("ok").Inc()
	return geom, nil
}

func (r *OSRMRouteResolver) resolve(ctx context.Context, origin, destination string) (*ports.RouteGeometry, error) {
	from, err := r.geocode(ctx, origin)
	if err != nil {
		return nil, err
	}
	to, err := r.geocode(ctx, destination)
	if err != nil {
		return nil, err
	}
	return r.route(ctx, from, to)
}

type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// geocode resolves a "City,ST" place to coordinates, memoizing the answer.
func (r *OSRMRouteResolver) geocode(ctx context.Context, place string) (coordinate, error) {
	norm := strings.Join(strings.Fields(place), " ")

	r.mu.RLock()
	cached, ok := r.geocoded[norm]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	endpoint := r.geocodeBaseURL + "/search"
	makeReq := func() (*http.Request, error) {
		req, err := r.newRequest(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("q", norm)
		q.Set("countrycodes", "us")
		q.Set("format", "jsonv2")
		q.Set("limit", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	}

	resp, err := r.doWithRetry(ctx, makeReq)
	if err != nil {
		return coordinate{}, classify("geocode", err)
	}
	defer resp.Body.Close()

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return coordinate{}, &ports.ResolveError{Code: "geocode_decode", Message: err.Error(), Permanent: false}
	}
	if len(results) == 0 {
		return coordinate{}, &ports.ResolveError{Code: "geocode_no_match", Message: "no results for " + norm, Permanent: true}
	}

	var coord coordinate
	coord.Lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return coordinate{}, &ports.ResolveError{Code: "geocode_decode", Message: "bad latitude for " + norm, Permanent: true}
	}
	coord.Lon, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return coordinate{}, &ports.ResolveError{Code: "geocode_decode", Message: "bad longitude for " + norm, Permanent: true}
	}

	r.mu.Lock()
	r.geocoded[norm] = coord
	r.mu.Unlock()
	return coord, nil
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Geometry string  `json:"geometry"` // encoded polyline, precision 5
	} `json:"routes"`
}

func (r *OSRMRouteResolver) route(ctx context.Context, from, to coordinate) (*ports.RouteGeometry, error) {
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?%s",
		r.routeBaseURL, from.Lon, from.Lat, to.Lon, to.Lat,
		url.Values{"overview": {"full"}, "geometries": {"polyline"}}.Encode())

	resp, err := r.doWithRetry(ctx, func() (*http.Request, error) {
		return r.newRequest(ctx, endpoint)
	})
	if err != nil {
		return nil, classify("route", err)
	}
	defer resp.Body.Close()

	var decoded routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &ports.ResolveError{Code: "route_decode", Message: err.Error(), Permanent: false}
	}
	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return nil, &ports.ResolveError{Code: "no_route", Message: "router returned " + decoded.Code, Permanent: true}
	}

	route := decoded.Routes[0]
	coords, _, err := polyline.DecodeCoords([]byte(route.Geometry))
	if err != nil {
		return nil, &ports.ResolveError{Code: "polyline_decode", Message: err.Error(), Permanent: true}
	}

	points := make([]ports.RoutePoint, len(coords))
	for i, c := range coords {
		points[i] = ports.RoutePoint{Lat: c[0], Lon: c[1]}
	}

	return &ports.RouteGeometry{
		Points:     points,
		TotalMiles: route.Distance / metersPerMile,
	}, nil
}

// classify maps transport-level failures onto the port's error taxonomy:
// timeouts and 5xx stay retryable upstream, 4xx input trouble does not.
func classify(stage string, err error) error {
	var re *ports.ResolveError
	if errors.As(err, &re) {
		return err
	}

	permanent := false
	var he *httpStatusError
	if errors.As(err, &he) && he.Code >= 400 && he.Code < 500 && he.Code != http.StatusTooManyRequests {
		permanent = true
	}
	return &ports.ResolveError{Code: stage + "_failed", Message: err.Error(), Permanent: permanent}
}
