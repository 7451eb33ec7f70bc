// Package geo loads the static state-boundary reference dataset and answers
// intersection-length queries against route geometries.
package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/anshfreight/ifta-miles/internal/core/ports"
)

const metersPerMile = 1609.344

// maxStepMiles caps how much distance a single attribution step may carry.
// Long polyline segments are split so border crossings land in the right
// state instead of wherever the segment midpoint happens to fall.
const maxStepMiles = 2.0

// statePolygon is one state's boundary with a precomputed bound for cheap
// rejection.
type statePolygon struct {
	code  string
	geom  orb.MultiPolygon
	bound orb.Bound
}

// StateBoundarySet implements ports.StateBoundaries over a GeoJSON feature
// collection of state polygons. Loaded once, immutable afterwards, safe to
// share across concurrent attribution calls.
type StateBoundarySet struct {
	states []statePolygon
}

// property keys tried for the state code; the census cartographic boundary
// files use STUSPS.
var codeProperties = []string{"STUSPS", "state_code", "STATE", "postal"}

// LoadStateBoundaries reads and indexes the boundary file.
func LoadStateBoundaries(path string) (*StateBoundarySet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundary file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("parse boundary file: %w", err)
	}

	set := &StateBoundarySet{states: make([]statePolygon, 0, len(fc.Features))}
	for _, f := range fc.Features {
		code := stateCode(f)
		if code == "" {
			return nil, fmt.Errorf("boundary feature without a state code property")
		}

		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			return nil, fmt.Errorf("state %s: unsupported geometry type %T", code, f.Geometry)
		}

		set.states = append(set.states, statePolygon{
			code:  code,
			geom:  mp,
			bound: mp.Bound(),
		})
	}
	if len(set.states) == 0 {
		return nil, fmt.Errorf("boundary file contains no features")
	}
	return set, nil
}

func stateCode(f *geojson.Feature) string {
	for _, key := range codeProperties {
		if v, ok := f.Properties[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Codes returns the loaded state codes, mainly for startup logging.
func (s *StateBoundarySet) Codes() []string {
	codes := make([]string, len(s.states))
	for i, st := range s.states {
		codes[i] = st.code
	}
	return codes
}

// StateMiles apportions the path's geodesic length across states. Each
// polyline segment is split into steps of at most maxStepMiles and each
// step's length is attributed to the state containing its midpoint. Steps
// whose midpoint falls outside every polygon (open water, dataset gaps) are
// dropped rather than guessed.
func (s *StateBoundarySet) StateMiles(points []ports.RoutePoint) (map[string]float64, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("geometry has %d points, need at least 2", len(points))
	}

	miles := make(map[string]float64)
	for i := 0; i+1 < len(points); i++ {
		a := orb.Point{points[i].Lon, points[i].Lat}
		b := orb.Point{points[i+1].Lon, points[i+1].Lat}

		segMiles := orbgeo.Distance(a, b) / metersPerMile
		if segMiles == 0 {
			continue
		}

		steps := int(segMiles/maxStepMiles) + 1
		stepMiles := segMiles / float64(steps)
		for k := 0; k < steps; k++ {
			// midpoint of step k by linear interpolation; adequate at
			// step scale even though the segment is geodesic.
			t := (float64(k) + 0.5) / float64(steps)
			mid := orb.Point{
				a[0] + (b[0]-a[0])*t,
				a[1] + (b[1]-a[1])*t,
			}
			if code, ok := s.stateAt(mid); ok {
				miles[code] += stepMiles
			}
		}
	}
	return miles, nil
}

func (s *StateBoundarySet) stateAt(p orb.Point) (string, bool) {
	for _, st := range s.states {
		if !st.bound.Contains(p) {
			continue
		}
		if planar.MultiPolygonContains(st.geom, p) {
			return st.code, true
		}
	}
	return "", false
}
