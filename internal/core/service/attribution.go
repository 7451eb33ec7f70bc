package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/anshfreight/ifta-miles/internal/core/domain"
	"github.com/anshfreight/ifta-miles/internal/core/ports"
)

// AttributionConfig carries the tunables for state mileage apportionment.
type AttributionConfig struct {
	// MinMileageThreshold drops states whose share of a leg is at or below
	// it, guarding against geometry noise at shared borders. Applied after
	// conversion to miles.
	MinMileageThreshold float64
	// MaxConcurrentLegs bounds resolver fan-out within one group.
	MaxConcurrentLegs int
}

// AttributionService converts each leg of a trip group into per-state
// mileage rows using the injected route resolver and boundary dataset.
//
// For fixed resolver output and boundaries the service is a pure function:
// identical inputs yield identical rows in identical order.
type AttributionService struct {
	resolver   ports.RouteResolver
	boundaries ports.StateBoundaries
	cfg        AttributionConfig
	logger     zerolog.Logger
}

func NewAttributionService(resolver ports.RouteResolver, boundaries ports.StateBoundaries, cfg AttributionConfig, logger zerolog.Logger) *AttributionService {
	if cfg.MaxConcurrentLegs <= 0 {
		cfg.MaxConcurrentLegs = 1
	}
	return &AttributionService{resolver: resolver, boundaries: boundaries, cfg: cfg, logger: logger}
}

// Attribute emits the state-mileage rows for every leg of the group, in leg
// order. Legs are resolved with bounded concurrency; results are collected
// and re-sequenced, never streamed in completion order. A failed leg yields
// exactly one sentinel row and never aborts the rest of the group.
func (a *AttributionService) Attribute(ctx context.Context, group domain.TripGroup) ([]domain.StateMileageRow, error) {
	perLeg := make([][]domain.StateMileageRow, len(group.Legs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MaxConcurrentLegs)
	for i, leg := range group.Legs {
		i, leg := i, leg
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perLeg[i] = a.attributeLeg(gctx, leg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []domain.StateMileageRow
	for _, legRows := range perLeg {
		rows = append(rows, legRows...)
	}
	return rows, nil
}

// attributeLeg produces the rows for a single leg: one per state above the
// mileage threshold, or a single sentinel row when resolution or geometry
// fails.
func (a *AttributionService) attributeLeg(ctx context.Context, leg domain.Leg) []domain.StateMileageRow {
	byState, total, err := a.legStateMiles(ctx, leg)
	if err != nil {
		a.logger.Warn().Err(err).
			Str("ref", leg.Ref.String()).
			Str("origin", leg.Origin.String()).
			Str("destination", leg.Destination.String()).
			Msg("mileage calculation failed")
		return []domain.StateMileageRow{sentinelRow(leg, err)}
	}

	states := make([]string, 0, len(byState))
	for st, miles := range byState {
		if miles > a.cfg.MinMileageThreshold {
			states = append(states, st)
		}
	}
	sort.Strings(states)

	rows := make([]domain.StateMileageRow, 0, len(states))
	for _, st := range states {
		rows = append(rows, domain.StateMileageRow{
			Ref:          leg.Ref,
			LoadID:       leg.LoadID,
			Truck:        leg.Truck,
			Trailer:      leg.Trailer,
			PickupDate:   leg.PickupDate,
			DeliveryDate: leg.DeliveryDate,
			State:        st,
			Miles:        byState[st],
			Status:       domain.MileageOK,
		})
	}

	a.logger.Debug().
		Str("ref", leg.Ref.String()).
		Float64("total_miles", total).
		Int("states", len(rows)).
		Msg("leg attributed")
	return rows
}

// legStateMiles resolves the leg's full stop chain and accumulates per-state
// mileage across all segments. For a plain leg that is one resolver call;
// for a chained-origin leg the intrastate waypoint hops are attributed by
// actual intersection first, then the final interstate segment, and sums are
// merged so a state appears at most once per leg.
func (a *AttributionService) legStateMiles(ctx context.Context, leg domain.Leg) (map[string]float64, float64, error) {
	stops := append(leg.Stops(), leg.Destination)

	acc := make(map[string]float64)
	total := 0.0
	for i := 0; i+1 < len(stops); i++ {
		geom, err := a.resolver.Resolve(ctx, stops[i].String(), stops[i+1].String())
		if err != nil {
			return nil, 0, err
		}
		if geom == nil || len(geom.Points) < 2 {
			return nil, 0, fmt.Errorf("%s -> %s: %w", stops[i], stops[i+1], domain.ErrEmptyRoute)
		}
		byState, err := a.boundaries.StateMiles(geom.Points)
		if err != nil {
			return nil, 0, fmt.Errorf("intersect %s -> %s: %w", stops[i], stops[i+1], err)
		}
		for st, miles := range byState {
			acc[st] += miles
		}
		total += geom.TotalMiles
	}
	return acc, total, nil
}

// sentinelRow is the recoverable-failure marker for one leg. State carries
// the ERROR code so downstream filtering stays a plain column comparison.
func sentinelRow(leg domain.Leg, cause error) domain.StateMileageRow {
	return domain.StateMileageRow{
		Ref:          leg.Ref,
		LoadID:       leg.LoadID,
		Truck:        leg.Truck,
		Trailer:      leg.Trailer,
		PickupDate:   leg.PickupDate,
		DeliveryDate: leg.DeliveryDate,
		State:        domain.ErrorStateCode,
		Status:       domain.MileageFailed,
		Detail:       cause.Error(),
	}
}
