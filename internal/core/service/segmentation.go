package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/anshfreight/ifta-miles/internal/core/domain"
)

// SegmentationConfig carries the business tunables for round-trip detection.
type SegmentationConfig struct {
	// HomeState closes a group whenever a leg delivers into it.
	HomeState string
	// VirtualReturnStates are the states an empty return leg may be
	// synthesized from when a trip strands away from home.
	VirtualReturnStates []string
	// HubCity is the destination of synthesized return legs.
	HubCity string
	// GapThresholdDays forcibly closes a group when the idle time between
	// one delivery and the next pickup exceeds it.
	GapThresholdDays int
	// LookaheadWindow is how many subsequent legs are examined for a home
	// return before a virtual leg is synthesized.
	LookaheadWindow int
}

// SegmentationService partitions a chronologically sorted delivery log into
// round trips, assigning hierarchical base.sequence references and
// synthesizing empty return legs where the log ends away from home.
type SegmentationService struct {
	cfg          SegmentationConfig
	returnStates map[string]struct{}
	logger       zerolog.Logger
}

func NewSegmentationService(cfg SegmentationConfig, logger zerolog.Logger) *SegmentationService {
	rs := make(map[string]struct{}, len(cfg.VirtualReturnStates))
	for _, s := range cfg.VirtualReturnStates {
		rs[s] = struct{}{}
	}
	return &SegmentationService{cfg: cfg, returnStates: rs, logger: logger}
}

// Segment walks the record stream in one forward pass per (truck, trailer)
// partition and returns the closed trip groups in chronological order.
//
// The input must already be filtered and sorted by
// (truck, trailer, pickup date, load id); a violated ordering contract is
// fatal to the call. Base numbers run continuously across partitions within
// one call and are never reused.
func (s *SegmentationService) Segment(records []domain.LoadRecord) ([]domain.TripGroup, error) {
	if err := validateContract(records); err != nil {
		return nil, err
	}

	var groups []domain.TripGroup
	base := 0
	for start := 0; start < len(records); {
		end := start
		for end < len(records) && records[end].PartitionKey() == records[start].PartitionKey() {
			end++
		}
		var partGroups []domain.TripGroup
		partGroups, base = s.segmentPartition(records[start:end], base)
		groups = append(groups, partGroups...)
		start = end
	}
	return groups, nil
}

// segmentPartition folds one (truck, trailer) stream. All segmentation
// state lives in this frame and is discarded when the partition ends.
func (s *SegmentationService) segmentPartition(part []domain.LoadRecord, base int) ([]domain.TripGroup, int) {
	var (
		groups []domain.TripGroup
		open   []domain.Leg
		seq    int
	)

	// closeGroup finalizes the open group. When the closure was forced
	// (gap rule or end of partition) rather than earned by reaching home,
	// lastIdx points at the partition index of the group's final leg so the
	// lookahead can scan the legs that follow it.
	closeGroup := func(forced bool, lastIdx int) {
		if len(open) == 0 {
			return
		}
		g := domain.TripGroup{
			Base:    base,
			Truck:   open[0].Truck,
			Trailer: open[0].Trailer,
		}
		last := open[len(open)-1]
		switch {
		case last.Destination.State == s.cfg.HomeState:
			g.ReachedHome = true
		case forced && s.eligibleForVirtualReturn(last) && !s.homeWithinLookahead(part, lastIdx):
			v := s.virtualReturn(last, domain.ReferenceID{Base: base, Sequence: seq + 1})
			open = append(open, v)
			g.HasVirtualReturn = true
			s.logger.Debug().
				Str("ref", v.Ref.String()).
				Str("from", v.Origin.String()).
				Msg("synthesized empty return leg")
		default:
			g.NeedsReview = true
			g.ReviewReason = fmt.Sprintf("closed away from home at %s", last.Destination.String())
		}
		g.Legs = open
		groups = append(groups, g)
		open = nil
		seq = 0
	}

	for i, rec := range part {
		if len(open) > 0 {
			gap := daysBetween(part[i-1].DeliveryDate, rec.PickupDate)
			if gap > s.cfg.GapThresholdDays {
				closeGroup(true, i-1)
			}
		}
		if len(open) == 0 {
			base++
		}
		seq++
		open = append(open, legFromRecord(rec, domain.ReferenceID{Base: base, Sequence: seq}))
		if rec.Destination.State == s.cfg.HomeState {
			closeGroup(false, i)
		}
	}
	closeGroup(true, len(part)-1)

	return groups, base
}

// eligibleForVirtualReturn reports whether the group's final leg stranded in
// a state an empty return is synthesized from. Virtual legs themselves never
// qualify, so a group gains at most one.
func (s *SegmentationService) eligibleForVirtualReturn(last domain.Leg) bool {
	if last.IsVirtual() {
		return false
	}
	_, ok := s.returnStates[last.Destination.State]
	return ok
}

// homeWithinLookahead scans up to LookaheadWindow legs after lastIdx for a
// delivery into the home state. When one exists, the recorded return covers
// the trip and no leg is synthesized.
func (s *SegmentationService) homeWithinLookahead(part []domain.LoadRecord, lastIdx int) bool {
	end := lastIdx + 1 + s.cfg.LookaheadWindow
	if end > len(part) {
		end = len(part)
	}
	for _, rec := range part[lastIdx+1 : end] {
		if rec.Destination.State == s.cfg.HomeState {
			return true
		}
	}
	return false
}

// virtualReturn synthesizes the empty return leg: origin is where the trip
// stranded, destination is the home hub, dates carry over from the final
// delivery so chronological order holds.
func (s *SegmentationService) virtualReturn(last domain.Leg, ref domain.ReferenceID) domain.Leg {
	return domain.Leg{
		Ref:          ref,
		Kind:         domain.LegKindVirtual,
		Truck:        last.Truck,
		Trailer:      last.Trailer,
		Origin:       last.Destination,
		Destination:  domain.Place{City: s.cfg.HubCity, State: s.cfg.HomeState},
		PickupDate:   last.DeliveryDate,
		DeliveryDate: last.DeliveryDate,
		Annotation:   fmt.Sprintf("empty return from %s", last.Destination.State),
	}
}

func legFromRecord(rec domain.LoadRecord, ref domain.ReferenceID) domain.Leg {
	return domain.Leg{
		Ref:          ref,
		Kind:         domain.LegKindReal,
		LoadID:       rec.LoadID,
		TripID:       rec.TripID,
		Truck:        rec.Truck,
		Trailer:      rec.Trailer,
		Origin:       rec.Origin,
		Destination:  rec.Destination,
		PickupDate:   rec.PickupDate,
		DeliveryDate: rec.DeliveryDate,
	}
}

// validateContract surfaces violated input guarantees instead of guessing
// around them: required fields present, partitions contiguous, pickup dates
// non-decreasing within each partition.
func validateContract(records []domain.LoadRecord) error {
	seen := make(map[string]int, 16)
	prevKey := ""
	for i, rec := range records {
		switch {
		case rec.Truck == "" || rec.Trailer == "":
			return fmt.Errorf("record %d (load %s): truck/trailer: %w", i, rec.LoadID, domain.ErrMissingField)
		case rec.Origin.City == "" || rec.Origin.State == "" || rec.Destination.City == "" || rec.Destination.State == "":
			return fmt.Errorf("record %d (load %s): origin/destination: %w", i, rec.LoadID, domain.ErrMissingField)
		case rec.PickupDate.IsZero() || rec.DeliveryDate.IsZero():
			return fmt.Errorf("record %d (load %s): pickup/delivery date: %w", i, rec.LoadID, domain.ErrMissingField)
		}

		key := rec.PartitionKey()
		if key != prevKey {
			if first, ok := seen[key]; ok {
				return fmt.Errorf("partition %s reappears at record %d (first seen at %d): %w", key, i, first, domain.ErrUnsortedRecords)
			}
			seen[key] = i
			prevKey = key
			continue
		}
		if rec.PickupDate.Before(records[i-1].PickupDate) {
			return fmt.Errorf("record %d (load %s) pickup precedes previous record: %w", i, rec.LoadID, domain.ErrUnsortedRecords)
		}
	}
	return nil
}

// daysBetween counts whole days from one delivery to the next pickup,
// ignoring the time of day.
func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}
